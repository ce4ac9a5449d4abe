package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/earlywarning"
)

// EarlyWarningHandler handles early warning endpoints.
type EarlyWarningHandler struct {
	svc *earlywarning.Service
}

// NewEarlyWarningHandler creates a new EarlyWarningHandler.
func NewEarlyWarningHandler(svc *earlywarning.Service) *EarlyWarningHandler {
	return &EarlyWarningHandler{svc: svc}
}

// Overview handles GET /v1/early-warning - every district with a national
// summary.
func (h *EarlyWarningHandler) Overview(w http.ResponseWriter, r *http.Request) {
	warnings, info, err := h.svc.All(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"national":  earlywarning.Summarize(warnings, time.Now().UTC()),
		"districts": warnings,
		"count":     len(warnings),
		"cache":     info,
	})
}

// District handles GET /v1/early-warning/{district}.
func (h *EarlyWarningHandler) District(w http.ResponseWriter, r *http.Request) {
	warning, err := h.svc.District(r.Context(), chi.URLParam(r, "district"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, warning)
}

// districtAlert is one government alert with its district attached.
type districtAlert struct {
	District string `json:"district"`
	earlywarning.GovAlert
}

// Alerts handles GET /v1/early-warning/alerts - active government alerts
// across all districts.
func (h *EarlyWarningHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	warnings, info, err := h.svc.All(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var alerts []districtAlert
	for _, warning := range warnings {
		for _, a := range warning.Alerts {
			alerts = append(alerts, districtAlert{District: warning.District, GovAlert: a})
		}
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
		"cache":  info,
	})
}

// HighRisk handles GET /v1/early-warning/high-risk - districts at high or
// extreme risk.
func (h *EarlyWarningHandler) HighRisk(w http.ResponseWriter, r *http.Request) {
	warnings, info, err := h.svc.All(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	highRisk := make([]earlywarning.DistrictWarning, 0)
	for _, warning := range warnings {
		if warning.RiskLevel == earlywarning.RiskHigh || warning.RiskLevel == earlywarning.RiskExtreme {
			highRisk = append(highRisk, warning)
		}
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"districts": highRisk,
		"count":     len(highRisk),
		"cache":     info,
	})
}

// Daily handles GET /v1/early-warning/{district}/daily - the 8-day forecast
// with per-day alert levels.
func (h *EarlyWarningHandler) Daily(w http.ResponseWriter, r *http.Request) {
	warning, err := h.svc.District(r.Context(), chi.URLParam(r, "district"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"district": warning.District,
		"daily":    warning.Daily,
		"count":    len(warning.Daily),
	})
}

// Hourly handles GET /v1/early-warning/{district}/hourly - the 48-hour
// forecast.
func (h *EarlyWarningHandler) Hourly(w http.ResponseWriter, r *http.Request) {
	warning, err := h.svc.District(r.Context(), chi.URLParam(r, "district"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"district": warning.District,
		"hourly":   warning.Hourly,
		"count":    len(warning.Hourly),
	})
}

// Refresh handles POST /v1/early-warning/refresh.
func (h *EarlyWarningHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cache().Refresh(r.Context(), true); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.svc.Cache().Info())
}
