package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/climate"
)

// ClimateHandler handles historical climate analysis endpoints.
type ClimateHandler struct {
	svc *climate.Service
}

// NewClimateHandler creates a new ClimateHandler.
func NewClimateHandler(svc *climate.Service) *ClimateHandler {
	return &ClimateHandler{svc: svc}
}

// thresholdParam parses an optional thresholdMm query value. Zero means
// "use the default".
func thresholdParam(w http.ResponseWriter, r *http.Request) (float64, bool) {
	raw := r.URL.Query().Get("thresholdMm")
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		response.BadRequest(w, r, "thresholdMm must be a positive number", nil)
		return 0, false
	}
	return v, true
}

// Patterns handles GET /v1/climate/{district}/patterns?years=30&thresholdMm=100.
func (h *ClimateHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	threshold, ok := thresholdParam(w, r)
	if !ok {
		return
	}
	years := queryInt(r, "years", 0)

	analysis, err := h.svc.Patterns(r.Context(), chi.URLParam(r, "district"), years, threshold)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, analysis)
}

// MonthlyRisk handles GET /v1/climate/{district}/monthly-risk.
func (h *ClimateHandler) MonthlyRisk(w http.ResponseWriter, r *http.Request) {
	district := chi.URLParam(r, "district")
	monthly, err := h.svc.MonthlyRisk(r.Context(), district)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"district": district,
		"monthly":  monthly,
	})
}

// ExtremeEvents handles GET /v1/climate/{district}/extreme-events?thresholdMm=100.
func (h *ClimateHandler) ExtremeEvents(w http.ResponseWriter, r *http.Request) {
	threshold, ok := thresholdParam(w, r)
	if !ok {
		return
	}

	district := chi.URLParam(r, "district")
	events, err := h.svc.ExtremeEvents(r.Context(), district, threshold)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"district": district,
		"events":   events,
		"count":    len(events),
	})
}
