package handler

import (
	"net/http"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/environmental"
)

// EnvironmentalHandler handles environmental indicator endpoints.
type EnvironmentalHandler struct {
	svc *environmental.Service
}

// NewEnvironmentalHandler creates a new EnvironmentalHandler.
func NewEnvironmentalHandler(svc *environmental.Service) *EnvironmentalHandler {
	return &EnvironmentalHandler{svc: svc}
}

// Trends handles GET /v1/environmental/trends.
func (h *EnvironmentalHandler) Trends(w http.ResponseWriter, r *http.Request) {
	trends, info, err := h.svc.Trends(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"trends": trends,
		"cache":  info,
	})
}

// Correlation handles GET /v1/environmental/flood-correlation.
func (h *EnvironmentalHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	factors, err := h.svc.Correlation(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, factors)
}

// Refresh handles POST /v1/environmental/refresh.
func (h *EnvironmentalHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cache().Refresh(r.Context(), true); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.svc.Cache().Info())
}
