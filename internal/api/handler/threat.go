package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/threat"
)

// ThreatHandler handles flood threat assessment endpoints.
type ThreatHandler struct {
	svc *threat.Service
}

// NewThreatHandler creates a new ThreatHandler.
func NewThreatHandler(svc *threat.Service) *ThreatHandler {
	return &ThreatHandler{svc: svc}
}

// Assessment handles GET /v1/threat - the national threat snapshot.
func (h *ThreatHandler) Assessment(w http.ResponseWriter, r *http.Request) {
	snapshot, info, err := h.svc.Assessment(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"assessment": snapshot,
		"cache":      info,
	})
}

// District handles GET /v1/threat/{district}.
func (h *ThreatHandler) District(w http.ResponseWriter, r *http.Request) {
	district, err := h.svc.District(r.Context(), chi.URLParam(r, "district"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, district)
}

// Refresh handles POST /v1/threat/refresh.
func (h *ThreatHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cache().Refresh(r.Context(), true); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.svc.Cache().Info())
}
