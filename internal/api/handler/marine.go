package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/marine"
)

// MarineHandler handles coastal marine condition endpoints.
type MarineHandler struct {
	svc *marine.Service
}

// NewMarineHandler creates a new MarineHandler.
func NewMarineHandler(svc *marine.Service) *MarineHandler {
	return &MarineHandler{svc: svc}
}

// All handles GET /v1/marine - conditions for every coastal district.
func (h *MarineHandler) All(w http.ResponseWriter, r *http.Request) {
	conditions, info, err := h.svc.All(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	summary, _ := h.svc.Summary(r.Context())
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"districts": conditions,
		"summary":   summary,
		"count":     len(conditions),
		"cache":     info,
	})
}

// District handles GET /v1/marine/{district}.
func (h *MarineHandler) District(w http.ResponseWriter, r *http.Request) {
	conditions, err := h.svc.District(r.Context(), chi.URLParam(r, "district"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, conditions)
}

// Refresh handles POST /v1/marine/refresh.
func (h *MarineHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cache().Refresh(r.Context(), true); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.svc.Cache().Info())
}
