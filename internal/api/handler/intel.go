package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floodwatch/floodwatch/internal/api/models"
	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/intel"
)

// IntelHandler handles emergency intelligence endpoints.
type IntelHandler struct {
	svc *intel.Service
}

// NewIntelHandler creates a new IntelHandler.
func NewIntelHandler(svc *intel.Service) *IntelHandler {
	return &IntelHandler{svc: svc}
}

// Priorities handles GET /v1/intel/priorities?limit=50&district=Colombo&tier=CRITICAL.
func (h *IntelHandler) Priorities(w http.ResponseWriter, r *http.Request) {
	var tier intel.Tier
	if raw := r.URL.Query().Get("tier"); raw != "" {
		parsed, err := intel.ParseTier(raw)
		if err != nil {
			response.BadRequest(w, r, err.Error(), []models.FieldError{
				{Field: "tier", Message: "must be one of LOW, MEDIUM, HIGH, CRITICAL"},
			})
			return
		}
		tier = parsed
	}

	limit := queryInt(r, "limit", 0)
	district := r.URL.Query().Get("district")

	priorities, info, err := h.svc.Priorities(r.Context(), limit, district, tier)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"priorities": priorities,
		"count":      len(priorities),
		"cache":      info,
	})
}

// Clusters handles GET /v1/intel/clusters?district=Colombo.
func (h *IntelHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	clusters, info, err := h.svc.Clusters(r.Context(), r.URL.Query().Get("district"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"clusters": clusters,
		"count":    len(clusters),
		"cache":    info,
	})
}

// Summary handles GET /v1/intel/summary.
func (h *IntelHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, info, err := h.svc.Summary(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"summary": summary,
		"cache":   info,
	})
}

// Actions handles GET /v1/intel/actions - the recommended action plan.
func (h *IntelHandler) Actions(w http.ResponseWriter, r *http.Request) {
	actions, info, err := h.svc.Actions(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"actions": actions,
		"count":   len(actions),
		"cache":   info,
	})
}

// District handles GET /v1/intel/districts/{district}.
func (h *IntelHandler) District(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.District(r.Context(), chi.URLParam(r, "district"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, detail)
}

// Refresh handles POST /v1/intel/refresh - forces a fresh analysis cycle.
func (h *IntelHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snapshot, info, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"analysis": snapshot,
		"cache":    info,
	})
}
