package handler

import (
	"errors"
	"net/http"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/traffic"
)

// TrafficHandler handles road traffic endpoints.
type TrafficHandler struct {
	svc *traffic.Service
}

// NewTrafficHandler creates a new TrafficHandler.
func NewTrafficHandler(svc *traffic.Service) *TrafficHandler {
	return &TrafficHandler{svc: svc}
}

var knownSeverities = map[traffic.Severity]bool{
	traffic.SeverityMinor:    true,
	traffic.SeverityModerate: true,
	traffic.SeverityMajor:    true,
	traffic.SeverityCritical: true,
	traffic.SeverityUnknown:  true,
}

// Incidents handles GET /v1/traffic/incidents?category=flooding&severity=major.
func (h *TrafficHandler) Incidents(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	rawSeverity := r.URL.Query().Get("severity")

	if rawSeverity != "" && !knownSeverities[traffic.Severity(rawSeverity)] {
		response.BadRequest(w, r, "unknown severity: "+rawSeverity, nil)
		return
	}

	incidents, info, err := h.svc.Incidents(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if category != "" {
		incidents = traffic.FilterByCategory(incidents, category)
	}
	if rawSeverity != "" {
		incidents = traffic.FilterBySeverity(incidents, traffic.Severity(rawSeverity))
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"incidents": incidents,
		"summary":   traffic.SummarizeIncidents(incidents),
		"count":     len(incidents),
		"cache":     info,
	})
}

// Flow handles GET /v1/traffic/flow - congestion on the probe segments.
func (h *TrafficHandler) Flow(w http.ResponseWriter, r *http.Request) {
	segments, info, err := h.svc.Flow(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"segments": segments,
		"summary":  traffic.SummarizeFlow(segments),
		"count":    len(segments),
		"cache":    info,
	})
}

// Refresh handles POST /v1/traffic/refresh - forces both traffic caches.
func (h *TrafficHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	err := errors.Join(
		h.svc.IncidentCache().Refresh(r.Context(), true),
		h.svc.FlowCache().Refresh(r.Context(), true),
	)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"incidents": h.svc.IncidentCache().Info(),
		"flow":      h.svc.FlowCache().Info(),
	})
}
