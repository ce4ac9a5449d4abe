package handler

import (
	"context"
	"net/http"

	"github.com/floodwatch/floodwatch/internal/alerts"
	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/storage"
)

// AlertEventStore is the slice of the append store the alert history reads.
type AlertEventStore interface {
	RecentAlertEvents(ctx context.Context, limit int) ([]storage.AlertEvent, error)
}

// AlertHandler handles official weather alert endpoints.
type AlertHandler struct {
	svc   *alerts.Service
	store AlertEventStore
}

// NewAlertHandler creates a new AlertHandler. store may be nil; the history
// endpoint then reports 503.
func NewAlertHandler(svc *alerts.Service, store AlertEventStore) *AlertHandler {
	return &AlertHandler{svc: svc, store: store}
}

// Active handles GET /v1/alerts?severity=Severe - active alerts, optionally
// filtered by severity.
func (h *AlertHandler) Active(w http.ResponseWriter, r *http.Request) {
	rawSeverity := r.URL.Query().Get("severity")

	if rawSeverity != "" {
		severity := alerts.NormalizeSeverity(rawSeverity)
		if severity == alerts.SeverityUnknown && rawSeverity != string(alerts.SeverityUnknown) {
			response.BadRequest(w, r, "unknown severity: "+rawSeverity, nil)
			return
		}

		filtered, err := h.svc.BySeverity(r.Context(), severity)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		response.JSON(w, r, http.StatusOK, map[string]interface{}{
			"severity": severity,
			"alerts":   filtered,
			"count":    len(filtered),
		})
		return
	}

	active, info, err := h.svc.All(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"alerts":  active,
		"summary": alerts.Summarize(active),
		"count":   len(active),
		"cache":   info,
	})
}

// History handles GET /v1/alerts/history?limit=50 - recorded alert events,
// newest first.
func (h *AlertHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.ServiceUnavailable(w, r, "alert history requires the persistence store")
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit <= 0 || limit > 500 {
		response.BadRequest(w, r, "limit must be between 1 and 500", nil)
		return
	}

	events, err := h.store.RecentAlertEvents(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// Refresh handles POST /v1/alerts/refresh.
func (h *AlertHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cache().Refresh(r.Context(), true); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.svc.Cache().Info())
}
