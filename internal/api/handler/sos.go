package handler

import (
	"context"
	"net/http"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/sos"
)

// ReportSource fetches raw distress reports from the crowdsource feed.
type ReportSource interface {
	Name() string
	FetchReports(ctx context.Context, limit int) ([]sos.Report, error)
}

// SOSHandler serves the raw distress report feed. Scoring and clustering
// live under /v1/intel.
type SOSHandler struct {
	source ReportSource
}

// NewSOSHandler creates a new SOSHandler.
func NewSOSHandler(source ReportSource) *SOSHandler {
	return &SOSHandler{source: source}
}

// Reports handles GET /v1/sos/reports?limit=50.
func (h *SOSHandler) Reports(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit <= 0 || limit > 200 {
		response.BadRequest(w, r, "limit must be between 1 and 200", nil)
		return
	}

	reports, err := h.source.FetchReports(r.Context(), limit)
	if err != nil {
		response.ServiceUnavailable(w, r, "crowdsource feed unavailable: "+err.Error())
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"source":  h.source.Name(),
		"reports": reports,
		"count":   len(reports),
	})
}
