package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floodwatch/floodwatch/internal/api/models"
	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/river"
	"github.com/floodwatch/floodwatch/pkg/geo"
)

// RiverHandler handles river gauge endpoints.
type RiverHandler struct {
	svc *river.Service
}

// NewRiverHandler creates a new RiverHandler.
func NewRiverHandler(svc *river.Service) *RiverHandler {
	return &RiverHandler{svc: svc}
}

// ListStations handles GET /v1/rivers - all stations for the current region.
func (h *RiverHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, info, err := h.svc.Stations(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"stations": stations,
		"summary":  river.Summarize(stations),
		"count":    len(stations),
		"cache":    info,
	})
}

// StationsByRegion handles GET /v1/regions/{regionId}/rivers.
func (h *RiverHandler) StationsByRegion(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "regionId")
	stations, err := h.svc.StationsByRegion(r.Context(), regionID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"regionId": regionID,
		"stations": stations,
		"count":    len(stations),
	})
}

// StationsByBounds handles GET /v1/rivers/bbox?minLat=&minLon=&maxLat=&maxLon=.
func (h *RiverHandler) StationsByBounds(w http.ResponseWriter, r *http.Request) {
	minLat, ok := queryFloat(w, r, "minLat")
	if !ok {
		return
	}
	minLon, ok := queryFloat(w, r, "minLon")
	if !ok {
		return
	}
	maxLat, ok := queryFloat(w, r, "maxLat")
	if !ok {
		return
	}
	maxLon, ok := queryFloat(w, r, "maxLon")
	if !ok {
		return
	}

	bounds := geo.BoundingBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	if !bounds.IsValid() {
		response.BadRequest(w, r, "bounding box is degenerate or out of range", []models.FieldError{
			{Field: "minLat", Message: "must not exceed maxLat", Code: "OUT_OF_RANGE"},
			{Field: "minLon", Message: "must not exceed maxLon", Code: "OUT_OF_RANGE"},
		})
		return
	}

	stations, err := h.svc.StationsByBounds(r.Context(), bounds)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"bounds":   bounds,
		"stations": stations,
		"count":    len(stations),
	})
}

// StationReading handles GET /v1/regions/{regionId}/rivers/{stationId}.
func (h *RiverHandler) StationReading(w http.ResponseWriter, r *http.Request) {
	reading, err := h.svc.StationReading(r.Context(), chi.URLParam(r, "regionId"), chi.URLParam(r, "stationId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, reading)
}

// StationHistory handles GET /v1/regions/{regionId}/rivers/{stationId}/history?hours=24.
func (h *RiverHandler) StationHistory(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	if hours <= 0 || hours > 168 {
		response.BadRequest(w, r, "hours must be between 1 and 168", nil)
		return
	}

	regionID := chi.URLParam(r, "regionId")
	stationID := chi.URLParam(r, "stationId")
	readings, err := h.svc.History(r.Context(), regionID, stationID, hours)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"stationId": stationID,
		"hours":     hours,
		"readings":  readings,
		"count":     len(readings),
	})
}

// ProviderHealth handles GET /v1/rivers/providers/health.
func (h *RiverHandler) ProviderHealth(w http.ResponseWriter, r *http.Request) {
	health := h.svc.ProviderHealth(r.Context())
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"providers": health,
		"count":     len(health),
	})
}

// Refresh handles POST /v1/rivers/refresh - forces a cache refresh.
func (h *RiverHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cache().Refresh(r.Context(), true); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.svc.Cache().Info())
}
