package handler

import (
	"errors"
	"net/http"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/facilities"
	"github.com/floodwatch/floodwatch/pkg/geo"
)

// FacilitiesHandler handles emergency facility endpoints.
type FacilitiesHandler struct {
	svc *facilities.Service
}

// NewFacilitiesHandler creates a new FacilitiesHandler.
func NewFacilitiesHandler(svc *facilities.Service) *FacilitiesHandler {
	return &FacilitiesHandler{svc: svc}
}

// All handles GET /v1/facilities - every known emergency facility.
func (h *FacilitiesHandler) All(w http.ResponseWriter, r *http.Request) {
	all, info, err := h.svc.All(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"facilities": all,
		"summary":    facilities.Summarize(all),
		"count":      len(all),
		"cache":      info,
	})
}

// Nearby handles GET /v1/facilities/nearby?lat=&lon=&radiusKm=10&limit=5.
func (h *FacilitiesHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, ok := queryFloat(w, r, "lat")
	if !ok {
		return
	}
	lon, ok := queryFloat(w, r, "lon")
	if !ok {
		return
	}
	if !geo.ValidateCoordinates(lat, lon) {
		response.BadRequest(w, r, "coordinates out of range", nil)
		return
	}

	radiusKm := 10.0
	if raw := r.URL.Query().Get("radiusKm"); raw != "" {
		v, ok := queryFloat(w, r, "radiusKm")
		if !ok {
			return
		}
		radiusKm = v
	}
	if radiusKm <= 0 || radiusKm > 100 {
		response.BadRequest(w, r, "radiusKm must be between 0 and 100", nil)
		return
	}
	limit := queryInt(r, "limit", 5)

	nearby, err := h.svc.Nearby(r.Context(), lat, lon, radiusKm, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"lat":        lat,
		"lon":        lon,
		"radiusKm":   radiusKm,
		"facilities": nearby,
	})
}

// NearestHospital handles GET /v1/facilities/nearest-hospital?lat=&lon=.
func (h *FacilitiesHandler) NearestHospital(w http.ResponseWriter, r *http.Request) {
	lat, ok := queryFloat(w, r, "lat")
	if !ok {
		return
	}
	lon, ok := queryFloat(w, r, "lon")
	if !ok {
		return
	}
	if !geo.ValidateCoordinates(lat, lon) {
		response.BadRequest(w, r, "coordinates out of range", nil)
		return
	}

	hospital, err := h.svc.NearestHospital(r.Context(), lat, lon)
	if errors.Is(err, facilities.ErrNoHospitals) {
		response.NotFound(w, r, err.Error())
		return
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, hospital)
}

// Refresh handles POST /v1/facilities/refresh.
func (h *FacilitiesHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cache().Refresh(r.Context(), true); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.svc.Cache().Info())
}
