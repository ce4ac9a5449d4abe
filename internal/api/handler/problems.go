// Package handler provides HTTP handlers for the FloodWatch API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/intel"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/river"
)

// writeDomainError maps domain sentinel errors onto problem responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, region.ErrUnknownRegion),
		errors.Is(err, region.ErrUnknownDistrict),
		errors.Is(err, river.ErrStationNotFound),
		errors.Is(err, river.ErrUnknownProvider):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, region.ErrEmptyRegionID),
		errors.Is(err, river.ErrNotSupported),
		errors.Is(err, intel.ErrUnknownTier):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, cache.ErrEmpty):
		response.ServiceUnavailable(w, r, err.Error())
	default:
		response.InternalError(w, r, err.Error())
	}
}

// queryFloat parses a required float query parameter. The bool reports
// whether parsing succeeded; on failure a problem response was written.
func queryFloat(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		response.BadRequest(w, r, "missing required query parameter: "+name, nil)
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		response.BadRequest(w, r, name+" must be a number", nil)
		return 0, false
	}
	return v, true
}

// queryInt parses an optional integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
