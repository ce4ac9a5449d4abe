package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/storage"
	"github.com/floodwatch/floodwatch/internal/weather"
)

// WeatherLogStore is the slice of the append store the district overlay reads.
type WeatherLogStore interface {
	LatestWeatherLogs(ctx context.Context) (map[string]storage.WeatherLog, error)
}

// LiveWeather is the fallback for districts without a persisted log.
type LiveWeather interface {
	All(ctx context.Context) ([]weather.DistrictWeather, cache.Info, error)
}

// RegionHandler handles region and district endpoints.
type RegionHandler struct {
	registry *region.Registry
	store    WeatherLogStore
	weather  LiveWeather
	logger   zerolog.Logger
}

// NewRegionHandler creates a new RegionHandler. store and live may be nil;
// the district overlay then degrades to thresholds-only output.
func NewRegionHandler(registry *region.Registry, store WeatherLogStore, live LiveWeather, logger zerolog.Logger) *RegionHandler {
	return &RegionHandler{registry: registry, store: store, weather: live, logger: logger}
}

// ListRegions handles GET /v1/regions.
func (h *RegionHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions := h.registry.List()
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"regions": regions,
		"count":   len(regions),
	})
}

// ListActiveRegions handles GET /v1/regions/active.
func (h *RegionHandler) ListActiveRegions(w http.ResponseWriter, r *http.Request) {
	regions := h.registry.ListActive()
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"regions": regions,
		"count":   len(regions),
	})
}

// GetRegion handles GET /v1/regions/{regionId}.
func (h *RegionHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registry.Get(chi.URLParam(r, "regionId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, reg)
}

// AlertLevel handles GET /v1/regions/{regionId}/alert-level?rainfallMm=N.
func (h *RegionHandler) AlertLevel(w http.ResponseWriter, r *http.Request) {
	rainfall, ok := queryFloat(w, r, "rainfallMm")
	if !ok {
		return
	}

	regionID := chi.URLParam(r, "regionId")
	level, err := h.registry.AlertLevel(regionID, rainfall)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"regionId":   regionID,
		"rainfallMm": rainfall,
		"alertLevel": level,
	})
}

// Reload handles POST /v1/regions/reload.
func (h *RegionHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Reload(); err != nil {
		h.logger.Error().Err(err).Msg("region reload failed, previous config retained")
		response.InternalError(w, r, "reload failed: "+err.Error())
		return
	}
	h.logger.Info().Msg("region configuration reloaded")
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"regions":  len(h.registry.List()),
	})
}

// DistrictStatus is a district with its latest rainfall observation applied.
type DistrictStatus struct {
	region.District
	AlertLevel region.AlertLevel `json:"alertLevel"`
	RainfallMm *float64          `json:"rainfallMm,omitempty"`
	ObservedAt *time.Time        `json:"observedAt,omitempty"`
	Source     string            `json:"source,omitempty"`
}

// ListDistricts handles GET /v1/regions/{regionId}/districts. Each district
// carries the alert level from its most recent persisted weather log, with a
// live observation as fallback.
func (h *RegionHandler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "regionId")
	districts, err := h.registry.Districts(regionID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	logs := h.latestLogs(r.Context())
	live := h.liveWeather(r.Context(), regionID)

	out := make([]DistrictStatus, 0, len(districts))
	for _, d := range districts {
		status := DistrictStatus{District: d, AlertLevel: region.AlertGreen}
		key := strings.ToLower(d.Name)

		if log, ok := logs[key]; ok {
			rainfall := log.RainfallMm
			observed := log.RecordedAt
			status.AlertLevel = log.AlertLevel
			status.RainfallMm = &rainfall
			status.ObservedAt = &observed
			status.Source = "log"
		} else if obs, ok := live[key]; ok {
			rainfall := obs.Rainfall24hMm
			observed := obs.FetchedAt
			if level, err := h.registry.AlertLevel(regionID, rainfall); err == nil {
				status.AlertLevel = level
			}
			status.RainfallMm = &rainfall
			status.ObservedAt = &observed
			status.Source = "live"
		}

		out = append(out, status)
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"regionId":  regionID,
		"districts": out,
		"count":     len(out),
	})
}

func (h *RegionHandler) latestLogs(ctx context.Context) map[string]storage.WeatherLog {
	if h.store == nil {
		return nil
	}
	logs, err := h.store.LatestWeatherLogs(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("weather log lookup failed, district overlay degrades to live data")
		return nil
	}
	return logs
}

func (h *RegionHandler) liveWeather(ctx context.Context, regionID string) map[string]weather.DistrictWeather {
	if h.weather == nil {
		return nil
	}
	observations, _, err := h.weather.All(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Str("region", regionID).Msg("live weather unavailable for district overlay")
		return nil
	}
	out := make(map[string]weather.DistrictWeather, len(observations))
	for _, obs := range observations {
		out[strings.ToLower(obs.District)] = obs
	}
	return out
}
