package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/weather"
)

// WeatherHandler handles district weather endpoints.
type WeatherHandler struct {
	svc *weather.Service
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(svc *weather.Service) *WeatherHandler {
	return &WeatherHandler{svc: svc}
}

// All handles GET /v1/weather - observations for every district.
func (h *WeatherHandler) All(w http.ResponseWriter, r *http.Request) {
	observations, info, err := h.svc.All(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"districts": observations,
		"count":     len(observations),
		"cache":     info,
	})
}

// District handles GET /v1/weather/{district}.
func (h *WeatherHandler) District(w http.ResponseWriter, r *http.Request) {
	obs, err := h.svc.District(r.Context(), chi.URLParam(r, "district"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, obs)
}

// Rainfall handles GET /v1/weather/rainfall?hours=24. Valid windows are
// 24, 48, and 72 hours.
func (h *WeatherHandler) Rainfall(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	if hours != 24 && hours != 48 && hours != 72 {
		response.BadRequest(w, r, "hours must be 24, 48 or 72", nil)
		return
	}

	rainfall, err := h.svc.Rainfall(r.Context(), hours)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"hours":     hours,
		"districts": rainfall,
		"count":     len(rainfall),
	})
}

// Forecast handles GET /v1/weather/forecast - districts with daily forecasts.
func (h *WeatherHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	forecasts, err := h.svc.Forecasts(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"districts": forecasts,
		"count":     len(forecasts),
	})
}

// Refresh handles POST /v1/weather/refresh.
func (h *WeatherHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cache().Refresh(r.Context(), true); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.svc.Cache().Info())
}
