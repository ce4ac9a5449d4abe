// Package api provides the HTTP API for FloodWatch.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/alerts"
	"github.com/floodwatch/floodwatch/internal/api/handler"
	"github.com/floodwatch/floodwatch/internal/api/middleware"
	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/climate"
	"github.com/floodwatch/floodwatch/internal/earlywarning"
	"github.com/floodwatch/floodwatch/internal/environmental"
	"github.com/floodwatch/floodwatch/internal/facilities"
	"github.com/floodwatch/floodwatch/internal/marine"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/river"
	"github.com/floodwatch/floodwatch/internal/threat"
	"github.com/floodwatch/floodwatch/internal/traffic"
	"github.com/floodwatch/floodwatch/internal/weather"

	intelsvc "github.com/floodwatch/floodwatch/internal/intel"
)

// RouterConfig holds configuration for the router. Services left nil have
// their routes omitted.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	Regions       *region.Registry
	Rivers        *river.Service
	Weather       *weather.Service
	EarlyWarning  *earlywarning.Service
	Alerts        *alerts.Service
	Marine        *marine.Service
	Traffic       *traffic.Service
	Facilities    *facilities.Service
	Climate       *climate.Service
	Environmental *environmental.Service
	Threat        *threat.Service
	Intel         *intelsvc.Service

	SOS        handler.ReportSource
	Store      StoreConfig
	Scheduler  handler.SchedulerControl
	CacheInfos []func() cache.Info
}

// StoreConfig carries the optional persistence reads the API serves.
type StoreConfig struct {
	WeatherLogs handler.WeatherLogStore
	AlertEvents handler.AlertEventStore
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing("floodwatch-api"))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS)
	r.Use(middleware.ContentTypeJSON)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	refreshRateLimit := middleware.RateLimitByIP(middleware.RefreshRateLimit)

	regionHandler := handler.NewRegionHandler(cfg.Regions, cfg.Store.WeatherLogs, liveWeather(cfg.Weather), cfg.Logger)
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Scheduler: cfg.Scheduler,
		Caches:    cfg.CacheInfos,
		Rivers:    riverHealth(cfg.Rivers),
	})

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, unthrottled for load balancers)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
			r.Get("/caches", opsHandler.CacheOverview)
			r.With(refreshRateLimit).Post("/refresh/{source}", opsHandler.RefreshSource)
		})

		// Regions and districts
		r.Route("/regions", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", regionHandler.ListRegions)
			r.Get("/active", regionHandler.ListActiveRegions)
			r.With(refreshRateLimit).Post("/reload", regionHandler.Reload)
			r.Route("/{regionId}", func(r chi.Router) {
				r.Get("/", regionHandler.GetRegion)
				r.Get("/alert-level", regionHandler.AlertLevel)
				r.Get("/districts", regionHandler.ListDistricts)
				if cfg.Rivers != nil {
					riverHandler := handler.NewRiverHandler(cfg.Rivers)
					r.Get("/rivers", riverHandler.StationsByRegion)
					r.Route("/rivers/{stationId}", func(r chi.Router) {
						r.Get("/", riverHandler.StationReading)
						r.Get("/history", riverHandler.StationHistory)
					})
				}
			})
		})

		if cfg.Rivers != nil {
			riverHandler := handler.NewRiverHandler(cfg.Rivers)
			r.Route("/rivers", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", riverHandler.ListStations)
				r.Get("/bbox", riverHandler.StationsByBounds)
				r.Get("/providers/health", riverHandler.ProviderHealth)
				r.With(refreshRateLimit).Post("/refresh", riverHandler.Refresh)
			})
		}

		if cfg.Weather != nil {
			weatherHandler := handler.NewWeatherHandler(cfg.Weather)
			r.Route("/weather", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", weatherHandler.All)
				r.Get("/rainfall", weatherHandler.Rainfall)
				r.Get("/forecast", weatherHandler.Forecast)
				r.With(refreshRateLimit).Post("/refresh", weatherHandler.Refresh)
				r.Get("/{district}", weatherHandler.District)
			})
		}

		if cfg.EarlyWarning != nil {
			ewHandler := handler.NewEarlyWarningHandler(cfg.EarlyWarning)
			r.Route("/early-warning", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", ewHandler.Overview)
				r.Get("/alerts", ewHandler.Alerts)
				r.Get("/high-risk", ewHandler.HighRisk)
				r.With(refreshRateLimit).Post("/refresh", ewHandler.Refresh)
				r.Route("/{district}", func(r chi.Router) {
					r.Get("/", ewHandler.District)
					r.Get("/daily", ewHandler.Daily)
					r.Get("/hourly", ewHandler.Hourly)
				})
			})
		}

		if cfg.Alerts != nil {
			alertHandler := handler.NewAlertHandler(cfg.Alerts, cfg.Store.AlertEvents)
			r.Route("/alerts", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", alertHandler.Active)
				r.Get("/history", alertHandler.History)
				r.With(refreshRateLimit).Post("/refresh", alertHandler.Refresh)
			})
		}

		if cfg.Marine != nil {
			marineHandler := handler.NewMarineHandler(cfg.Marine)
			r.Route("/marine", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", marineHandler.All)
				r.With(refreshRateLimit).Post("/refresh", marineHandler.Refresh)
				r.Get("/{district}", marineHandler.District)
			})
		}

		if cfg.Traffic != nil {
			trafficHandler := handler.NewTrafficHandler(cfg.Traffic)
			r.Route("/traffic", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/incidents", trafficHandler.Incidents)
				r.Get("/flow", trafficHandler.Flow)
				r.With(refreshRateLimit).Post("/refresh", trafficHandler.Refresh)
			})
		}

		if cfg.Facilities != nil {
			facilitiesHandler := handler.NewFacilitiesHandler(cfg.Facilities)
			r.Route("/facilities", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", facilitiesHandler.All)
				r.Get("/nearby", facilitiesHandler.Nearby)
				r.Get("/nearest-hospital", facilitiesHandler.NearestHospital)
				r.With(refreshRateLimit).Post("/refresh", facilitiesHandler.Refresh)
			})
		}

		if cfg.SOS != nil {
			sosHandler := handler.NewSOSHandler(cfg.SOS)
			r.With(standardRateLimit).Get("/sos/reports", sosHandler.Reports)
		}

		if cfg.Climate != nil {
			climateHandler := handler.NewClimateHandler(cfg.Climate)
			r.Route("/climate/{district}", func(r chi.Router) {
				r.Use(expensiveRateLimit)
				r.Get("/patterns", climateHandler.Patterns)
				r.Get("/monthly-risk", climateHandler.MonthlyRisk)
				r.Get("/extreme-events", climateHandler.ExtremeEvents)
			})
		}

		if cfg.Environmental != nil {
			envHandler := handler.NewEnvironmentalHandler(cfg.Environmental)
			r.Route("/environmental", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/trends", envHandler.Trends)
				r.Get("/flood-correlation", envHandler.Correlation)
				r.With(refreshRateLimit).Post("/refresh", envHandler.Refresh)
			})
		}

		if cfg.Threat != nil {
			threatHandler := handler.NewThreatHandler(cfg.Threat)
			r.Route("/threat", func(r chi.Router) {
				r.Use(expensiveRateLimit)
				r.Get("/", threatHandler.Assessment)
				r.With(refreshRateLimit).Post("/refresh", threatHandler.Refresh)
				r.Get("/{district}", threatHandler.District)
			})
		}

		if cfg.Intel != nil {
			intelHandler := handler.NewIntelHandler(cfg.Intel)
			r.Route("/intel", func(r chi.Router) {
				r.Use(expensiveRateLimit)
				r.Get("/priorities", intelHandler.Priorities)
				r.Get("/clusters", intelHandler.Clusters)
				r.Get("/summary", intelHandler.Summary)
				r.Get("/actions", intelHandler.Actions)
				r.Get("/districts/{district}", intelHandler.District)
				r.With(refreshRateLimit).Post("/refresh", intelHandler.Refresh)
			})
		}
	})

	return r
}

// riverHealth adapts a possibly-nil river service to the ops handler
// interface without passing a typed nil.
func riverHealth(svc *river.Service) handler.RiverHealthSource {
	if svc == nil {
		return nil
	}
	return svc
}

// liveWeather adapts a possibly-nil weather service to the district overlay
// interface without passing a typed nil.
func liveWeather(svc *weather.Service) handler.LiveWeather {
	if svc == nil {
		return nil
	}
	return svc
}
