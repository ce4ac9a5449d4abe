// Package config provides the core service configuration loaded from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// CoreConfig holds configuration for the FloodWatch core service.
// Values come from environment variables; a missing API key disables the
// fetcher it belongs to rather than failing startup.
type CoreConfig struct {
	// CurrentRegion selects the active region from the region document.
	CurrentRegion string `env:"CURRENT_REGION" envDefault:"srilanka"`

	// RegionsPath is the path to the region definition document.
	RegionsPath string `env:"REGIONS_PATH" envDefault:"data/regions.json"`

	// DistrictsDir holds per-region district definition documents.
	DistrictsDir string `env:"DISTRICTS_DIR" envDefault:"data/districts"`

	// SnapshotDir is where persistent caches write their disk snapshots.
	SnapshotDir string `env:"CACHE_SNAPSHOT_DIR" envDefault:"cache"`

	// FreezeMode pins every cache to its current value and disables refresh.
	FreezeMode bool `env:"CACHE_FREEZE_MODE" envDefault:"false"`

	// DatabaseURL is the connection string for the sibling log store.
	// Empty disables persistence.
	DatabaseURL string `env:"DATABASE_URL"`

	// Upstream API keys. An empty key disables that source.
	HereAPIKey           string `env:"HERE_API_KEY"`
	TomTomAPIKey         string `env:"TOMTOM_API_KEY"`
	OpenWeatherMapAPIKey string `env:"OPENWEATHERMAP_API_KEY"`
	WeatherAPIKey        string `env:"WEATHERAPI_KEY"`
	SOSAPIBaseURL        string `env:"SOS_API_BASE_URL"`

	// Refresh cadences.
	WeatherTTL       time.Duration `env:"WEATHER_TTL" envDefault:"60m"`
	EarlyWarningTTL  time.Duration `env:"EARLY_WARNING_TTL" envDefault:"120m"`
	AlertsTTL        time.Duration `env:"ALERTS_TTL" envDefault:"15m"`
	MarineTTL        time.Duration `env:"MARINE_TTL" envDefault:"30m"`
	TrafficTTL       time.Duration `env:"TRAFFIC_TTL" envDefault:"5m"`
	RiverTTL         time.Duration `env:"RIVER_TTL" envDefault:"5m"`
	FacilitiesTTL    time.Duration `env:"FACILITIES_TTL" envDefault:"24h"`
	ClimateTTL       time.Duration `env:"CLIMATE_TTL" envDefault:"168h"`
	EnvironmentalTTL time.Duration `env:"ENVIRONMENTAL_TTL" envDefault:"168h"`

	// Aggregator intervals.
	ThreatInterval time.Duration `env:"THREAT_REFRESH_INTERVAL" envDefault:"15m"`
	IntelInterval  time.Duration `env:"INTEL_REFRESH_INTERVAL" envDefault:"5m"`

	// Upstream call timeouts.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	HealthTimeout   time.Duration `env:"HEALTH_PROBE_TIMEOUT" envDefault:"10s"`
	ArchiveTimeout  time.Duration `env:"ARCHIVE_TIMEOUT" envDefault:"120s"`

	// AlertCheckInterval is the cadence for the sibling alert dispatcher;
	// carried here because the scheduler exposes it on the status endpoint.
	AlertCheckIntervalMinutes int `env:"ALERT_CHECK_INTERVAL_MINUTES" envDefault:"15"`
}

// Load parses CoreConfig from the environment.
func Load() (*CoreConfig, error) {
	cfg := &CoreConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
