package weather

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/region"
)

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Primary is the first-choice weather provider (required).
	Primary Provider

	// Fallback is used when the primary fails entirely (optional).
	Fallback Provider

	// Regions resolves districts and rainfall alert bands (required).
	Regions *region.Registry

	// CurrentRegion is the region whose districts are fetched (required).
	CurrentRegion string

	// TTL is the cache freshness window. Default: 60m.
	TTL time.Duration

	// Freeze pins the cache to its current value.
	Freeze bool

	// SnapshotPath enables disk persistence of the weather cache.
	SnapshotPath string

	// Logger for service operations.
	Logger zerolog.Logger
}

// DistrictRainfall is the per-district rainfall view for one accumulation
// window, with the region's alert band applied.
type DistrictRainfall struct {
	District    string            `json:"district"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	RainfallMm  float64           `json:"rainfallMm"`
	Hours       int               `json:"hours"`
	AlertLevel  region.AlertLevel `json:"alertLevel"`
	DangerLevel DangerLevel       `json:"dangerLevel"`
	DangerScore int               `json:"dangerScore"`
}

// Service is the district weather fetcher: primary provider with fallback,
// TTL-gated cache, and derived danger scoring.
type Service struct {
	primary       Provider
	fallback      Provider
	regions       *region.Registry
	currentRegion string
	cache         *cache.Cache[[]DistrictWeather]
	logger        zerolog.Logger
}

// NewService creates a weather service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 60 * time.Minute
	}

	s := &Service{
		primary:       cfg.Primary,
		fallback:      cfg.Fallback,
		regions:       cfg.Regions,
		currentRegion: cfg.CurrentRegion,
		logger:        cfg.Logger,
	}

	s.cache = cache.New(cache.Config[[]DistrictWeather]{
		Name:         "weather_observations",
		TTL:          ttl,
		Fetch:        s.fetch,
		Freeze:       cfg.Freeze,
		SnapshotPath: cfg.SnapshotPath,
		Logger:       cfg.Logger,
	})

	return s
}

// Cache exposes the underlying cache for the scheduler.
func (s *Service) Cache() *cache.Cache[[]DistrictWeather] { return s.cache }

// fetch runs one cycle against the primary provider, falling over to the
// secondary when the primary returns nothing usable. Danger scoring is
// recomputed here so every source shares the same thresholds.
func (s *Service) fetch(ctx context.Context) ([]DistrictWeather, error) {
	districts, err := s.regions.Districts(s.currentRegion)
	if err != nil {
		return nil, err
	}
	if len(districts) == 0 {
		return nil, fmt.Errorf("no districts configured for region %s", s.currentRegion)
	}

	snapshots, err := s.primary.FetchDistricts(ctx, districts)
	if err != nil || len(snapshots) == 0 {
		if s.fallback == nil {
			if err == nil {
				err = fmt.Errorf("provider %s returned no districts", s.primary.Name())
			}
			return nil, err
		}

		s.logger.Warn().Err(err).
			Str("primary", s.primary.Name()).
			Str("fallback", s.fallback.Name()).
			Msg("primary weather provider failed, using fallback")

		snapshots, err = s.fallback.FetchDistricts(ctx, districts)
		if err != nil {
			return nil, fmt.Errorf("both weather providers failed: %w", err)
		}
	}

	now := time.Now().UTC()
	for i := range snapshots {
		w := &snapshots[i]
		w.DangerScore, w.DangerLevel, w.DangerFactors = ComputeDanger(
			w.Rainfall24hMm, w.PrecipProb, w.WindSpeedKmh)
		if w.FetchedAt.IsZero() {
			w.FetchedAt = now
		}
	}

	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].District < snapshots[j].District })
	return snapshots, nil
}

// All returns the cached per-district weather, refreshing first when stale.
func (s *Service) All(ctx context.Context) ([]DistrictWeather, cache.Info, error) {
	if err := s.cache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("weather refresh failed, serving cached snapshot")
	}

	snapshots, err := s.cache.Value()
	if err != nil {
		return nil, s.cache.Info(), err
	}
	return snapshots, s.cache.Info(), nil
}

// District returns the cached snapshot for one district.
func (s *Service) District(ctx context.Context, name string) (DistrictWeather, error) {
	snapshots, _, err := s.All(ctx)
	if err != nil {
		return DistrictWeather{}, err
	}

	for _, w := range snapshots {
		if strings.EqualFold(w.District, name) {
			return w, nil
		}
	}
	return DistrictWeather{}, fmt.Errorf("%w: %s", region.ErrUnknownDistrict, name)
}

// Rainfall returns the per-district rainfall view for a 24/48/72h window
// with alert bands applied from the region configuration.
func (s *Service) Rainfall(ctx context.Context, hours int) ([]DistrictRainfall, error) {
	snapshots, _, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]DistrictRainfall, 0, len(snapshots))
	for _, w := range snapshots {
		rainfall := w.RainfallForHours(hours)
		level, err := s.regions.AlertLevel(s.currentRegion, rainfall)
		if err != nil {
			return nil, err
		}
		out = append(out, DistrictRainfall{
			District:    w.District,
			Latitude:    w.Latitude,
			Longitude:   w.Longitude,
			RainfallMm:  rainfall,
			Hours:       hours,
			AlertLevel:  level,
			DangerLevel: w.DangerLevel,
			DangerScore: w.DangerScore,
		})
	}
	return out, nil
}

// Forecasts returns the districts that carry a daily forecast.
func (s *Service) Forecasts(ctx context.Context) ([]DistrictWeather, error) {
	snapshots, _, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	var out []DistrictWeather
	for _, w := range snapshots {
		if len(w.ForecastDaily) > 0 {
			out = append(out, w)
		}
	}
	return out, nil
}
