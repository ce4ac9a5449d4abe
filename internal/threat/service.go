package threat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/river"
	"github.com/floodwatch/floodwatch/internal/weather"
)

// WeatherSource is the slice of the weather service the engine reads.
// Reading it refreshes the weather cache first when stale.
type WeatherSource interface {
	All(ctx context.Context) ([]weather.DistrictWeather, cache.Info, error)
}

// RiverSource is the slice of the river service the engine reads.
type RiverSource interface {
	Stations(ctx context.Context) ([]river.Station, cache.Info, error)
}

// ServiceConfig holds configuration for the threat service.
type ServiceConfig struct {
	// Weather supplies per-district observations and forecasts (required).
	Weather WeatherSource

	// Rivers supplies gauge stations (required).
	Rivers RiverSource

	// Regions resolves rainfall alert bands (required).
	Regions *region.Registry

	// CurrentRegion is the region whose alert thresholds apply (required).
	CurrentRegion string

	// TTL is the cache freshness window. Default: 30m.
	TTL time.Duration

	// Freeze pins the cache to its current value.
	Freeze bool

	// SnapshotPath enables disk persistence of the assessment.
	SnapshotPath string

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service serves the cached national threat assessment. It never fetches
// upstream itself: the weather and river caches are the only inputs.
type Service struct {
	weather       WeatherSource
	rivers        RiverSource
	regions       *region.Registry
	currentRegion string
	cache         *cache.Cache[Snapshot]
	logger        zerolog.Logger
}

// NewService creates a threat service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	s := &Service{
		weather:       cfg.Weather,
		rivers:        cfg.Rivers,
		regions:       cfg.Regions,
		currentRegion: cfg.CurrentRegion,
		logger:        cfg.Logger,
	}

	s.cache = cache.New(cache.Config[Snapshot]{
		Name:         "flood_threat",
		TTL:          ttl,
		Fetch:        s.compute,
		Freeze:       cfg.Freeze,
		SnapshotPath: cfg.SnapshotPath,
		Logger:       cfg.Logger,
	})

	return s
}

// Cache exposes the underlying cache for the scheduler.
func (s *Service) Cache() *cache.Cache[Snapshot] { return s.cache }

// compute runs one assessment cycle. Reading the sources refreshes their
// caches first when stale, so the snapshot never scores against data older
// than the source TTLs. Missing river data degrades to weather-only scoring;
// missing weather data fails the cycle since there is nothing to score.
func (s *Service) compute(ctx context.Context) (Snapshot, error) {
	observations, _, err := s.weather.All(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("weather unavailable for threat assessment: %w", err)
	}

	stations, _, err := s.rivers.Stations(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("river data unavailable, scoring threat on weather only")
		stations = nil
	}

	snapshot := Compute(Input{
		Weather:  observations,
		Stations: stations,
		AlertLevelFor: func(rainfallMm float64) region.AlertLevel {
			level, err := s.regions.AlertLevel(s.currentRegion, rainfallMm)
			if err != nil {
				return region.AlertGreen
			}
			return level
		},
	}, time.Now().UTC())

	return snapshot, nil
}

// Assessment returns the cached national assessment, refreshing first when
// stale.
func (s *Service) Assessment(ctx context.Context) (Snapshot, cache.Info, error) {
	if err := s.cache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("threat refresh failed, serving cached assessment")
	}

	snapshot, err := s.cache.Value()
	if err != nil {
		return Snapshot{}, s.cache.Info(), err
	}
	return snapshot, s.cache.Info(), nil
}

// District returns the cached assessment for one district.
func (s *Service) District(ctx context.Context, name string) (DistrictThreat, error) {
	snapshot, _, err := s.Assessment(ctx)
	if err != nil {
		return DistrictThreat{}, err
	}

	for _, t := range snapshot.AllDistricts {
		if strings.EqualFold(t.District, name) {
			return t, nil
		}
	}
	return DistrictThreat{}, fmt.Errorf("%w: %s", region.ErrUnknownDistrict, name)
}
