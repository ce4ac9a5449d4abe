package river

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/pkg/geo"
)

// ServiceConfig holds configuration for the river service.
type ServiceConfig struct {
	// Factory dispatches providers by name, region, and bounds (required).
	Factory *Factory

	// CurrentRegion is the region whose stations are cached (required).
	CurrentRegion string

	// TTL is the cache freshness window. Default: 5m.
	TTL time.Duration

	// Freeze pins the cache to its current value.
	Freeze bool

	// SnapshotPath enables disk persistence of the station cache.
	SnapshotPath string

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service is the high-level river data entry point: a TTL-gated station
// cache for the configured region, plus pass-through queries by region,
// bounds, and station.
type Service struct {
	factory       *Factory
	currentRegion string
	cache         *cache.Cache[[]Station]
	logger        zerolog.Logger
}

// NewService creates a river service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	s := &Service{
		factory:       cfg.Factory,
		currentRegion: cfg.CurrentRegion,
		logger:        cfg.Logger,
	}

	s.cache = cache.New(cache.Config[[]Station]{
		Name:         "river_levels",
		TTL:          ttl,
		Fetch:        s.fetchCurrentRegion,
		Freeze:       cfg.Freeze,
		SnapshotPath: cfg.SnapshotPath,
		Logger:       cfg.Logger,
	})

	return s
}

// Cache exposes the underlying station cache for the scheduler.
func (s *Service) Cache() *cache.Cache[[]Station] { return s.cache }

// fetchCurrentRegion pulls stations from every provider configured for the
// current region. A provider failure is logged and skipped; the fetch fails
// only when no provider produced any stations.
func (s *Service) fetchCurrentRegion(ctx context.Context) ([]Station, error) {
	providers, err := s.factory.ProvidersForRegion(s.currentRegion)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no river providers configured for region %s", s.currentRegion)
	}

	var all []Station
	var lastErr error
	for _, p := range providers {
		stations, err := p.FetchStations(ctx, nil)
		if err != nil {
			if !errors.Is(err, ErrNotSupported) {
				lastErr = err
				s.logger.Warn().Err(err).Str("provider", p.Name()).Msg("river provider fetch failed")
			}
			continue
		}
		all = append(all, stations...)
	}

	if len(all) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all river providers failed: %w", lastErr)
	}
	return all, nil
}

// Stations returns the cached station list for the current region, refreshing
// first when the TTL has lapsed.
func (s *Service) Stations(ctx context.Context) ([]Station, cache.Info, error) {
	if err := s.cache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		// Stale data with an error note beats no data.
		s.logger.Warn().Err(err).Msg("river refresh failed, serving cached stations")
	}

	stations, err := s.cache.Value()
	if err != nil {
		return nil, s.cache.Info(), err
	}
	return stations, s.cache.Info(), nil
}

// StationsByRegion returns stations for any configured region. The current
// region is served from cache; other regions are fetched directly.
func (s *Service) StationsByRegion(ctx context.Context, regionID string) ([]Station, error) {
	if regionID == s.currentRegion {
		stations, _, err := s.Stations(ctx)
		return stations, err
	}

	providers, err := s.factory.ProvidersForRegion(regionID)
	if err != nil {
		return nil, err
	}

	var all []Station
	for _, p := range providers {
		stations, err := p.FetchStations(ctx, nil)
		if err != nil {
			if !errors.Is(err, ErrNotSupported) {
				s.logger.Warn().Err(err).Str("provider", p.Name()).Msg("river provider fetch failed")
			}
			continue
		}
		all = append(all, stations...)
	}
	return all, nil
}

// StationsByBounds returns stations within a bounding box, dispatching to
// every provider whose region intersects it.
func (s *Service) StationsByBounds(ctx context.Context, bounds geo.BoundingBox) ([]Station, error) {
	var all []Station
	for _, p := range s.factory.ProvidersForBounds(bounds) {
		stations, err := p.FetchStations(ctx, &bounds)
		if err != nil {
			if !errors.Is(err, ErrNotSupported) {
				s.logger.Warn().Err(err).Str("provider", p.Name()).Msg("river provider fetch failed")
			}
			continue
		}
		all = append(all, stations...)
	}
	return all, nil
}

// StationReading returns the latest reading for one station, trying each of
// the region's providers in order.
func (s *Service) StationReading(ctx context.Context, regionID, stationID string) (*Reading, error) {
	providers, err := s.factory.ProvidersForRegion(regionID)
	if err != nil {
		return nil, err
	}

	for _, p := range providers {
		reading, err := p.FetchStationReading(ctx, stationID)
		if err != nil {
			continue
		}
		return reading, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrStationNotFound, stationID)
}

// History aggregates historical readings across the region's providers.
// Providers without history support are skipped.
func (s *Service) History(ctx context.Context, regionID, stationID string, hours int) ([]Reading, error) {
	providers, err := s.factory.ProvidersForRegion(regionID)
	if err != nil {
		return nil, err
	}

	var all []Reading
	for _, p := range providers {
		readings, err := p.FetchHistory(ctx, stationID, hours)
		if err != nil {
			if !errors.Is(err, ErrNotSupported) {
				s.logger.Warn().Err(err).Str("provider", p.Name()).Msg("river history fetch failed")
			}
			continue
		}
		all = append(all, readings...)
	}
	return all, nil
}

// StationsForDistrict returns cached stations whose rivers affect the given
// district.
func (s *Service) StationsForDistrict(ctx context.Context, district string) ([]Station, error) {
	stations, _, err := s.Stations(ctx)
	if err != nil {
		return nil, err
	}

	var out []Station
	for _, st := range stations {
		for _, d := range st.Districts {
			if strings.EqualFold(d, district) {
				out = append(out, st)
				break
			}
		}
	}
	return out, nil
}

// Summary returns status counts over the cached station list.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	stations, _, err := s.Stations(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(stations), nil
}

// ProviderHealth probes every registered provider.
func (s *Service) ProviderHealth(ctx context.Context) []ProviderHealth {
	return s.factory.HealthAll(ctx)
}
