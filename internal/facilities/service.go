package facilities

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
)

// Provider fetches the full facility set for a region.
type Provider interface {
	Name() string
	FetchFacilities(ctx context.Context) ([]Facility, error)
}

// ServiceConfig holds configuration for the facilities service.
type ServiceConfig struct {
	// Provider is the upstream facilities source (required).
	Provider Provider

	// TTL is the cache freshness window. Default: 24h.
	TTL time.Duration

	// Freeze pins the cache to its current value.
	Freeze bool

	// SnapshotPath enables disk persistence; the facility set barely
	// changes, so a restart should not re-query Overpass.
	SnapshotPath string

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service serves the cached facility set with nearby lookups.
type Service struct {
	provider Provider
	cache    *cache.Cache[[]Facility]
	logger   zerolog.Logger
}

// NewService creates a facilities service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	s := &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}

	s.cache = cache.New(cache.Config[[]Facility]{
		Name:         "osm_facilities",
		TTL:          ttl,
		Fetch:        s.provider.FetchFacilities,
		Freeze:       cfg.Freeze,
		SnapshotPath: cfg.SnapshotPath,
		Logger:       cfg.Logger,
	})

	return s
}

// Cache exposes the underlying cache for the scheduler.
func (s *Service) Cache() *cache.Cache[[]Facility] { return s.cache }

// All returns the cached facility set, refreshing first when stale.
func (s *Service) All(ctx context.Context) ([]Facility, cache.Info, error) {
	if err := s.cache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("facilities refresh failed, serving cached snapshot")
	}

	all, err := s.cache.Value()
	if err != nil {
		return nil, s.cache.Info(), err
	}
	return all, s.cache.Info(), nil
}

// Nearby returns the closest facilities of each kind around a point.
func (s *Service) Nearby(ctx context.Context, lat, lon, radiusKm float64, limitPerType int) (map[Kind][]NearbyFacility, error) {
	all, _, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return FindNearby(all, lat, lon, radiusKm, limitPerType), nil
}

// NearestHospital returns the closest hospital to a point.
func (s *Service) NearestHospital(ctx context.Context, lat, lon float64) (NearbyFacility, error) {
	all, _, err := s.All(ctx)
	if err != nil {
		return NearbyFacility{}, err
	}

	hospital, ok := NearestHospital(all, lat, lon)
	if !ok {
		return NearbyFacility{}, ErrNoHospitals
	}
	return hospital, nil
}

// Summary tallies the cached facility set.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	all, _, err := s.All(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(all), nil
}
