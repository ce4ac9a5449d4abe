package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/region"
)

// Provider fetches active alerts for one location.
type Provider interface {
	Name() string
	FetchLocation(ctx context.Context, d region.District) ([]Alert, error)
}

// ServiceConfig holds configuration for the alerts service.
type ServiceConfig struct {
	// Provider is the upstream alerts source (required).
	Provider Provider

	// Regions resolves the district list (required).
	Regions *region.Registry

	// CurrentRegion is the region whose districts are polled (required).
	CurrentRegion string

	// TTL is the cache freshness window. Default: 15m.
	TTL time.Duration

	// Freeze pins the cache to its current value.
	Freeze bool

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service polls every district for official alerts and serves the
// deduplicated set grouped by severity.
type Service struct {
	provider      Provider
	regions       *region.Registry
	currentRegion string
	cache         *cache.Cache[[]Alert]
	logger        zerolog.Logger
}

// NewService creates an alerts service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	s := &Service{
		provider:      cfg.Provider,
		regions:       cfg.Regions,
		currentRegion: cfg.CurrentRegion,
		logger:        cfg.Logger,
	}

	s.cache = cache.New(cache.Config[[]Alert]{
		Name:   "weather_alerts",
		TTL:    ttl,
		Fetch:  s.fetch,
		Freeze: cfg.Freeze,
		Logger: cfg.Logger,
	})

	return s
}

// Cache exposes the underlying cache for the scheduler.
func (s *Service) Cache() *cache.Cache[[]Alert] { return s.cache }

func (s *Service) fetch(ctx context.Context) ([]Alert, error) {
	districts, err := s.regions.Districts(s.currentRegion)
	if err != nil {
		return nil, err
	}
	if len(districts) == 0 {
		return nil, fmt.Errorf("no districts configured for region %s", s.currentRegion)
	}

	var all []Alert
	failures := 0
	for _, d := range districts {
		found, err := s.provider.FetchLocation(ctx, d)
		if err != nil {
			failures++
			s.logger.Warn().Err(err).Str("location", d.Name).Msg("alerts fetch failed for location")
			continue
		}
		all = append(all, found...)
	}

	if failures == len(districts) {
		return nil, fmt.Errorf("alerts fetch failed for every location")
	}

	// The same national advisory comes back from every district it covers.
	return Dedup(all), nil
}

// All returns the cached deduplicated alerts, refreshing first when stale.
func (s *Service) All(ctx context.Context) ([]Alert, cache.Info, error) {
	if err := s.cache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("alerts refresh failed, serving cached snapshot")
	}

	found, err := s.cache.Value()
	if err != nil {
		return nil, s.cache.Info(), err
	}
	return found, s.cache.Info(), nil
}

// Summary returns the severity counts over the cached alerts.
func (s *Service) Summary(ctx context.Context) (SeveritySummary, error) {
	found, _, err := s.All(ctx)
	if err != nil {
		return SeveritySummary{}, err
	}
	return Summarize(found), nil
}

// BySeverity returns the cached alerts at one severity.
func (s *Service) BySeverity(ctx context.Context, severity Severity) ([]Alert, error) {
	found, _, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	var out []Alert
	for _, a := range found {
		if a.Severity == severity {
			out = append(out, a)
		}
	}
	return out, nil
}
