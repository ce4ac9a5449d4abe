package earlywarning

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

// Provider fetches and scores one district.
type Provider interface {
	Name() string
	FetchDistrict(ctx context.Context, d region.District) (*DistrictWarning, error)
}

// ServiceConfig holds configuration for the early warning service.
type ServiceConfig struct {
	// Provider is the upstream early warning source (required).
	Provider Provider

	// Regions resolves the district list (required).
	Regions *region.Registry

	// CurrentRegion is the region whose districts are fetched (required).
	CurrentRegion string

	// TTL is the cache freshness window. Default: 120m.
	TTL time.Duration

	// Freeze pins the cache to its current value.
	Freeze bool

	// SnapshotPath enables disk persistence.
	SnapshotPath string

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service is the early warning fetcher. One cycle fetches every district;
// a failed district keeps its slot with an error entry and unknown risk so
// the rest of the country still reports.
type Service struct {
	provider      Provider
	regions       *region.Registry
	currentRegion string
	cache         *cache.Cache[[]DistrictWarning]
	logger        zerolog.Logger
}

// NewService creates an early warning service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 120 * time.Minute
	}

	s := &Service{
		provider:      cfg.Provider,
		regions:       cfg.Regions,
		currentRegion: cfg.CurrentRegion,
		logger:        cfg.Logger,
	}

	s.cache = cache.New(cache.Config[[]DistrictWarning]{
		Name:         "early_warning",
		TTL:          ttl,
		Fetch:        s.fetch,
		Freeze:       cfg.Freeze,
		SnapshotPath: cfg.SnapshotPath,
		Logger:       cfg.Logger,
	})

	return s
}

// Cache exposes the underlying cache for the scheduler.
func (s *Service) Cache() *cache.Cache[[]DistrictWarning] { return s.cache }

func (s *Service) fetch(ctx context.Context) ([]DistrictWarning, error) {
	districts, err := s.regions.Districts(s.currentRegion)
	if err != nil {
		return nil, err
	}
	if len(districts) == 0 {
		return nil, fmt.Errorf("no districts configured for region %s", s.currentRegion)
	}

	warnings := make([]DistrictWarning, 0, len(districts))
	failures := 0

	for _, d := range districts {
		w, err := s.provider.FetchDistrict(ctx, d)
		if err != nil {
			failures++
			s.logger.Warn().Err(err).Str("district", d.Name).Msg("early warning fetch failed for district")
			warnings = append(warnings, DistrictWarning{
				District:  d.Name,
				Latitude:  d.Latitude,
				Longitude: d.Longitude,
				FetchedAt: time.Now().UTC(),
				RiskLevel: RiskUnknown,
				Alerts:    []GovAlert{},
				Error:     err.Error(),
			})
			continue
		}
		warnings = append(warnings, *w)
	}

	if failures == len(districts) {
		return nil, fmt.Errorf("early warning fetch failed for every district")
	}

	// Most severe first, ties by district name for a stable order.
	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].RiskLevel.Rank() != warnings[j].RiskLevel.Rank() {
			return warnings[i].RiskLevel.Rank() < warnings[j].RiskLevel.Rank()
		}
		return warnings[i].District < warnings[j].District
	})

	return warnings, nil
}

// All returns the cached district warnings, refreshing first when stale.
func (s *Service) All(ctx context.Context) ([]DistrictWarning, cache.Info, error) {
	if err := s.cache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("early warning refresh failed, serving cached snapshot")
	}

	warnings, err := s.cache.Value()
	if err != nil {
		return nil, s.cache.Info(), err
	}
	return warnings, s.cache.Info(), nil
}

// District returns the warning for one district.
func (s *Service) District(ctx context.Context, name string) (DistrictWarning, error) {
	warnings, _, err := s.All(ctx)
	if err != nil {
		return DistrictWarning{}, err
	}

	for _, w := range warnings {
		if strings.EqualFold(w.District, name) {
			return w, nil
		}
	}
	return DistrictWarning{}, fmt.Errorf("%w: %s", region.ErrUnknownDistrict, name)
}

// National returns the aggregated alert count and risk distribution.
func (s *Service) National(ctx context.Context) (NationalSummary, error) {
	warnings, _, err := s.All(ctx)
	if err != nil {
		return NationalSummary{}, err
	}
	return Summarize(warnings, time.Now()), nil
}
