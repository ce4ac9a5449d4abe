package marine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/region"
)

// CoastalDistricts lists the Sri Lankan districts with a coastline, the set
// polled for sea conditions.
var CoastalDistricts = []string{
	"Colombo", "Gampaha", "Kalutara", "Galle", "Matara", "Hambantota",
	"Ampara", "Batticaloa", "Trincomalee", "Mullaitivu", "Jaffna",
	"Kilinochchi", "Mannar", "Puttalam",
}

// Provider fetches sea conditions for one coastal point.
type Provider interface {
	Name() string
	FetchPoint(ctx context.Context, d region.District) (*Conditions, error)
}

// ServiceConfig holds configuration for the marine service.
type ServiceConfig struct {
	// Provider is the upstream marine source (required).
	Provider Provider

	// Regions resolves district coordinates (required).
	Regions *region.Registry

	// CurrentRegion is the region whose coast is polled (required).
	CurrentRegion string

	// Coastal overrides the coastal district names (optional).
	Coastal []string

	// TTL is the cache freshness window. Default: 30m.
	TTL time.Duration

	// Freeze pins the cache to its current value.
	Freeze bool

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service polls the coastal districts for sea state.
type Service struct {
	provider      Provider
	regions       *region.Registry
	currentRegion string
	coastal       []string
	cache         *cache.Cache[[]Conditions]
	logger        zerolog.Logger
}

// NewService creates a marine service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	coastal := cfg.Coastal
	if len(coastal) == 0 {
		coastal = CoastalDistricts
	}

	s := &Service{
		provider:      cfg.Provider,
		regions:       cfg.Regions,
		currentRegion: cfg.CurrentRegion,
		coastal:       coastal,
		logger:        cfg.Logger,
	}

	s.cache = cache.New(cache.Config[[]Conditions]{
		Name:   "marine_conditions",
		TTL:    ttl,
		Fetch:  s.fetch,
		Freeze: cfg.Freeze,
		Logger: cfg.Logger,
	})

	return s
}

// Cache exposes the underlying cache for the scheduler.
func (s *Service) Cache() *cache.Cache[[]Conditions] { return s.cache }

func (s *Service) fetch(ctx context.Context) ([]Conditions, error) {
	var out []Conditions
	failures, polled := 0, 0

	for _, name := range s.coastal {
		d, err := s.regions.District(s.currentRegion, name)
		if err != nil {
			// Region configuration without this coastal district; skip.
			continue
		}
		polled++

		cond, err := s.provider.FetchPoint(ctx, d)
		if err != nil {
			failures++
			s.logger.Warn().Err(err).Str("district", name).Msg("marine fetch failed for district")
			continue
		}
		out = append(out, *cond)
	}

	if polled == 0 {
		return nil, fmt.Errorf("no coastal districts resolved for region %s", s.currentRegion)
	}
	if failures == polled {
		return nil, fmt.Errorf("marine fetch failed for every coastal district")
	}
	return out, nil
}

// All returns the cached coastal conditions, refreshing first when stale.
func (s *Service) All(ctx context.Context) ([]Conditions, cache.Info, error) {
	if err := s.cache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("marine refresh failed, serving cached snapshot")
	}

	conditions, err := s.cache.Value()
	if err != nil {
		return nil, s.cache.Info(), err
	}
	return conditions, s.cache.Info(), nil
}

// District returns the conditions for one coastal district.
func (s *Service) District(ctx context.Context, name string) (Conditions, error) {
	conditions, _, err := s.All(ctx)
	if err != nil {
		return Conditions{}, err
	}

	for _, c := range conditions {
		if strings.EqualFold(c.District, name) {
			return c, nil
		}
	}
	return Conditions{}, fmt.Errorf("%w: no marine data for %s", region.ErrUnknownDistrict, name)
}

// Summary returns the aggregate over the cached conditions.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	conditions, _, err := s.All(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(conditions), nil
}
