package climate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/region"
)

const (
	// DefaultYears is the analysis window when the caller does not choose.
	DefaultYears = 30

	// MinYears and MaxYears bound the analysis window.
	MinYears = 5
	MaxYears = 50
)

// ArchiveProvider fetches the rainfall archive for one district.
type ArchiveProvider interface {
	Name() string
	FetchSeries(ctx context.Context, d region.District, startYear, endYear int) (Series, error)
}

// ServiceConfig holds configuration for the climate service.
type ServiceConfig struct {
	// Provider is the archive source (required).
	Provider ArchiveProvider

	// Regions resolves district coordinates (required).
	Regions *region.Registry

	// CurrentRegion is the region whose districts can be analysed (required).
	CurrentRegion string

	// TTL is how long an archived series stays cached. Default: one week.
	TTL time.Duration

	// SnapshotDir enables disk persistence of each (district, years) series
	// so restarts do not re-pull decades of archive data.
	SnapshotDir string

	// Freeze pins all series caches to their current values.
	Freeze bool

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service serves historical flood-pattern analyses. Each (district, years)
// pair gets its own disk-persisted cache, created on first use.
type Service struct {
	provider      ArchiveProvider
	regions       *region.Registry
	currentRegion string
	ttl           time.Duration
	snapshotDir   string
	freeze        bool
	logger        zerolog.Logger

	mu     sync.Mutex
	caches map[string]*cache.Cache[Series]
}

// NewService creates a climate service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}

	return &Service{
		provider:      cfg.Provider,
		regions:       cfg.Regions,
		currentRegion: cfg.CurrentRegion,
		ttl:           ttl,
		snapshotDir:   cfg.SnapshotDir,
		freeze:        cfg.Freeze,
		logger:        cfg.Logger,
		caches:        map[string]*cache.Cache[Series]{},
	}
}

// clampYears bounds the analysis window.
func clampYears(years int) int {
	switch {
	case years == 0:
		return DefaultYears
	case years < MinYears:
		return MinYears
	case years > MaxYears:
		return MaxYears
	default:
		return years
	}
}

func (s *Service) cacheFor(d region.District, years int) *cache.Cache[Series] {
	key := fmt.Sprintf("climate_%s_%dy", slug(d.Name), years)

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.caches[key]; ok {
		return c
	}

	snapshotPath := ""
	if s.snapshotDir != "" {
		snapshotPath = filepath.Join(s.snapshotDir, key+".json")
	}

	c := cache.New(cache.Config[Series]{
		Name: key,
		TTL:  s.ttl,
		Fetch: func(ctx context.Context) (Series, error) {
			endYear := time.Now().UTC().Year()
			return s.provider.FetchSeries(ctx, d, endYear-years, endYear)
		},
		Freeze:       s.freeze,
		SnapshotPath: snapshotPath,
		Logger:       s.logger,
	})
	s.caches[key] = c
	return c
}

// Series returns the cached archive for one district and window, fetching it
// on first use.
func (s *Service) Series(ctx context.Context, district string, years int) (Series, cache.Info, error) {
	years = clampYears(years)

	d, err := s.regions.District(s.currentRegion, district)
	if err != nil {
		return Series{}, cache.Info{}, err
	}

	c := s.cacheFor(d, years)
	if err := c.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Str("district", d.Name).Msg("archive refresh failed, serving cached series")
	}

	series, err := c.Value()
	if err != nil {
		return Series{}, c.Info(), err
	}
	return series, c.Info(), nil
}

// Patterns runs the full flood-pattern analysis for one district.
func (s *Service) Patterns(ctx context.Context, district string, years int, thresholdMm float64) (Analysis, error) {
	series, _, err := s.Series(ctx, district, years)
	if err != nil {
		return Analysis{}, err
	}
	return Analyze(series, thresholdMm), nil
}

// MonthlyRisk returns the per-month flood risk profile over the default
// window.
func (s *Service) MonthlyRisk(ctx context.Context, district string) ([]MonthlyPattern, error) {
	analysis, err := s.Patterns(ctx, district, DefaultYears, 0)
	if err != nil {
		return nil, err
	}
	return analysis.Monthly, nil
}

// ExtremeEvents returns the historical days above a rainfall threshold,
// heaviest first.
func (s *Service) ExtremeEvents(ctx context.Context, district string, thresholdMm float64) ([]ExtremeEvent, error) {
	analysis, err := s.Patterns(ctx, district, DefaultYears, thresholdMm)
	if err != nil {
		return nil, err
	}
	return analysis.ExtremeEvents, nil
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
