package intel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/sos"
	"github.com/floodwatch/floodwatch/internal/weather"
)

// Priorities query limits.
const (
	DefaultPriorityLimit = 50
	MaxPriorityLimit     = 200
)

// ReportSource pulls a fresh batch of distress reports.
type ReportSource interface {
	Name() string
	FetchReports(ctx context.Context, limit int) ([]sos.Report, error)
}

// ForecastSource is the slice of the weather service the engine reads for
// the escalation overlay.
type ForecastSource interface {
	All(ctx context.Context) ([]weather.DistrictWeather, cache.Info, error)
}

// Snapshot is one full analysis cycle: ranked reports, clusters, situation
// summary, and the recommended actions derived from all three.
type Snapshot struct {
	Priorities []ScoredReport `json:"priorities"`
	Clusters   []Cluster      `json:"clusters"`
	Summary    Summary        `json:"summary"`
	Actions    []Action       `json:"actions"`
	AnalyzedAt time.Time      `json:"analyzedAt"`
}

// DistrictIntel is the per-district drill-down.
type DistrictIntel struct {
	District string          `json:"district"`
	Summary  DistrictSummary `json:"summary"`
	Reports  []ScoredReport  `json:"reports"`
	Clusters []Cluster       `json:"clusters"`
}

// ServiceConfig holds configuration for the intelligence service.
type ServiceConfig struct {
	// Reports is the distress report source (required).
	Reports ReportSource

	// Forecasts supplies the weather escalation overlay (optional; without
	// it reports score on their own facts only).
	Forecasts ForecastSource

	// TTL is the analysis freshness window. Default: 5m.
	TTL time.Duration

	// Freeze pins the cache to its current value.
	Freeze bool

	// SnapshotPath enables disk persistence of the analysis.
	SnapshotPath string

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service runs the analysis cycle and serves its cached snapshot.
type Service struct {
	reports   ReportSource
	forecasts ForecastSource
	cache     *cache.Cache[Snapshot]
	logger    zerolog.Logger
}

// NewService creates an intelligence service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	s := &Service{
		reports:   cfg.Reports,
		forecasts: cfg.Forecasts,
		logger:    cfg.Logger,
	}

	s.cache = cache.New(cache.Config[Snapshot]{
		Name:         "intel_snapshot",
		TTL:          ttl,
		Fetch:        s.analyze,
		Freeze:       cfg.Freeze,
		SnapshotPath: cfg.SnapshotPath,
		Logger:       cfg.Logger,
	})

	return s
}

// Cache exposes the underlying cache for the scheduler.
func (s *Service) Cache() *cache.Cache[Snapshot] { return s.cache }

// analyze runs one full cycle: pull reports, overlay the forecast, score,
// cluster, summarise, recommend. A missing forecast degrades the overlay to
// zero; missing reports fail the cycle.
func (s *Service) analyze(ctx context.Context) (Snapshot, error) {
	raw, err := s.reports.FetchReports(ctx, MaxPriorityLimit)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetching distress reports: %w", err)
	}
	raw = sos.Dedup(raw)

	forecastFor := s.forecastOverlay(ctx)

	scored := make([]ScoredReport, 0, len(raw))
	for _, r := range raw {
		score, tier := Score(r, forecastFor(r.District))
		scored = append(scored, ScoredReport{Report: r, UrgencyScore: score, UrgencyTier: tier})
	}
	sortForAnalysis(scored)

	clusters := BuildClusters(scored)

	now := time.Now().UTC()
	summary := Summarize(scored, forecastFor, now)

	rankByUrgency(scored)

	return Snapshot{
		Priorities: scored,
		Clusters:   clusters,
		Summary:    summary,
		Actions:    RecommendActions(scored, clusters, summary),
		AnalyzedAt: now,
	}, nil
}

// forecastOverlay returns the district -> forecast rain lookup. When the
// weather cache is unavailable every district reads as 0mm.
func (s *Service) forecastOverlay(ctx context.Context) func(district string) float64 {
	if s.forecasts == nil {
		return func(string) float64 { return 0 }
	}

	observations, _, err := s.forecasts.All(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("forecast overlay unavailable, scoring without weather escalation")
		return func(string) float64 { return 0 }
	}

	byDistrict := make(map[string]float64, len(observations))
	for _, w := range observations {
		byDistrict[strings.ToLower(w.District)] = w.ForecastRain24hMm
	}
	return func(district string) float64 {
		return byDistrict[strings.ToLower(district)]
	}
}

// Analysis returns the cached snapshot, refreshing first when stale.
func (s *Service) Analysis(ctx context.Context) (Snapshot, cache.Info, error) {
	if err := s.cache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("intel refresh failed, serving cached analysis")
	}

	snapshot, err := s.cache.Value()
	if err != nil {
		return Snapshot{}, s.cache.Info(), err
	}
	return snapshot, s.cache.Info(), nil
}

// Refresh forces a new analysis cycle and returns it.
func (s *Service) Refresh(ctx context.Context) (Snapshot, cache.Info, error) {
	if err := s.cache.Refresh(ctx, true); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("forced intel refresh failed, serving cached analysis")
	}

	snapshot, err := s.cache.Value()
	if err != nil {
		return Snapshot{}, s.cache.Info(), err
	}
	return snapshot, s.cache.Info(), nil
}

// Priorities returns ranked reports, optionally filtered by district and
// tier. Limits outside [1, MaxPriorityLimit] clamp to the defaults.
func (s *Service) Priorities(ctx context.Context, limit int, district string, tier Tier) ([]ScoredReport, cache.Info, error) {
	if limit <= 0 {
		limit = DefaultPriorityLimit
	}
	if limit > MaxPriorityLimit {
		limit = MaxPriorityLimit
	}

	snapshot, info, err := s.Analysis(ctx)
	if err != nil {
		return nil, info, err
	}

	out := make([]ScoredReport, 0, limit)
	for _, r := range snapshot.Priorities {
		if district != "" && !strings.EqualFold(r.District, district) {
			continue
		}
		if tier != "" && r.UrgencyTier != tier {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, info, nil
}

// Clusters returns the emergency clusters, optionally filtered by district.
func (s *Service) Clusters(ctx context.Context, district string) ([]Cluster, cache.Info, error) {
	snapshot, info, err := s.Analysis(ctx)
	if err != nil {
		return nil, info, err
	}
	if district == "" {
		return snapshot.Clusters, info, nil
	}

	var out []Cluster
	for _, c := range snapshot.Clusters {
		if c.InDistrict(district) {
			out = append(out, c)
		}
	}
	return out, info, nil
}

// Summary returns the situation overview.
func (s *Service) Summary(ctx context.Context) (Summary, cache.Info, error) {
	snapshot, info, err := s.Analysis(ctx)
	if err != nil {
		return Summary{}, info, err
	}
	return snapshot.Summary, info, nil
}

// Actions returns the recommended response actions.
func (s *Service) Actions(ctx context.Context) ([]Action, cache.Info, error) {
	snapshot, info, err := s.Analysis(ctx)
	if err != nil {
		return nil, info, err
	}
	return snapshot.Actions, info, nil
}

// District returns the drill-down for one district. Unknown districts come
// back empty rather than erroring: absence of reports is an answer.
func (s *Service) District(ctx context.Context, name string) (DistrictIntel, error) {
	snapshot, _, err := s.Analysis(ctx)
	if err != nil {
		return DistrictIntel{}, err
	}

	out := DistrictIntel{District: name, Summary: DistrictSummary{District: name}}
	for _, r := range snapshot.Priorities {
		if strings.EqualFold(r.District, name) {
			out.Reports = append(out.Reports, r)
		}
	}
	for _, c := range snapshot.Clusters {
		if c.InDistrict(name) {
			out.Clusters = append(out.Clusters, c)
		}
	}
	for _, d := range snapshot.Summary.MostAffectedDistricts {
		if strings.EqualFold(d.District, name) {
			out.Summary = d
			break
		}
	}
	return out, nil
}
