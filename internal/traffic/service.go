package traffic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
)

// IncidentProvider fetches the island-wide incident list.
type IncidentProvider interface {
	Name() string
	FetchIncidents(ctx context.Context) ([]Incident, error)
}

// FlowProvider reads the flow at one probe point.
type FlowProvider interface {
	Name() string
	FetchFlowSegment(ctx context.Context, point RoadPoint) (*FlowSegment, error)
}

// ServiceConfig holds configuration for the traffic service.
type ServiceConfig struct {
	// Incidents is the incident source (required).
	Incidents IncidentProvider

	// Flow lists the flow sources, polled in order (required).
	Flow []FlowProvider

	// Roads overrides the monitored probe points (optional).
	Roads []RoadPoint

	// IncidentTTL is the incident cache freshness window. Default: 5m.
	IncidentTTL time.Duration

	// FlowTTL is the flow cache freshness window. Default: 5m.
	FlowTTL time.Duration

	// Freeze pins both caches to their current values.
	Freeze bool

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service serves cached road incidents and flow conditions.
type Service struct {
	incidents IncidentProvider
	flow      []FlowProvider
	roads     []RoadPoint

	incidentCache *cache.Cache[[]Incident]
	flowCache     *cache.Cache[[]FlowSegment]

	logger zerolog.Logger
}

// NewService creates a traffic service.
func NewService(cfg ServiceConfig) *Service {
	incidentTTL := cfg.IncidentTTL
	if incidentTTL == 0 {
		incidentTTL = 5 * time.Minute
	}

	flowTTL := cfg.FlowTTL
	if flowTTL == 0 {
		flowTTL = 5 * time.Minute
	}

	roads := cfg.Roads
	if len(roads) == 0 {
		roads = MonitoredRoads
	}

	s := &Service{
		incidents: cfg.Incidents,
		flow:      cfg.Flow,
		roads:     roads,
		logger:    cfg.Logger,
	}

	s.incidentCache = cache.New(cache.Config[[]Incident]{
		Name:   "traffic_incidents",
		TTL:    incidentTTL,
		Fetch:  s.fetchIncidents,
		Freeze: cfg.Freeze,
		Logger: cfg.Logger,
	})

	s.flowCache = cache.New(cache.Config[[]FlowSegment]{
		Name:   "traffic_flow",
		TTL:    flowTTL,
		Fetch:  s.fetchFlow,
		Freeze: cfg.Freeze,
		Logger: cfg.Logger,
	})

	return s
}

// IncidentCache exposes the incident cache for the scheduler.
func (s *Service) IncidentCache() *cache.Cache[[]Incident] { return s.incidentCache }

// FlowCache exposes the flow cache for the scheduler.
func (s *Service) FlowCache() *cache.Cache[[]FlowSegment] { return s.flowCache }

func (s *Service) fetchIncidents(ctx context.Context) ([]Incident, error) {
	incidents, err := s.incidents.FetchIncidents(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("count", len(incidents)).Msg("fetched traffic incidents")
	return incidents, nil
}

// fetchFlow polls every probe point on every flow source. A point or even a
// whole source failing is tolerated as long as something came back.
func (s *Service) fetchFlow(ctx context.Context) ([]FlowSegment, error) {
	var (
		out     []FlowSegment
		lastErr error
	)

	for _, provider := range s.flow {
		for _, point := range s.roads {
			seg, err := provider.FetchFlowSegment(ctx, point)
			if err != nil {
				lastErr = err
				s.logger.Warn().Err(err).
					Str("provider", provider.Name()).
					Str("location", point.Location).
					Msg("flow probe failed")
				continue
			}
			out = append(out, *seg)
		}
	}

	if len(out) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("all flow probes failed: %w", lastErr)
		}
		return nil, fmt.Errorf("no flow providers configured")
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Location < out[j].Location
	})
	return out, nil
}

// Incidents returns the cached incident list, refreshing first when stale.
func (s *Service) Incidents(ctx context.Context) ([]Incident, cache.Info, error) {
	if err := s.incidentCache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("incident refresh failed, serving cached snapshot")
	}

	incidents, err := s.incidentCache.Value()
	if err != nil {
		return nil, s.incidentCache.Info(), err
	}
	return incidents, s.incidentCache.Info(), nil
}

// IncidentsByCategory returns the cached incidents matching a filter key.
func (s *Service) IncidentsByCategory(ctx context.Context, category string) ([]Incident, error) {
	incidents, _, err := s.Incidents(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByCategory(incidents, category), nil
}

// IncidentsBySeverity returns the cached incidents at one severity.
func (s *Service) IncidentsBySeverity(ctx context.Context, severity Severity) ([]Incident, error) {
	incidents, _, err := s.Incidents(ctx)
	if err != nil {
		return nil, err
	}
	return FilterBySeverity(incidents, severity), nil
}

// Summary tallies the cached incidents.
func (s *Service) Summary(ctx context.Context) (IncidentSummary, error) {
	incidents, _, err := s.Incidents(ctx)
	if err != nil {
		return IncidentSummary{}, err
	}
	return SummarizeIncidents(incidents), nil
}

// Flow returns the cached flow segments, refreshing first when stale.
func (s *Service) Flow(ctx context.Context) ([]FlowSegment, cache.Info, error) {
	if err := s.flowCache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("flow refresh failed, serving cached snapshot")
	}

	segments, err := s.flowCache.Value()
	if err != nil {
		return nil, s.flowCache.Info(), err
	}
	return segments, s.flowCache.Info(), nil
}

// FlowSummary tallies the cached flow segments.
func (s *Service) FlowSummary(ctx context.Context) (FlowSummary, error) {
	segments, _, err := s.Flow(ctx)
	if err != nil {
		return FlowSummary{}, err
	}
	return SummarizeFlow(segments), nil
}
