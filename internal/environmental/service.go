package environmental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/cache"
)

// IndicatorProvider fetches one yearly indicator series.
type IndicatorProvider interface {
	Name() string
	FetchIndicator(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) ([]YearValue, error)
}

// indicator binds a report slot to its upstream code and unit.
type indicator struct {
	code string
	unit string
}

var indicators = struct {
	forest, density, total, urban, agri indicator
}{
	forest:  indicator{code: "AG.LND.FRST.ZS", unit: "% of land area"},
	density: indicator{code: "EN.POP.DNST", unit: "people per sq. km"},
	total:   indicator{code: "SP.POP.TOTL", unit: "people"},
	urban:   indicator{code: "SP.URB.TOTL.IN.ZS", unit: "% of total"},
	agri:    indicator{code: "AG.LND.AGRI.ZS", unit: "% of land area"},
}

// ServiceConfig holds configuration for the environmental service.
type ServiceConfig struct {
	// Provider is the indicator source (required).
	Provider IndicatorProvider

	// Country and CountryCode identify the reported country.
	Country     string
	CountryCode string

	// StartYear bounds the series. Default: 30 years back from now.
	StartYear int

	// TTL is the cache freshness window. Default: one week.
	TTL time.Duration

	// Freeze pins the cache to its current value.
	Freeze bool

	// SnapshotPath enables disk persistence of the report.
	SnapshotPath string

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service serves the cached environmental report.
type Service struct {
	provider    IndicatorProvider
	country     string
	countryCode string
	startYear   int
	cache       *cache.Cache[Trends]
	logger      zerolog.Logger
}

// NewService creates an environmental service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}

	country := cfg.Country
	if country == "" {
		country = "Sri Lanka"
	}
	countryCode := cfg.CountryCode
	if countryCode == "" {
		countryCode = "LKA"
	}

	s := &Service{
		provider:    cfg.Provider,
		country:     country,
		countryCode: countryCode,
		startYear:   cfg.StartYear,
		logger:      cfg.Logger,
	}

	s.cache = cache.New(cache.Config[Trends]{
		Name:         "environmental_trends",
		TTL:          ttl,
		Fetch:        s.fetch,
		Freeze:       cfg.Freeze,
		SnapshotPath: cfg.SnapshotPath,
		Logger:       cfg.Logger,
	})

	return s
}

// Cache exposes the underlying cache for the scheduler.
func (s *Service) Cache() *cache.Cache[Trends] { return s.cache }

// fetch pulls every indicator and assembles the report. A single indicator
// failing yields an empty series for that slot, matching the engines'
// missing-input tolerance; the fetch fails only when nothing came back.
func (s *Service) fetch(ctx context.Context) (Trends, error) {
	endYear := time.Now().UTC().Year()
	startYear := s.startYear
	if startYear == 0 {
		startYear = endYear - 30
	}

	series := func(ind indicator) IndicatorSeries {
		data, err := s.provider.FetchIndicator(ctx, s.countryCode, ind.code, startYear, endYear)
		if err != nil {
			s.logger.Warn().Err(err).Str("indicator", ind.code).Msg("indicator fetch failed")
			data = nil
		}
		out := IndicatorSeries{Code: ind.code, Unit: ind.unit, Data: data}
		if analysis, ok := AnalyzeTrend(data); ok {
			out.Analysis = &analysis
		}
		return out
	}

	trends := Trends{
		Country:           s.country,
		CountryCode:       s.countryCode,
		Period:            fmt.Sprintf("%d-%d", startYear, endYear),
		ForestCover:       series(indicators.forest),
		PopulationDensity: series(indicators.density),
		PopulationTotal:   series(indicators.total),
		UrbanPopulation:   series(indicators.urban),
		AgriculturalLand:  series(indicators.agri),
		DataSource:        "World Bank Open Data API",
		AnalyzedAt:        time.Now().UTC(),
	}

	if len(trends.ForestCover.Data) == 0 &&
		len(trends.PopulationDensity.Data) == 0 &&
		len(trends.PopulationTotal.Data) == 0 &&
		len(trends.UrbanPopulation.Data) == 0 &&
		len(trends.AgriculturalLand.Data) == 0 {
		return Trends{}, fmt.Errorf("no environmental indicators available for %s", s.countryCode)
	}

	trends.FloodRiskFactors = ComputeFloodRiskFactors(
		trends.ForestCover.Data,
		trends.PopulationDensity.Data,
		trends.UrbanPopulation.Data,
	)

	return trends, nil
}

// Trends returns the cached report, refreshing first when stale.
func (s *Service) Trends(ctx context.Context) (Trends, cache.Info, error) {
	if err := s.cache.Refresh(ctx, false); err != nil && !errors.Is(err, cache.ErrFrozen) {
		s.logger.Warn().Err(err).Msg("environmental refresh failed, serving cached report")
	}

	trends, err := s.cache.Value()
	if err != nil {
		return Trends{}, s.cache.Info(), err
	}
	return trends, s.cache.Info(), nil
}

// Correlation returns the flood-risk correlation from the cached report.
func (s *Service) Correlation(ctx context.Context) (FloodRiskFactors, error) {
	trends, _, err := s.Trends(ctx)
	if err != nil {
		return FloodRiskFactors{}, err
	}
	return trends.FloodRiskFactors, nil
}
