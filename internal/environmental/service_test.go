package environmental

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndicators struct {
	byCode map[string][]YearValue
	errs   map[string]error
	calls  int
}

func (f *fakeIndicators) Name() string { return "fake" }

func (f *fakeIndicators) FetchIndicator(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) ([]YearValue, error) {
	f.calls++
	if err, ok := f.errs[indicatorCode]; ok {
		return nil, err
	}
	return f.byCode[indicatorCode], nil
}

func newTestService(provider IndicatorProvider) *Service {
	return NewService(ServiceConfig{
		Provider:  provider,
		StartYear: 1994,
		TTL:       time.Minute,
		Logger:    zerolog.Nop(),
	})
}

func TestService_Trends(t *testing.T) {
	provider := &fakeIndicators{byCode: map[string][]YearValue{
		"AG.LND.FRST.ZS": {{Year: 1994, Value: 36.4}, {Year: 2024, Value: 29.1}},
		"EN.POP.DNST":    {{Year: 1994, Value: 290}, {Year: 2024, Value: 350}},
		"SP.POP.TOTL":    {{Year: 1994, Value: 18e6}, {Year: 2024, Value: 22e6}},
	}}
	svc := newTestService(provider)

	trends, info, err := svc.Trends(context.Background())
	require.NoError(t, err)
	assert.True(t, info.IsValid)

	assert.Equal(t, "Sri Lanka", trends.Country)
	assert.Equal(t, "LKA", trends.CountryCode)
	require.NotNil(t, trends.ForestCover.Analysis)
	assert.Equal(t, TrendDecreasing, trends.ForestCover.Analysis.Trend)
	assert.Nil(t, trends.UrbanPopulation.Analysis, "missing series carries no trend")
	assert.Equal(t, RiskHigh, trends.FloodRiskFactors.OverallRiskLevel)

	// Second read inside the TTL hits the cache.
	_, _, err = svc.Trends(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, provider.calls, "one call per indicator, once")
}

func TestService_Trends_PartialIndicatorFailure(t *testing.T) {
	provider := &fakeIndicators{
		byCode: map[string][]YearValue{
			"SP.POP.TOTL": {{Year: 1994, Value: 18e6}, {Year: 2024, Value: 22e6}},
		},
		errs: map[string]error{"AG.LND.FRST.ZS": errors.New("quota")},
	}
	svc := newTestService(provider)

	trends, _, err := svc.Trends(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trends.ForestCover.Data)
	assert.NotEmpty(t, trends.PopulationTotal.Data)
	assert.Equal(t, RiskLow, trends.FloodRiskFactors.OverallRiskLevel)
}

func TestService_Trends_NothingAvailable(t *testing.T) {
	svc := newTestService(&fakeIndicators{})

	_, _, err := svc.Trends(context.Background())
	assert.Error(t, err)
}

func TestService_Correlation(t *testing.T) {
	provider := &fakeIndicators{byCode: map[string][]YearValue{
		"AG.LND.FRST.ZS": {{Year: 1994, Value: 36.4}, {Year: 2024, Value: 29.1}},
	}}
	svc := newTestService(provider)

	out, err := svc.Correlation(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Factors, 1)
	assert.Equal(t, "Deforestation", out.Factors[0].Factor)
}
