package environmental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTrend(t *testing.T) {
	data := []YearValue{
		{Year: 1994, Value: 36.4},
		{Year: 2004, Value: 33.0},
		{Year: 2024, Value: 29.1},
	}

	a, ok := AnalyzeTrend(data)
	require.True(t, ok)
	assert.Equal(t, 1994, a.FirstYear)
	assert.Equal(t, 2024, a.LastYear)
	assert.Equal(t, -7.3, a.AbsoluteChange)
	assert.Equal(t, -20.05, a.PercentChange)
	assert.Equal(t, TrendDecreasing, a.Trend)
	assert.Equal(t, 29.1, a.MinValue)
	assert.Equal(t, 2024, a.MinYear)
	assert.Equal(t, 36.4, a.MaxValue)
	assert.Equal(t, 1994, a.MaxYear)
}

func TestAnalyzeTrend_Stable(t *testing.T) {
	a, ok := AnalyzeTrend([]YearValue{{Year: 2000, Value: 100}, {Year: 2020, Value: 103}})
	require.True(t, ok)
	assert.Equal(t, TrendStable, a.Trend)
}

func TestAnalyzeTrend_Insufficient(t *testing.T) {
	_, ok := AnalyzeTrend([]YearValue{{Year: 2020, Value: 1}})
	assert.False(t, ok)

	_, ok = AnalyzeTrend(nil)
	assert.False(t, ok)
}

func TestComputeFloodRiskFactors(t *testing.T) {
	forest := []YearValue{{Year: 1994, Value: 36.4}, {Year: 2024, Value: 29.1}} // 20.1% loss
	density := []YearValue{{Year: 1994, Value: 290}, {Year: 2024, Value: 350}}  // 20.7% growth
	urban := []YearValue{{Year: 1994, Value: 18.0}, {Year: 2024, Value: 19.0}}  // +1 point, below gate

	out := ComputeFloodRiskFactors(forest, density, urban)

	require.Len(t, out.Factors, 2, "urbanisation below the 2-point gate")
	assert.Equal(t, "Deforestation", out.Factors[0].Factor)
	assert.Equal(t, "High", out.Factors[0].Impact)
	assert.Equal(t, 30.0, out.Factors[0].RiskContribution, "forest contribution capped at 30")
	assert.Equal(t, "Population Growth", out.Factors[1].Factor)
	assert.Equal(t, "High", out.Factors[1].Impact)

	// 30 + 20.7 = 50.7 -> HIGH.
	assert.Equal(t, 50.7, out.RiskScore)
	assert.Equal(t, RiskHigh, out.OverallRiskLevel)
	assert.Contains(t, out.Recommendation, "Reforestation")
	assert.Contains(t, out.Recommendation, "drainage")
}

func TestComputeFloodRiskFactors_Quiet(t *testing.T) {
	out := ComputeFloodRiskFactors(nil, nil, nil)
	assert.Equal(t, RiskLow, out.OverallRiskLevel)
	assert.Zero(t, out.RiskScore)
	assert.Empty(t, out.Factors)
	assert.Equal(t, "Continue monitoring environmental indicators", out.Recommendation)
}
