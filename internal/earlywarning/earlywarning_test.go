package earlywarning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeRisk(t *testing.T) {
	tests := []struct {
		name      string
		in        RiskInput
		wantScore int
		wantLevel RiskLevel
	}{
		{"quiet day", RiskInput{}, 0, RiskLow},
		{"moderate forecast rain", RiskInput{Precip24hMm: 30}, 8, RiskLow},
		{"significant forecast rain", RiskInput{Precip24hMm: 60}, 15, RiskLow},
		{"heavy forecast rain", RiskInput{Precip24hMm: 110}, 25, RiskMedium},
		{"extreme forecast rain", RiskInput{Precip24hMm: 160}, 30, RiskMedium},
		{
			"one government alert",
			RiskInput{AlertCount: 1, AlertEvents: []string{"Severe thunderstorm"}},
			20, RiskMedium,
		},
		{
			"alert points cap at 40",
			RiskInput{AlertCount: 5, AlertEvents: []string{"a", "b", "c", "d", "e"}},
			40, RiskHigh,
		},
		{
			"sustained rain probability",
			RiskInput{Precip24hMm: 60, HighPopHours: 14},
			30, RiskMedium,
		},
		{
			"everything at once caps at 100",
			RiskInput{
				AlertCount: 3, AlertEvents: []string{"a", "b", "c"},
				Precip24hMm: 200, HighPopHours: 20,
				MaxGustMs: 30, CurrentRainMm: 15,
			},
			100, RiskExtreme,
		},
		{"strong gusts alone", RiskInput{MaxGustMs: 26}, 10, RiskLow},
		{"strong sustained wind alone", RiskInput{MaxWindMs: 16}, 10, RiskLow},
		{"heavy rain right now", RiskInput{CurrentRainMm: 12}, 10, RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, score, _ := ComputeRisk(tt.in)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestComputeRisk_FactorsListAlerts(t *testing.T) {
	_, _, factors := ComputeRisk(RiskInput{
		AlertCount:  2,
		AlertEvents: []string{"Heavy rain warning", "Landslide warning"},
	})

	assert.Len(t, factors, 2)
	assert.Equal(t, "Government Alert", factors[0].Factor)
	assert.Equal(t, "Heavy rain warning", factors[0].Detail)
}

func TestDailyAlertLevel(t *testing.T) {
	tests := []struct {
		rain float64
		pop  float64
		want string
	}{
		{0, 0, "green"},
		{40, 50, "green"},
		{55, 0, "yellow"},
		{0, 65, "yellow"},
		{105, 0, "orange"},
		{60, 75, "orange"},
		{155, 0, "red"},
		{110, 85, "red"},
		{110, 50, "orange"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DailyAlertLevel(tt.rain, tt.pop),
			"rain=%.0f pop=%.0f", tt.rain, tt.pop)
	}
}

func TestRiskLevel_Rank(t *testing.T) {
	assert.Less(t, RiskExtreme.Rank(), RiskHigh.Rank())
	assert.Less(t, RiskHigh.Rank(), RiskMedium.Rank())
	assert.Less(t, RiskMedium.Rank(), RiskLow.Rank())
	assert.Less(t, RiskLow.Rank(), RiskUnknown.Rank())
	assert.Equal(t, RiskUnknown.Rank(), RiskLevel("bogus").Rank())
}

func TestSummarize(t *testing.T) {
	warnings := []DistrictWarning{
		{District: "Ratnapura", RiskLevel: RiskExtreme, AlertCount: 2},
		{District: "Colombo", RiskLevel: RiskHigh, AlertCount: 1},
		{District: "Jaffna", RiskLevel: RiskLow},
		{District: "Kandy", RiskLevel: RiskUnknown, Error: "timeout"},
	}

	sum := Summarize(warnings, time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC))

	assert.Equal(t, 4, sum.Districts)
	assert.Equal(t, 3, sum.AlertCount)
	assert.Equal(t, 1, sum.RiskDistribution[RiskExtreme])
	assert.Equal(t, 1, sum.RiskDistribution[RiskUnknown])
	assert.Equal(t, []string{"Ratnapura", "Colombo"}, sum.HighestRisk)
}
