package intel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/internal/sos"
)

func f64(v float64) *float64 { return &v }

func TestScore_EscalatedReport(t *testing.T) {
	// NECK (35) + medical (15) + one safe hour (20) + 4 people (4)
	// + needs water (5) + 120mm forecast (15) = 94.
	report := sos.Report{
		ID:                  "sos-1",
		District:            "Colombo",
		PeopleCount:         4,
		WaterLevel:          sos.WaterNeck,
		HasMedicalEmergency: true,
		NeedsWater:          true,
		SafeHours:           f64(1),
	}

	score, tier := Score(report, 120)
	assert.Equal(t, 94, score)
	assert.Equal(t, TierCritical, tier)
}

func TestScore_CappedAt100(t *testing.T) {
	report := sos.Report{
		WaterLevel:          sos.WaterRoof,
		PeopleCount:         12,
		HasMedicalEmergency: true,
		HasElderly:          true,
		HasDisabled:         true,
		HasChildren:         true,
		NeedsFood:           true,
		NeedsWater:          true,
		SafeHours:           f64(0.5),
	}

	score, tier := Score(report, 150)
	assert.Equal(t, 100, score)
	assert.Equal(t, TierCritical, tier)
}

func TestScore_QuietReport(t *testing.T) {
	score, tier := Score(sos.Report{WaterLevel: sos.WaterAnkle, PeopleCount: 2}, 0)
	assert.Equal(t, 7, score)
	assert.Equal(t, TierLow, tier)
}

func TestScore_UnknownWaterLevel(t *testing.T) {
	score, _ := Score(sos.Report{WaterLevel: sos.WaterUnknown, NeedsWater: true}, 0)
	assert.Equal(t, 5, score, "unknown depth contributes nothing")
}

func TestScore_SafeHoursAboveThreshold(t *testing.T) {
	withPressure, _ := Score(sos.Report{WaterLevel: sos.WaterWaist, SafeHours: f64(1)}, 0)
	withoutPressure, _ := Score(sos.Report{WaterLevel: sos.WaterWaist, SafeHours: f64(1.5)}, 0)
	assert.Equal(t, 20, withPressure-withoutPressure)
}

func TestTierFor_Boundaries(t *testing.T) {
	assert.Equal(t, TierCritical, TierFor(75))
	assert.Equal(t, TierHigh, TierFor(74))
	assert.Equal(t, TierHigh, TierFor(50))
	assert.Equal(t, TierMedium, TierFor(49))
	assert.Equal(t, TierMedium, TierFor(25))
	assert.Equal(t, TierLow, TierFor(24))
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("critical")
	require.NoError(t, err)
	assert.Equal(t, TierCritical, tier)

	_, err = ParseTier("urgent")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestSummarize(t *testing.T) {
	reports := []ScoredReport{
		{
			Report: sos.Report{
				ID: "a", District: "Colombo", PeopleCount: 4,
				HasMedicalEmergency: true, HasChildren: true, NeedsWater: true,
			},
			UrgencyScore: 80, UrgencyTier: TierCritical,
		},
		{
			Report:       sos.Report{ID: "b", District: "Colombo", PeopleCount: 2, NeedsFood: true},
			UrgencyScore: 30, UrgencyTier: TierMedium,
		},
		{
			Report:       sos.Report{ID: "c", District: "Gampaha", PeopleCount: 6, HasElderly: true},
			UrgencyScore: 55, UrgencyTier: TierHigh,
		},
		// No district: counted in totals, absent from the district table.
		{
			Report:       sos.Report{ID: "d", PeopleCount: 1},
			UrgencyScore: 5, UrgencyTier: TierLow,
		},
	}

	forecast := func(district string) float64 {
		if district == "Colombo" {
			return 80
		}
		return 0
	}

	now := time.Now().UTC()
	summary := Summarize(reports, forecast, now)

	assert.Equal(t, 4, summary.TotalReports)
	assert.Equal(t, 13, summary.TotalPeople)
	assert.Equal(t, TierCounts{Critical: 1, High: 1, Medium: 1, Low: 1}, summary.Tiers)
	assert.Equal(t, ResourceNeeds{NeedsFood: 1, NeedsWater: 1, MedicalEmergencies: 1}, summary.ResourceNeeds)
	assert.Equal(t, Vulnerabilities{Elderly: 1, Children: 1}, summary.Vulnerabilities)

	require.Len(t, summary.MostAffectedDistricts, 2)
	colombo := summary.MostAffectedDistricts[0]
	assert.Equal(t, "Colombo", colombo.District, "critical cases rank first")
	assert.Equal(t, 2, colombo.Count)
	assert.Equal(t, 6, colombo.TotalPeople)
	assert.Equal(t, 80.0, colombo.ForecastRain24hMm)
	assert.Equal(t, 1, colombo.NeedsFood)
	assert.Equal(t, 1, colombo.NeedsWater)
	assert.Equal(t, "Gampaha", summary.MostAffectedDistricts[1].District)
	assert.Equal(t, now, summary.AnalyzedAt)
}
