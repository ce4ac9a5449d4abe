// Package intel ranks crowdsourced distress reports by urgency, clusters
// them geographically, and emits recommended response actions.
package intel

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/floodwatch/floodwatch/internal/sos"
)

// ErrUnknownTier rejects an unrecognised urgency tier filter.
var ErrUnknownTier = errors.New("unknown urgency tier")

// Tier buckets an urgency score.
type Tier string

const (
	TierLow      Tier = "LOW"
	TierMedium   Tier = "MEDIUM"
	TierHigh     Tier = "HIGH"
	TierCritical Tier = "CRITICAL"
)

// ParseTier validates a tier filter, accepting any case.
func ParseTier(value string) (Tier, error) {
	switch Tier(strings.ToUpper(value)) {
	case TierLow:
		return TierLow, nil
	case TierMedium:
		return TierMedium, nil
	case TierHigh:
		return TierHigh, nil
	case TierCritical:
		return TierCritical, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTier, value)
	}
}

// TierFor buckets an urgency score.
func TierFor(score int) Tier {
	switch {
	case score >= 75:
		return TierCritical
	case score >= 50:
		return TierHigh
	case score >= 25:
		return TierMedium
	default:
		return TierLow
	}
}

// waterLevelPoints grades the reported flood depth. Unknown levels score
// nothing rather than failing the report.
var waterLevelPoints = map[sos.WaterLevel]int{
	sos.WaterRoof:  40,
	sos.WaterNeck:  35,
	sos.WaterChest: 25,
	sos.WaterWaist: 15,
	sos.WaterAnkle: 5,
}

// ScoredReport is a distress report with its derived urgency.
type ScoredReport struct {
	sos.Report
	UrgencyScore int  `json:"urgencyScore"`
	UrgencyTier  Tier `json:"urgencyTier"`
}

// Score computes the urgency score for one report, capped at 100. The
// forecast overlay escalates reports in districts expecting heavy rain in
// the next 24 hours.
func Score(r sos.Report, forecastRain24hMm float64) (int, Tier) {
	score := waterLevelPoints[r.WaterLevel]

	if r.HasMedicalEmergency {
		score += 15
	}
	if r.HasDisabled {
		score += 8
	}
	if r.HasElderly {
		score += 5
	}
	if r.HasChildren {
		score += 2
	}
	if r.SafeHours != nil && *r.SafeHours <= 1 {
		score += 20
	}

	people := r.PeopleCount
	if people > 10 {
		people = 10
	}
	if people > 0 {
		score += people
	}

	if r.NeedsFood {
		score += 3
	}
	if r.NeedsWater {
		score += 5
	}
	if forecastRain24hMm > 100 {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	return score, TierFor(score)
}

// TierCounts breaks a report set down by urgency tier.
type TierCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

func (c *TierCounts) add(tier Tier) {
	switch tier {
	case TierCritical:
		c.Critical++
	case TierHigh:
		c.High++
	case TierMedium:
		c.Medium++
	default:
		c.Low++
	}
}

// ResourceNeeds counts reports asking for supplies or medical help.
type ResourceNeeds struct {
	NeedsFood          int `json:"needsFood"`
	NeedsWater         int `json:"needsWater"`
	MedicalEmergencies int `json:"medicalEmergencies"`
}

// Vulnerabilities counts reports mentioning vulnerable people.
type Vulnerabilities struct {
	Elderly  int `json:"elderly"`
	Disabled int `json:"disabled"`
	Children int `json:"children"`
}

// DistrictSummary aggregates one district's reports with the forecast
// overlay applied.
type DistrictSummary struct {
	District          string     `json:"district"`
	Count             int        `json:"count"`
	TotalPeople       int        `json:"totalPeople"`
	Tiers             TierCounts `json:"tiers"`
	NeedsFood         int        `json:"needsFood"`
	NeedsWater        int        `json:"needsWater"`
	ForecastRain24hMm float64    `json:"forecastRain24hMm"`
}

// Summary is the situation overview across all reports.
type Summary struct {
	TotalReports          int               `json:"totalReports"`
	TotalPeople           int               `json:"totalPeople"`
	Tiers                 TierCounts        `json:"tiers"`
	ResourceNeeds         ResourceNeeds     `json:"resourceNeeds"`
	Vulnerabilities       Vulnerabilities   `json:"vulnerabilities"`
	MostAffectedDistricts []DistrictSummary `json:"mostAffectedDistricts"`
	AnalyzedAt            time.Time         `json:"analyzedAt"`
}

// Summarize aggregates scored reports into the overview. Reports without
// coordinates still count here even though clustering excludes them.
// Districts rank by critical cases first, then report volume.
func Summarize(reports []ScoredReport, forecastFor func(district string) float64, now time.Time) Summary {
	out := Summary{TotalReports: len(reports), AnalyzedAt: now}

	byDistrict := make(map[string]*DistrictSummary)
	for _, r := range reports {
		out.TotalPeople += r.PeopleCount
		out.Tiers.add(r.UrgencyTier)

		if r.NeedsFood {
			out.ResourceNeeds.NeedsFood++
		}
		if r.NeedsWater {
			out.ResourceNeeds.NeedsWater++
		}
		if r.HasMedicalEmergency {
			out.ResourceNeeds.MedicalEmergencies++
		}
		if r.HasElderly {
			out.Vulnerabilities.Elderly++
		}
		if r.HasDisabled {
			out.Vulnerabilities.Disabled++
		}
		if r.HasChildren {
			out.Vulnerabilities.Children++
		}

		if r.District == "" {
			continue
		}
		key := strings.ToLower(r.District)
		d, ok := byDistrict[key]
		if !ok {
			d = &DistrictSummary{District: r.District}
			if forecastFor != nil {
				d.ForecastRain24hMm = forecastFor(r.District)
			}
			byDistrict[key] = d
		}
		d.Count++
		d.TotalPeople += r.PeopleCount
		d.Tiers.add(r.UrgencyTier)
		if r.NeedsFood {
			d.NeedsFood++
		}
		if r.NeedsWater {
			d.NeedsWater++
		}
	}

	districts := make([]DistrictSummary, 0, len(byDistrict))
	for _, d := range byDistrict {
		districts = append(districts, *d)
	}
	sort.Slice(districts, func(i, j int) bool {
		if districts[i].Tiers.Critical != districts[j].Tiers.Critical {
			return districts[i].Tiers.Critical > districts[j].Tiers.Critical
		}
		if districts[i].Count != districts[j].Count {
			return districts[i].Count > districts[j].Count
		}
		return districts[i].District < districts[j].District
	})
	out.MostAffectedDistricts = districts

	return out
}

// sortForAnalysis orders reports by reportedAt ascending then id so the
// clustering and ranking are reproducible regardless of upstream ordering.
func sortForAnalysis(reports []ScoredReport) {
	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].ReportedAt.Equal(reports[j].ReportedAt) {
			return reports[i].ReportedAt.Before(reports[j].ReportedAt)
		}
		return reports[i].ID < reports[j].ID
	})
}

// rankByUrgency orders reports most urgent first; ties keep the analysis
// order (older report first).
func rankByUrgency(reports []ScoredReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].UrgencyScore > reports[j].UrgencyScore
	})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
