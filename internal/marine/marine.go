// Package marine fetches coastal sea conditions and derives a per-district
// coastal flood risk.
package marine

import (
	"time"
)

// Risk classifies coastal conditions for one district.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskModerate Risk = "moderate"
	RiskHigh     Risk = "high"
	RiskSevere   Risk = "severe"
)

// Conditions is the sea state snapshot for one coastal district.
type Conditions struct {
	District  string  `json:"district"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	WaveHeightM      float64  `json:"waveHeightM"`
	WavePeriodS      *float64 `json:"wavePeriodS,omitempty"`
	WaveDirection    *float64 `json:"waveDirection,omitempty"`
	SwellHeightM     float64  `json:"swellHeightM"`
	SwellPeriodS     *float64 `json:"swellPeriodS,omitempty"`
	WindWaveHeightM  *float64 `json:"windWaveHeightM,omitempty"`
	MaxWaveHeight24h float64  `json:"maxWaveHeight24h"`

	Risk        Risk      `json:"risk"`
	RiskFactors []string  `json:"riskFactors,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// ComputeRisk grades sea state. The wave height sets the base grade and a
// heavy swell raises it one step.
func ComputeRisk(waveHeightM, swellHeightM float64) (Risk, []string) {
	grade := 0
	var factors []string

	switch {
	case waveHeightM >= 4.0:
		grade = 3
		factors = append(factors, "Very high waves >4m")
	case waveHeightM >= 3.0:
		grade = 2
		factors = append(factors, "High waves >3m")
	case waveHeightM >= 2.0:
		grade = 1
		factors = append(factors, "Rough seas >2m")
	}

	if swellHeightM >= 2.5 {
		grade++
		factors = append(factors, "Heavy swell >2.5m")
	}

	return riskForGrade(grade), factors
}

func riskForGrade(grade int) Risk {
	switch {
	case grade >= 3:
		return RiskSevere
	case grade == 2:
		return RiskHigh
	case grade == 1:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Summary aggregates a cycle of coastal conditions.
type Summary struct {
	Districts      int     `json:"districts"`
	MaxWaveHeightM float64 `json:"maxWaveHeightM"`
	WorstDistrict  string  `json:"worstDistrict,omitempty"`
	AtRisk         int     `json:"atRisk"`
}

// Summarize reports the roughest coast and how many districts sit above
// moderate risk.
func Summarize(conditions []Conditions) Summary {
	sum := Summary{Districts: len(conditions)}
	for _, c := range conditions {
		if c.WaveHeightM > sum.MaxWaveHeightM {
			sum.MaxWaveHeightM = c.WaveHeightM
			sum.WorstDistrict = c.District
		}
		if c.Risk == RiskHigh || c.Risk == RiskSevere {
			sum.AtRisk++
		}
	}
	return sum
}
