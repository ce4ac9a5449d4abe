// Package threat computes the composite flood threat assessment from the
// cached weather and river snapshots.
package threat

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/river"
	"github.com/floodwatch/floodwatch/internal/weather"
)

// Level classifies a threat score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// LevelFor buckets a composite score into a threat level.
func LevelFor(score float64) Level {
	switch {
	case score >= 70:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 30:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Component weights for the composite score.
const (
	rainfallWeight = 0.30
	riverWeight    = 0.40
	forecastWeight = 0.30
)

// Factor is one contributor to a district's threat score.
type Factor struct {
	Factor  string  `json:"factor"`
	Value   string  `json:"value"`
	Score   float64 `json:"score"`
	Station string  `json:"station,omitempty"`
	River   string  `json:"river,omitempty"`
}

// DistrictThreat is the computed assessment for one district.
type DistrictThreat struct {
	District      string            `json:"district"`
	ThreatScore   float64           `json:"threatScore"`
	ThreatLevel   Level             `json:"threatLevel"`
	RainfallScore float64           `json:"rainfallScore"`
	RiverScore    float64           `json:"riverScore"`
	ForecastScore float64           `json:"forecastScore"`
	Factors       []Factor          `json:"factors"`
	AlertLevel    region.AlertLevel `json:"currentAlertLevel"`
	Latitude      float64           `json:"latitude"`
	Longitude     float64           `json:"longitude"`
}

// SummaryCounts aggregates district levels and river flood states.
type SummaryCounts struct {
	CriticalDistricts   int `json:"criticalDistricts"`
	HighRiskDistricts   int `json:"highRiskDistricts"`
	MediumRiskDistricts int `json:"mediumRiskDistricts"`
	RiversAtMajorFlood  int `json:"riversAtMajorFlood"`
	RiversAtMinorFlood  int `json:"riversAtMinorFlood"`
	RiversAtAlert       int `json:"riversAtAlert"`
}

// Snapshot is the full national threat assessment.
type Snapshot struct {
	NationalLevel    Level            `json:"nationalThreatLevel"`
	NationalScore    float64          `json:"nationalThreatScore"`
	Summary          SummaryCounts    `json:"summary"`
	TopRiskDistricts []DistrictThreat `json:"topRiskDistricts"`
	AllDistricts     []DistrictThreat `json:"allDistricts"`
	HighestRiskRiver *river.Station   `json:"highestRiskRiver,omitempty"`
	AnalyzedAt       time.Time        `json:"analyzedAt"`
}

// Input carries the source snapshots for one assessment. AlertLevelFor maps a
// district's 24h rainfall to the region's alert band; when nil every district
// reports green.
type Input struct {
	Weather       []weather.DistrictWeather
	Stations      []river.Station
	AlertLevelFor func(rainfall24hMm float64) region.AlertLevel
}

// Compute builds the national threat snapshot. Districts are scored on
// accumulated rainfall, river proximity to flood thresholds, and forecast
// rain, then ranked; the national score weights the worst district over the
// average since emergencies matter more than the mean.
func Compute(in Input, now time.Time) Snapshot {
	threats := make([]DistrictThreat, 0, len(in.Weather))
	for _, w := range in.Weather {
		if w.District == "" {
			continue
		}
		threats = append(threats, computeDistrict(w, in.Stations, in.AlertLevelFor))
	}

	sort.SliceStable(threats, func(i, j int) bool {
		if threats[i].ThreatScore != threats[j].ThreatScore {
			return threats[i].ThreatScore > threats[j].ThreatScore
		}
		return threats[i].District < threats[j].District
	})

	var nationalScore float64
	if len(threats) > 0 {
		var sum, max float64
		for _, t := range threats {
			sum += t.ThreatScore
			if t.ThreatScore > max {
				max = t.ThreatScore
			}
		}
		avg := sum / float64(len(threats))
		nationalScore = avg*0.3 + max*0.7
	}

	counts := SummaryCounts{}
	for _, t := range threats {
		switch t.ThreatLevel {
		case LevelCritical:
			counts.CriticalDistricts++
		case LevelHigh:
			counts.HighRiskDistricts++
		case LevelMedium:
			counts.MediumRiskDistricts++
		}
	}

	riverSummary := river.Summarize(in.Stations)
	counts.RiversAtMajorFlood = riverSummary.MajorFlood
	counts.RiversAtMinorFlood = riverSummary.MinorFlood
	counts.RiversAtAlert = riverSummary.Alert

	top := threats
	if len(top) > 10 {
		top = top[:10]
	}

	return Snapshot{
		NationalLevel:    LevelFor(nationalScore),
		NationalScore:    round1(nationalScore),
		Summary:          counts,
		TopRiskDistricts: top,
		AllDistricts:     threats,
		HighestRiskRiver: riverSummary.HighestRiskStation,
		AnalyzedAt:       now,
	}
}

func computeDistrict(w weather.DistrictWeather, stations []river.Station, alertFor func(float64) region.AlertLevel) DistrictThreat {
	var factors []Factor

	rainfallScore := scoreRainfall(w, &factors)
	riverScore := scoreRivers(w.District, stations, &factors)
	forecastScore := scoreForecast(w, &factors)

	score := rainfallScore*rainfallWeight + riverScore*riverWeight + forecastScore*forecastWeight

	alert := region.AlertGreen
	if alertFor != nil {
		alert = alertFor(w.Rainfall24hMm)
	}

	return DistrictThreat{
		District:      w.District,
		ThreatScore:   round1(score),
		ThreatLevel:   LevelFor(score),
		RainfallScore: round1(rainfallScore),
		RiverScore:    round1(riverScore),
		ForecastScore: round1(forecastScore),
		Factors:       factors,
		AlertLevel:    alert,
		Latitude:      w.Latitude,
		Longitude:     w.Longitude,
	}
}

// scoreRainfall grades accumulated rainfall. The longer windows catch
// saturated ground that a dry last day would otherwise hide.
func scoreRainfall(w weather.DistrictWeather, factors *[]Factor) float64 {
	value := fmt.Sprintf("%.1fmm in 24h", w.Rainfall24hMm)

	switch {
	case w.Rainfall24hMm > 100 || w.Rainfall48hMm > 150 || w.Rainfall72hMm > 200:
		*factors = append(*factors, Factor{Factor: "Heavy Rainfall", Value: value, Score: 100})
		return 100
	case w.Rainfall24hMm > 50 || w.Rainfall48hMm > 100:
		*factors = append(*factors, Factor{Factor: "Moderate Rainfall", Value: value, Score: 70})
		return 70
	case w.Rainfall24hMm > 25:
		*factors = append(*factors, Factor{Factor: "Light Rainfall", Value: value, Score: 40})
		return 40
	default:
		return 10
	}
}

// scoreRivers grades the district's worst station. Every station past (or
// near) a threshold contributes a factor even when another station scores
// higher; a district with no gauged rivers scores 0, not the baseline 10.
func scoreRivers(district string, stations []river.Station, factors *[]Factor) float64 {
	found := false
	max := 0.0

	for _, s := range stations {
		if !stationInDistrict(s, district) {
			continue
		}
		found = true

		levelValue := fmt.Sprintf("%s at %gm", s.StationName, s.WaterLevelM)

		var score float64
		switch {
		case s.PctToMajorFlood() < 0:
			score = 100
			*factors = append(*factors, Factor{
				Factor: "Major Flood Level", Value: levelValue, Score: 100,
				Station: s.StationName, River: s.RiverName,
			})
		case s.PctToMinorFlood() < 0:
			score = 85
			*factors = append(*factors, Factor{
				Factor: "Minor Flood Level", Value: levelValue, Score: 85,
				Station: s.StationName, River: s.RiverName,
			})
		case s.PctToAlert() < 0:
			score = 60
			*factors = append(*factors, Factor{
				Factor: "River Alert Level", Value: levelValue, Score: 60,
				Station: s.StationName, River: s.RiverName,
			})
		case s.PctToAlert() < 20:
			score = 40
			*factors = append(*factors, Factor{
				Factor: "River Rising",
				Value:  fmt.Sprintf("%s at %.0f%% capacity", s.StationName, 100-s.PctToAlert()),
				Score:  40, Station: s.StationName, River: s.RiverName,
			})
		default:
			score = 10
		}

		if score > max {
			max = score
		}
	}

	if !found {
		return 0
	}
	return max
}

// scoreForecast grades expected rain. A district without forecast data scores
// 0 rather than the dry-forecast baseline of 5.
func scoreForecast(w weather.DistrictWeather, factors *[]Factor) float64 {
	if len(w.ForecastDaily) == 0 && w.ForecastRain24hMm == 0 && w.ForecastRain48hMm == 0 {
		return 0
	}

	value := fmt.Sprintf("%.1fmm expected in 24h", w.ForecastRain24hMm)

	switch {
	case w.ForecastRain24hMm > 75 || w.ForecastRain48hMm > 125:
		*factors = append(*factors, Factor{Factor: "Heavy Rain Forecast", Value: value, Score: 100})
		return 100
	case w.ForecastRain24hMm > 50 || w.ForecastRain48hMm > 75:
		*factors = append(*factors, Factor{Factor: "Moderate Rain Forecast", Value: value, Score: 65})
		return 65
	case w.ForecastRain24hMm > 25:
		*factors = append(*factors, Factor{Factor: "Light Rain Forecast", Value: value, Score: 35})
		return 35
	default:
		return 5
	}
}

func stationInDistrict(s river.Station, district string) bool {
	for _, d := range s.Districts {
		if strings.EqualFold(d, district) {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
