// Package earlywarning provides per-district early warnings built from
// government weather alerts plus 48-hour hourly and 8-day daily forecasts.
package earlywarning

import (
	"fmt"
	"time"
)

// RiskLevel classifies a district's early warning risk.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"

	// RiskUnknown marks districts whose fetch failed this cycle.
	RiskUnknown RiskLevel = "unknown"
)

// riskOrder sorts warnings most severe first.
var riskOrder = map[RiskLevel]int{
	RiskExtreme: 0,
	RiskHigh:    1,
	RiskMedium:  2,
	RiskLow:     3,
	RiskUnknown: 4,
}

// Rank returns the sort position of the level, most severe first.
func (l RiskLevel) Rank() int {
	if r, ok := riskOrder[l]; ok {
		return r
	}
	return riskOrder[RiskUnknown]
}

// RiskFactor is one contributor to a district's risk score.
type RiskFactor struct {
	Factor   string `json:"factor"`
	Detail   string `json:"detail"`
	Severity string `json:"severity"`
}

// GovAlert is a government weather alert attached to a district.
type GovAlert struct {
	Sender      string    `json:"sender"`
	Event       string    `json:"event"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags,omitempty"`
}

// HourlyPoint is one hour of the 48-hour forecast.
type HourlyPoint struct {
	Time        time.Time `json:"time"`
	TempC       *float64  `json:"tempC,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	WindSpeedMs float64   `json:"windSpeedMs"`
	WindGustMs  float64   `json:"windGustMs"`
	PrecipProb  float64   `json:"precipitationProbability"`
	RainMm      float64   `json:"rainMm"`
	Description string    `json:"description,omitempty"`
}

// DailyPoint is one day of the 8-day forecast.
type DailyPoint struct {
	Date        string   `json:"date"`
	Summary     string   `json:"summary,omitempty"`
	TempMinC    *float64 `json:"tempMinC,omitempty"`
	TempMaxC    *float64 `json:"tempMaxC,omitempty"`
	WindSpeedMs float64  `json:"windSpeedMs"`
	PrecipProb  float64  `json:"precipitationProbability"`
	RainMm      float64  `json:"rainMm"`
	AlertLevel  string   `json:"alertLevel"`
}

// Precipitation summarises forecast rainfall windows.
type Precipitation struct {
	Next1hMm  float64 `json:"next1hMm"`
	Next24hMm float64 `json:"next24hMm"`
	Next48hMm float64 `json:"next48hMm"`
}

// DistrictWarning is the early warning snapshot for one district. A district
// whose fetch failed carries Error and RiskUnknown; the other districts in
// the cycle are unaffected.
type DistrictWarning struct {
	District  string    `json:"district"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	FetchedAt time.Time `json:"fetchedAt"`

	RiskLevel   RiskLevel    `json:"riskLevel"`
	RiskScore   int          `json:"riskScore"`
	RiskFactors []RiskFactor `json:"riskFactors,omitempty"`

	Alerts     []GovAlert `json:"alerts"`
	AlertCount int        `json:"alertCount"`

	Precipitation Precipitation `json:"precipitation"`
	Hourly        []HourlyPoint `json:"hourlyForecast,omitempty"`
	Daily         []DailyPoint  `json:"dailyForecast,omitempty"`

	Error string `json:"error,omitempty"`
}

// RiskInput carries the signals the risk score is computed from.
type RiskInput struct {
	AlertCount    int
	AlertEvents   []string
	Precip24hMm   float64
	HighPopHours  int     // hours in the next 24 with >80% rain probability
	MaxWindMs     float64 // strongest sustained wind in the next 24h
	MaxGustMs     float64 // strongest gust in the next 24h
	CurrentRainMm float64 // rain in the last hour
}

// ComputeRisk scores a district's flood risk from government alerts,
// forecast rainfall, rain probability persistence, wind, and current rain.
func ComputeRisk(in RiskInput) (RiskLevel, int, []RiskFactor) {
	score := 0
	var factors []RiskFactor

	if in.AlertCount > 0 {
		points := in.AlertCount * 20
		if points > 40 {
			points = 40
		}
		score += points
		for _, event := range in.AlertEvents {
			factors = append(factors, RiskFactor{
				Factor:   "Government Alert",
				Detail:   event,
				Severity: "high",
			})
		}
	}

	switch {
	case in.Precip24hMm >= 150:
		score += 30
		factors = append(factors, rainFactor("Extreme rainfall forecast", in.Precip24hMm, "high"))
	case in.Precip24hMm >= 100:
		score += 25
		factors = append(factors, rainFactor("Heavy rainfall forecast", in.Precip24hMm, "high"))
	case in.Precip24hMm >= 50:
		score += 15
		factors = append(factors, rainFactor("Significant rainfall forecast", in.Precip24hMm, "medium"))
	case in.Precip24hMm >= 25:
		score += 8
		factors = append(factors, rainFactor("Moderate rainfall forecast", in.Precip24hMm, "low"))
	}

	switch {
	case in.HighPopHours >= 12:
		score += 15
		factors = append(factors, RiskFactor{
			Factor:   "Sustained high rain probability",
			Detail:   fmt.Sprintf("%d hours with >80%% chance", in.HighPopHours),
			Severity: "medium",
		})
	case in.HighPopHours >= 6:
		score += 8
		factors = append(factors, RiskFactor{
			Factor:   "High rain probability",
			Detail:   fmt.Sprintf("%d hours with >80%% chance", in.HighPopHours),
			Severity: "low",
		})
	}

	if in.MaxGustMs >= 25 || in.MaxWindMs >= 15 {
		score += 10
		factors = append(factors, RiskFactor{
			Factor:   "Strong winds",
			Detail:   fmt.Sprintf("Gusts up to %.1f m/s", in.MaxGustMs),
			Severity: "medium",
		})
	}

	if in.CurrentRainMm >= 10 {
		score += 10
		factors = append(factors, RiskFactor{
			Factor:   "Heavy rain occurring now",
			Detail:   fmt.Sprintf("%.1fmm in last hour", in.CurrentRainMm),
			Severity: "high",
		})
	}

	if score > 100 {
		score = 100
	}

	return riskLevelFor(score), score, factors
}

func rainFactor(name string, mm float64, severity string) RiskFactor {
	return RiskFactor{
		Factor:   name,
		Detail:   fmt.Sprintf("%.1fmm in next 24h", mm),
		Severity: severity,
	}
}

func riskLevelFor(score int) RiskLevel {
	switch {
	case score >= 60:
		return RiskExtreme
	case score >= 40:
		return RiskHigh
	case score >= 20:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DailyAlertLevel grades one forecast day into the red/orange/yellow/green
// ladder from its rainfall and rain probability.
func DailyAlertLevel(rainMm, popPercent float64) string {
	switch {
	case rainMm >= 150 || (rainMm >= 100 && popPercent >= 80):
		return "red"
	case rainMm >= 100 || (rainMm >= 50 && popPercent >= 70):
		return "orange"
	case rainMm >= 50 || popPercent >= 60:
		return "yellow"
	default:
		return "green"
	}
}

// NationalSummary aggregates a full cycle of district warnings.
type NationalSummary struct {
	Districts        int               `json:"districts"`
	AlertCount       int               `json:"alertCount"`
	RiskDistribution map[RiskLevel]int `json:"riskDistribution"`
	HighestRisk      []string          `json:"highestRisk,omitempty"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}

// Summarize builds the national view: total government alerts and the
// distribution of district risk levels. Districts at high or extreme risk
// are listed by name.
func Summarize(warnings []DistrictWarning, now time.Time) NationalSummary {
	sum := NationalSummary{
		Districts:        len(warnings),
		RiskDistribution: make(map[RiskLevel]int),
		GeneratedAt:      now.UTC(),
	}

	for _, w := range warnings {
		sum.AlertCount += w.AlertCount
		sum.RiskDistribution[w.RiskLevel]++
		if w.RiskLevel == RiskHigh || w.RiskLevel == RiskExtreme {
			sum.HighestRisk = append(sum.HighestRisk, w.District)
		}
	}

	return sum
}
