// Package weather provides per-district weather observations and forecasts
// with derived danger scoring.
package weather

import (
	"time"
)

// DangerLevel classifies a district's weather danger score.
type DangerLevel string

const (
	DangerLow      DangerLevel = "low"
	DangerModerate DangerLevel = "moderate"
	DangerHigh     DangerLevel = "high"
	DangerCritical DangerLevel = "critical"
)

// DailyForecast is one day of the district forecast.
type DailyForecast struct {
	Date            string   `json:"date"`
	TempMinC        *float64 `json:"tempMinC,omitempty"`
	TempMaxC        *float64 `json:"tempMaxC,omitempty"`
	PrecipitationMm float64  `json:"precipitationMm"`
	PrecipProb      float64  `json:"precipitationProbability"`
	WindSpeedKmh    *float64 `json:"windSpeedKmh,omitempty"`
	Description     string   `json:"description,omitempty"`
}

// DistrictWeather is the normalised weather snapshot for one district:
// current observation, accumulated and forecast rainfall, and the derived
// danger assessment.
type DistrictWeather struct {
	District  string  `json:"district"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	TemperatureC    *float64 `json:"temperatureC,omitempty"`
	HumidityPercent *float64 `json:"humidityPercent,omitempty"`
	PressureHpa     *float64 `json:"pressureHpa,omitempty"`
	CloudCover      *float64 `json:"cloudCoverPercent,omitempty"`
	WindSpeedKmh    float64  `json:"windSpeedKmh"`
	WindGustKmh     *float64 `json:"windGustKmh,omitempty"`
	WindDirection   *float64 `json:"windDirection,omitempty"`

	Rainfall24hMm     float64 `json:"rainfall24hMm"`
	Rainfall48hMm     float64 `json:"rainfall48hMm"`
	Rainfall72hMm     float64 `json:"rainfall72hMm"`
	ForecastRain24hMm float64 `json:"forecastRain24hMm"`
	ForecastRain48hMm float64 `json:"forecastRain48hMm"`
	PrecipProb        float64 `json:"precipitationProbability"`

	DangerLevel   DangerLevel `json:"dangerLevel"`
	DangerScore   int         `json:"dangerScore"`
	DangerFactors []string    `json:"dangerFactors"`

	ForecastDaily []DailyForecast `json:"forecastDaily,omitempty"`
	Description   string          `json:"description,omitempty"`
	Source        string          `json:"source"`
	FetchedAt     time.Time       `json:"fetchedAt"`
}

// RainfallForHours returns the accumulated rainfall for a 24/48/72h window.
// Unknown windows fall back to 24h.
func (w DistrictWeather) RainfallForHours(hours int) float64 {
	switch hours {
	case 48:
		return w.Rainfall48hMm
	case 72:
		return w.Rainfall72hMm
	default:
		return w.Rainfall24hMm
	}
}

// ComputeDanger scores a district's conditions. One rainfall band, the
// precipitation-probability bonus, and one wind band can each contribute.
func ComputeDanger(rainfall24hMm, precipProb, windSpeedKmh float64) (int, DangerLevel, []string) {
	score := 0
	var factors []string

	switch {
	case rainfall24hMm > 100:
		score += 40
		factors = append(factors, "Heavy rainfall >100mm")
	case rainfall24hMm > 50:
		score += 25
		factors = append(factors, "Moderate rainfall >50mm")
	case rainfall24hMm > 25:
		score += 10
		factors = append(factors, "Light rainfall >25mm")
	}

	if precipProb > 80 {
		score += 15
		factors = append(factors, "High precipitation probability")
	}

	switch {
	case windSpeedKmh > 60:
		score += 20
		factors = append(factors, "Strong winds >60km/h")
	case windSpeedKmh > 40:
		score += 10
		factors = append(factors, "Moderate winds >40km/h")
	}

	return score, dangerLevelFor(score), factors
}

func dangerLevelFor(score int) DangerLevel {
	switch {
	case score >= 50:
		return DangerCritical
	case score >= 30:
		return DangerHigh
	case score >= 15:
		return DangerModerate
	default:
		return DangerLow
	}
}
