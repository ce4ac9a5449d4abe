package region

import (
	"errors"

	"github.com/floodwatch/floodwatch/pkg/geo"
)

// Region errors.
var (
	ErrUnknownRegion   = errors.New("unknown region")
	ErrUnknownDistrict = errors.New("unknown district")
	ErrEmptyRegionID   = errors.New("region id cannot be empty")
)

// AlertLevel is a rainfall alert band.
type AlertLevel string

const (
	AlertGreen  AlertLevel = "green"
	AlertYellow AlertLevel = "yellow"
	AlertOrange AlertLevel = "orange"
	AlertRed    AlertLevel = "red"
)

// severityOrder lists alert levels from most to least severe; the first band
// matching a rainfall value wins.
var severityOrder = []AlertLevel{AlertRed, AlertOrange, AlertYellow, AlertGreen}

// ThresholdBand is a rainfall range in millimeters for one alert level.
type ThresholdBand struct {
	MinRain float64 `json:"minRain"`
	MaxRain float64 `json:"maxRain"`
}

// Coordinate is a lat/lon pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Region is an administrative area with its own thresholds and provider set.
// Regions are immutable once loaded; Reload replaces the whole registry map.
type Region struct {
	ID              string                       `json:"id"`
	Name            string                       `json:"name"`
	Active          bool                         `json:"active"`
	Bounds          geo.BoundingBox              `json:"bounds"`
	Center          Coordinate                   `json:"center"`
	TimeZone        string                       `json:"timeZone"`
	Currency        string                       `json:"currency"`
	Languages       []string                     `json:"languages"`
	AlertThresholds map[AlertLevel]ThresholdBand `json:"alertThresholds"`
	DataProviders   map[string][]string          `json:"dataProviders"`
	SMSGateway      string                       `json:"smsGateway"`
}

// AlertLevelFor returns the alert band for a rainfall amount.
// Bands are scanned in severity order; green is the fallback.
func (r Region) AlertLevelFor(rainfallMm float64) AlertLevel {
	for _, level := range severityOrder {
		band, ok := r.AlertThresholds[level]
		if !ok {
			continue
		}
		if rainfallMm >= band.MinRain && rainfallMm <= band.MaxRain {
			return level
		}
	}
	return AlertGreen
}

// Providers returns the provider ids configured for one provider type
// (e.g. "rivers", "weather", "emergencyServices").
func (r Region) Providers(providerType string) []string {
	return r.DataProviders[providerType]
}

// District is a named point within a region.
type District struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
