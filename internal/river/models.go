// Package river provides the provider abstraction and cached service for
// river water-level data across regions.
package river

import (
	"errors"
	"math"
	"time"
)

// River errors.
var (
	ErrNotSupported    = errors.New("operation not supported by provider")
	ErrStationNotFound = errors.New("station not found")
	ErrUnknownProvider = errors.New("unknown river provider")
)

// Status describes a station's flood state.
type Status string

const (
	StatusNormal     Status = "normal"
	StatusRising     Status = "rising"
	StatusFalling    Status = "falling"
	StatusAlert      Status = "alert"
	StatusMinorFlood Status = "minorFlood"
	StatusMajorFlood Status = "majorFlood"
)

// Thresholds holds a station's flood threshold levels in meters.
// Invariant: AlertM <= MinorFloodM <= MajorFloodM when all are present.
type Thresholds struct {
	AlertM      float64 `json:"alertM"`
	MinorFloodM float64 `json:"minorFloodM"`
	MajorFloodM float64 `json:"majorFloodM"`
}

// Station is a normalised river gauge station. StationID is globally unique
// in the form <region>_<riverCode>_<stationName>.
type Station struct {
	StationID           string      `json:"stationId"`
	RiverName           string      `json:"riverName"`
	RiverCode           string      `json:"riverCode,omitempty"`
	StationName         string      `json:"stationName"`
	Latitude            float64     `json:"latitude"`
	Longitude           float64     `json:"longitude"`
	CatchmentKm2        *float64    `json:"catchmentKm2,omitempty"`
	WaterLevelM         float64     `json:"waterLevelM"`
	WaterLevelPreviousM *float64    `json:"waterLevelPreviousM,omitempty"`
	Rainfall24hMm       *float64    `json:"rainfall24hMm,omitempty"`
	Thresholds          *Thresholds `json:"thresholds,omitempty"`
	Status              Status      `json:"status"`
	LastUpdated         time.Time   `json:"lastUpdated"`
	RegionID            string      `json:"regionId"`

	// Districts the river passes through near this station; used by the
	// threat engine to attribute river risk to districts.
	Districts []string `json:"districts,omitempty"`
}

// PctToAlert returns how far the water level is from the alert threshold as
// a percentage: negative once the threshold is exceeded. Returns +100 when
// the station has no thresholds.
func (s Station) PctToAlert() float64 {
	if s.Thresholds == nil || s.Thresholds.AlertM <= 0 {
		return 100
	}
	return round1(100 - s.WaterLevelM/s.Thresholds.AlertM*100)
}

// PctToMinorFlood is PctToAlert against the minor flood threshold.
func (s Station) PctToMinorFlood() float64 {
	if s.Thresholds == nil || s.Thresholds.MinorFloodM <= 0 {
		return 100
	}
	return round1(100 - s.WaterLevelM/s.Thresholds.MinorFloodM*100)
}

// PctToMajorFlood is PctToAlert against the major flood threshold.
func (s Station) PctToMajorFlood() float64 {
	if s.Thresholds == nil || s.Thresholds.MajorFloodM <= 0 {
		return 100
	}
	return round1(100 - s.WaterLevelM/s.Thresholds.MajorFloodM*100)
}

// ClassifyStatus buckets a water level against thresholds, falling back to
// the rising/falling trend when below alert. A level exactly at a threshold
// takes that threshold's status.
func ClassifyStatus(waterLevelM float64, previousM *float64, thresholds *Thresholds) Status {
	if thresholds != nil {
		switch {
		case thresholds.MajorFloodM > 0 && waterLevelM >= thresholds.MajorFloodM:
			return StatusMajorFlood
		case thresholds.MinorFloodM > 0 && waterLevelM >= thresholds.MinorFloodM:
			return StatusMinorFlood
		case thresholds.AlertM > 0 && waterLevelM >= thresholds.AlertM:
			return StatusAlert
		}
	}

	if previousM != nil {
		const trendEpsilon = 0.01
		switch {
		case waterLevelM > *previousM+trendEpsilon:
			return StatusRising
		case waterLevelM < *previousM-trendEpsilon:
			return StatusFalling
		}
	}

	return StatusNormal
}

// Reading is a single water-level observation in the append-only history stream.
type Reading struct {
	StationID   string    `json:"stationId"`
	WaterLevelM float64   `json:"waterLevelM"`
	RainfallMm  *float64  `json:"rainfallMm,omitempty"`
	Status      Status    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// Summary aggregates station statuses for the threat snapshot.
type Summary struct {
	TotalStations      int      `json:"totalStations"`
	MajorFlood         int      `json:"majorFlood"`
	MinorFlood         int      `json:"minorFlood"`
	Alert              int      `json:"alert"`
	Rising             int      `json:"rising"`
	Normal             int      `json:"normal"`
	HighestRiskStation *Station `json:"highestRiskStation,omitempty"`
}

// Summarize computes status counts and the station closest to (or furthest
// past) its flood thresholds.
func Summarize(stations []Station) Summary {
	sum := Summary{TotalStations: len(stations)}

	var worst *Station
	worstPct := math.Inf(1)

	for i := range stations {
		s := &stations[i]
		switch s.Status {
		case StatusMajorFlood:
			sum.MajorFlood++
		case StatusMinorFlood:
			sum.MinorFlood++
		case StatusAlert:
			sum.Alert++
		case StatusRising:
			sum.Rising++
		default:
			sum.Normal++
		}

		if pct := s.PctToAlert(); pct < worstPct {
			worstPct = pct
			worst = s
		}
	}

	if worst != nil && worstPct < 100 {
		cp := *worst
		sum.HighestRiskStation = &cp
	}

	return sum
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
