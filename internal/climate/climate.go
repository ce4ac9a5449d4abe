// Package climate analyses decades of archived rainfall to surface the
// monthly flood risk profile and historical extremes per district.
package climate

import (
	"fmt"
	"sort"
	"time"
)

// DailyRainfall is one archived day.
type DailyRainfall struct {
	Date       string  `json:"date"` // YYYY-MM-DD
	RainfallMm float64 `json:"rainfallMm"`
}

// Series is the archived rainfall for one district and year range.
type Series struct {
	District  string          `json:"district"`
	StartYear int             `json:"startYear"`
	EndYear   int             `json:"endYear"`
	Days      []DailyRainfall `json:"days"`
}

// MonthRisk classifies a month's historical flood propensity.
type MonthRisk string

const (
	MonthRiskLow    MonthRisk = "LOW"
	MonthRiskMedium MonthRisk = "MEDIUM"
	MonthRiskHigh   MonthRisk = "HIGH"
)

// monthRiskFor buckets the long-term average rainfall for one month.
// Bands follow the monsoon climatology: a 250mm month historically floods
// the wet-zone basins, 150mm saturates them.
func monthRiskFor(avgMonthlyMm float64) MonthRisk {
	switch {
	case avgMonthlyMm >= 250:
		return MonthRiskHigh
	case avgMonthlyMm >= 150:
		return MonthRiskMedium
	default:
		return MonthRiskLow
	}
}

// MonthlyPattern is the historical profile for one calendar month.
type MonthlyPattern struct {
	Month         int       `json:"month"`
	MonthName     string    `json:"monthName"`
	AvgRainfallMm float64   `json:"avgRainfallMm"`
	MaxDailyMm    float64   `json:"maxDailyMm"`
	ExtremeDays   int       `json:"extremeDays"`
	FloodRisk     MonthRisk `json:"floodRisk"`
}

// ExtremeEvent is one historical day above the extreme-rain threshold.
type ExtremeEvent struct {
	Date       string  `json:"date"`
	RainfallMm float64 `json:"rainfallMm"`
}

// AnalysisSummary aggregates a full analysis.
type AnalysisSummary struct {
	AvgAnnualRainfallMm float64 `json:"avgAnnualRainfallMm"`
	ExtremeRainDays     int     `json:"extremeRainDays"`
	WettestMonth        string  `json:"wettestMonth"`
	MaxDailyMm          float64 `json:"maxDailyMm"`
}

// Analysis is the full historical flood-pattern report for one district.
type Analysis struct {
	District        string           `json:"district"`
	Period          string           `json:"period"`
	Monthly         []MonthlyPattern `json:"monthly"`
	PeakRiskMonths  []MonthlyPattern `json:"peakRiskMonths"`
	ExtremeEvents   []ExtremeEvent   `json:"extremeEvents"`
	Summary         AnalysisSummary  `json:"summary"`
	AnalyzedAt      time.Time        `json:"analyzedAt"`
	ThresholdMm     float64          `json:"thresholdMm"`
	DaysInSeries    int              `json:"daysInSeries"`
}

const (
	// DefaultExtremeThresholdMm marks a day as a potential flood trigger.
	DefaultExtremeThresholdMm = 100.0

	// maxExtremeEvents caps the reported event list.
	maxExtremeEvents = 50
)

// Analyze computes the flood-pattern report from an archived series. An empty
// series yields an empty report rather than an error; a failed archive fetch
// is not a reason to break the read path.
func Analyze(series Series, thresholdMm float64) Analysis {
	if thresholdMm <= 0 {
		thresholdMm = DefaultExtremeThresholdMm
	}

	a := Analysis{
		District:     series.District,
		Period:       periodLabel(series),
		ThresholdMm:  thresholdMm,
		DaysInSeries: len(series.Days),
		AnalyzedAt:   time.Now().UTC(),
	}

	type monthAgg struct {
		total       float64
		maxDaily    float64
		extremeDays int
		yearMonths  map[string]struct{}
	}
	months := make([]monthAgg, 13)
	for i := range months {
		months[i].yearMonths = map[string]struct{}{}
	}

	var (
		total   float64
		extreme []ExtremeEvent
		years   = map[string]struct{}{}
	)

	for _, day := range series.Days {
		t, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			continue
		}

		m := int(t.Month())
		months[m].total += day.RainfallMm
		months[m].yearMonths[day.Date[:7]] = struct{}{}
		if day.RainfallMm > months[m].maxDaily {
			months[m].maxDaily = day.RainfallMm
		}
		if day.RainfallMm >= thresholdMm {
			months[m].extremeDays++
			extreme = append(extreme, ExtremeEvent{Date: day.Date, RainfallMm: day.RainfallMm})
		}

		total += day.RainfallMm
		years[day.Date[:4]] = struct{}{}
		if day.RainfallMm > a.Summary.MaxDailyMm {
			a.Summary.MaxDailyMm = day.RainfallMm
		}
	}

	a.Monthly = make([]MonthlyPattern, 0, 12)
	var wettest MonthlyPattern
	for m := 1; m <= 12; m++ {
		agg := months[m]
		pattern := MonthlyPattern{
			Month:       m,
			MonthName:   time.Month(m).String(),
			MaxDailyMm:  agg.maxDaily,
			ExtremeDays: agg.extremeDays,
		}
		if n := len(agg.yearMonths); n > 0 {
			pattern.AvgRainfallMm = round1(agg.total / float64(n))
		}
		pattern.FloodRisk = monthRiskFor(pattern.AvgRainfallMm)

		a.Monthly = append(a.Monthly, pattern)
		if pattern.FloodRisk == MonthRiskHigh {
			a.PeakRiskMonths = append(a.PeakRiskMonths, pattern)
		}
		if pattern.AvgRainfallMm > wettest.AvgRainfallMm {
			wettest = pattern
		}
	}
	a.Summary.WettestMonth = wettest.MonthName

	if n := len(years); n > 0 {
		a.Summary.AvgAnnualRainfallMm = round1(total / float64(n))
	}
	a.Summary.ExtremeRainDays = len(extreme)

	sort.Slice(extreme, func(i, j int) bool { return extreme[i].RainfallMm > extreme[j].RainfallMm })
	if len(extreme) > maxExtremeEvents {
		extreme = extreme[:maxExtremeEvents]
	}
	a.ExtremeEvents = extreme

	return a
}

func periodLabel(series Series) string {
	if series.StartYear == 0 && series.EndYear == 0 {
		return ""
	}
	return fmt.Sprintf("%d-%d", series.StartYear, series.EndYear)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
