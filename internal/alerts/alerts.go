// Package alerts fetches official weather alerts from WeatherAPI.com and
// groups them by severity.
package alerts

import (
	"time"
)

// Severity is the WeatherAPI.com alert severity scale.
type Severity string

const (
	SeverityExtreme  Severity = "Extreme"
	SeveritySevere   Severity = "Severe"
	SeverityModerate Severity = "Moderate"
	SeverityMinor    Severity = "Minor"
	SeverityUnknown  Severity = "Unknown"
)

// NormalizeSeverity maps a raw severity string onto the known scale.
func NormalizeSeverity(raw string) Severity {
	switch Severity(raw) {
	case SeverityExtreme, SeveritySevere, SeverityModerate, SeverityMinor:
		return Severity(raw)
	default:
		return SeverityUnknown
	}
}

// Alert is one official weather alert for a location.
type Alert struct {
	Location  string     `json:"location"`
	Headline  string     `json:"headline"`
	Event     string     `json:"event"`
	Severity  Severity   `json:"severity"`
	Urgency   string     `json:"urgency,omitempty"`
	Areas     string     `json:"areas,omitempty"`
	Category  string     `json:"category,omitempty"`
	Certainty string     `json:"certainty,omitempty"`
	Effective *time.Time `json:"effective,omitempty"`
	Expires   *time.Time `json:"expires,omitempty"`
	Desc      string     `json:"description,omitempty"`
}

// Key identifies an alert for deduplication across nearby locations that
// receive the same advisory.
func (a Alert) Key() string {
	return a.Event + "|" + a.Headline
}

// SeveritySummary counts alerts per severity bucket.
type SeveritySummary struct {
	Extreme  int `json:"extreme"`
	Severe   int `json:"severe"`
	Moderate int `json:"moderate"`
	Minor    int `json:"minor"`
	Unknown  int `json:"unknown"`
}

// Summarize counts alerts by severity.
func Summarize(alerts []Alert) SeveritySummary {
	var sum SeveritySummary
	for _, a := range alerts {
		switch a.Severity {
		case SeverityExtreme:
			sum.Extreme++
		case SeveritySevere:
			sum.Severe++
		case SeverityModerate:
			sum.Moderate++
		case SeverityMinor:
			sum.Minor++
		default:
			sum.Unknown++
		}
	}
	return sum
}

// Dedup drops repeated advisories, keeping first occurrence order.
func Dedup(alerts []Alert) []Alert {
	seen := make(map[string]struct{}, len(alerts))
	out := alerts[:0:0]
	for _, a := range alerts {
		if _, ok := seen[a.Key()]; ok {
			continue
		}
		seen[a.Key()] = struct{}{}
		out = append(out, a)
	}
	return out
}
