// Package traffic fetches road incidents and flow conditions from TomTom and
// HERE and normalises them into a single view of the road network.
package traffic

import (
	"strings"
	"time"
)

// IconCategory is the upstream incident classification code.
type IconCategory int

const (
	IconUnknown             IconCategory = 0
	IconAccident            IconCategory = 1
	IconFog                 IconCategory = 2
	IconDangerousConditions IconCategory = 3
	IconRain                IconCategory = 4
	IconIce                 IconCategory = 5
	IconJam                 IconCategory = 6
	IconLaneClosed          IconCategory = 7
	IconRoadClosed          IconCategory = 8
	IconRoadworks           IconCategory = 9
	IconWind                IconCategory = 10
	IconFlooding            IconCategory = 11
	IconBrokenDownVehicle   IconCategory = 14
)

var categoryNames = map[IconCategory]string{
	IconUnknown:             "Unknown",
	IconAccident:            "Accident",
	IconFog:                 "Fog",
	IconDangerousConditions: "Dangerous Conditions",
	IconRain:                "Rain",
	IconIce:                 "Ice",
	IconJam:                 "Jam",
	IconLaneClosed:          "Lane Closed",
	IconRoadClosed:          "Road Closed",
	IconRoadworks:           "Road Works",
	IconWind:                "Wind",
	IconFlooding:            "Flooding",
	IconBrokenDownVehicle:   "Broken Down Vehicle",
}

// Name returns the display name for an icon category. Codes the upstream has
// not documented map to "Unknown" rather than being dropped.
func (c IconCategory) Name() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Severity classifies an incident by the delay it causes.
type Severity string

const (
	SeverityUnknown  Severity = "unknown"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// SeverityForDelay maps the upstream magnitudeOfDelay code to a severity.
func SeverityForDelay(magnitude int) Severity {
	switch {
	case magnitude >= 4:
		return SeverityCritical
	case magnitude >= 3:
		return SeverityMajor
	case magnitude >= 2:
		return SeverityModerate
	case magnitude >= 1:
		return SeverityMinor
	default:
		return SeverityUnknown
	}
}

// Incident is one normalised road incident.
type Incident struct {
	ID           string       `json:"id"`
	IconCategory IconCategory `json:"iconCategory"`
	Category     string       `json:"category"`
	Severity     Severity     `json:"severity"`
	Latitude     float64      `json:"lat"`
	Longitude    float64      `json:"lon"`
	Description  string       `json:"description"`
	FromLocation string       `json:"fromLocation"`
	ToLocation   string       `json:"toLocation"`
	RoadName     string       `json:"roadName"`
	DelaySec     int          `json:"delaySec"`
	LengthM      int          `json:"lengthM"`
	StartTime    *time.Time   `json:"startTime,omitempty"`
	EndTime      *time.Time   `json:"endTime,omitempty"`
}

// DedupIncidents drops repeated incident ids, keeping the first occurrence.
// Sub-region tiles overlap, so the same incident can arrive more than once.
func DedupIncidents(incidents []Incident) []Incident {
	seen := make(map[string]struct{}, len(incidents))
	out := incidents[:0:0]
	for _, inc := range incidents {
		if _, ok := seen[inc.ID]; ok {
			continue
		}
		seen[inc.ID] = struct{}{}
		out = append(out, inc)
	}
	return out
}

// IncidentSummary counts incidents by the categories rescue crews care about.
type IncidentSummary struct {
	Total      int `json:"total"`
	RoadClosed int `json:"roadClosed"`
	Accidents  int `json:"accidents"`
	Roadworks  int `json:"roadworks"`
	Flooding   int `json:"flooding"`
	Jams       int `json:"jams"`
	Other      int `json:"other"`
}

// SummarizeIncidents tallies a cycle of incidents.
func SummarizeIncidents(incidents []Incident) IncidentSummary {
	sum := IncidentSummary{Total: len(incidents)}
	for _, inc := range incidents {
		switch inc.IconCategory {
		case IconRoadClosed:
			sum.RoadClosed++
		case IconAccident:
			sum.Accidents++
		case IconRoadworks:
			sum.Roadworks++
		case IconFlooding:
			sum.Flooding++
		case IconJam:
			sum.Jams++
		default:
			sum.Other++
		}
	}
	return sum
}

// categoryFilters are the filter keys accepted by FilterByCategory.
var categoryFilters = map[string]IconCategory{
	"road_closed": IconRoadClosed,
	"accident":    IconAccident,
	"roadworks":   IconRoadworks,
	"flooding":    IconFlooding,
	"jam":         IconJam,
}

// FilterByCategory returns the incidents matching a filter key. An
// unrecognised key returns the full list unfiltered.
func FilterByCategory(incidents []Incident, category string) []Incident {
	icon, ok := categoryFilters[strings.ToLower(category)]
	if !ok {
		return incidents
	}

	var out []Incident
	for _, inc := range incidents {
		if inc.IconCategory == icon {
			out = append(out, inc)
		}
	}
	return out
}

// FilterBySeverity returns the incidents at exactly the requested severity.
func FilterBySeverity(incidents []Incident, severity Severity) []Incident {
	var out []Incident
	for _, inc := range incidents {
		if inc.Severity == severity {
			out = append(out, inc)
		}
	}
	return out
}

// Congestion buckets a segment's current speed against its free-flow speed.
type Congestion string

const (
	CongestionFree     Congestion = "free"
	CongestionLight    Congestion = "light"
	CongestionModerate Congestion = "moderate"
	CongestionHeavy    Congestion = "heavy"
	CongestionSevere   Congestion = "severe"
)

// CongestionFor buckets the current/free-flow speed ratio. A segment with no
// usable free-flow reference is treated as free.
func CongestionFor(currentKmh, freeFlowKmh float64) Congestion {
	if freeFlowKmh <= 0 {
		return CongestionFree
	}

	ratio := currentKmh / freeFlowKmh
	switch {
	case ratio > 0.9:
		return CongestionFree
	case ratio >= 0.7:
		return CongestionLight
	case ratio >= 0.5:
		return CongestionModerate
	case ratio >= 0.3:
		return CongestionHeavy
	default:
		return CongestionSevere
	}
}

// FlowSegment is the flow reading for one monitored road point.
type FlowSegment struct {
	Location         string     `json:"location"`
	RoadName         string     `json:"roadName"`
	Latitude         float64    `json:"lat"`
	Longitude        float64    `json:"lon"`
	CurrentSpeedKmh  float64    `json:"currentSpeedKmh"`
	FreeFlowSpeedKmh float64    `json:"freeFlowSpeedKmh"`
	JamFactor        *float64   `json:"jamFactor,omitempty"`
	RoadClosure      bool       `json:"roadClosure"`
	Congestion       Congestion `json:"congestion"`
	Source           string     `json:"source"`
	FetchedAt        time.Time  `json:"fetchedAt"`
}

// FlowSummary counts monitored segments per congestion bucket.
type FlowSummary struct {
	Segments int `json:"segments"`
	Free     int `json:"free"`
	Light    int `json:"light"`
	Moderate int `json:"moderate"`
	Heavy    int `json:"heavy"`
	Severe   int `json:"severe"`
	Closed   int `json:"closed"`
}

// SummarizeFlow tallies a cycle of flow segments.
func SummarizeFlow(segments []FlowSegment) FlowSummary {
	sum := FlowSummary{Segments: len(segments)}
	for _, seg := range segments {
		if seg.RoadClosure {
			sum.Closed++
		}
		switch seg.Congestion {
		case CongestionFree:
			sum.Free++
		case CongestionLight:
			sum.Light++
		case CongestionModerate:
			sum.Moderate++
		case CongestionHeavy:
			sum.Heavy++
		case CongestionSevere:
			sum.Severe++
		}
	}
	return sum
}
