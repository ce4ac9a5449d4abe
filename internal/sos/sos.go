// Package sos pulls crowdsourced distress reports from the flood-support
// crowdsource API. Reports carry no TTL: the intelligence engine pulls a
// fresh batch on every cycle.
package sos

import (
	"time"
)

// WaterLevel is the reported flood depth at the caller's location.
type WaterLevel string

const (
	WaterAnkle   WaterLevel = "ANKLE"
	WaterWaist   WaterLevel = "WAIST"
	WaterChest   WaterLevel = "CHEST"
	WaterNeck    WaterLevel = "NECK"
	WaterRoof    WaterLevel = "ROOF"
	WaterUnknown WaterLevel = "UNKNOWN"
)

// ParseWaterLevel normalises the upstream water-level string. Anything
// unrecognised maps to WaterUnknown rather than being dropped.
func ParseWaterLevel(value string) WaterLevel {
	switch WaterLevel(value) {
	case WaterAnkle, WaterWaist, WaterChest, WaterNeck, WaterRoof:
		return WaterLevel(value)
	default:
		return WaterUnknown
	}
}

// Report is one crowdsourced distress report.
type Report struct {
	ID        string   `json:"id"`
	District  string   `json:"district"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lon,omitempty"`

	PeopleCount int        `json:"peopleCount"`
	WaterLevel  WaterLevel `json:"waterLevel"`

	HasMedicalEmergency bool `json:"hasMedicalEmergency"`
	HasElderly          bool `json:"hasElderly"`
	HasDisabled         bool `json:"hasDisabled"`
	HasChildren         bool `json:"hasChildren"`
	NeedsFood           bool `json:"needsFood"`
	NeedsWater          bool `json:"needsWater"`

	// SafeHours is how long the caller estimates they can hold out.
	// Nil when the caller did not say.
	SafeHours *float64 `json:"safeHours,omitempty"`

	Phone      string    `json:"phone,omitempty"`
	ReportedAt time.Time `json:"reportedAt"`
}

// HasCoordinates reports whether the report can be placed on the map.
func (r Report) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Dedup drops repeated report ids, keeping the first occurrence.
func Dedup(reports []Report) []Report {
	seen := make(map[string]struct{}, len(reports))
	out := reports[:0:0]
	for _, r := range reports {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
