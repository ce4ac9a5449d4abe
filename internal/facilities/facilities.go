// Package facilities serves emergency facilities (hospitals, police, fire
// stations, shelters) pulled from OpenStreetMap, with nearby lookups for
// rescue coordination.
package facilities

import (
	"errors"
	"sort"

	"github.com/floodwatch/floodwatch/pkg/geo"
)

// ErrNoHospitals is returned when the facility set holds no hospitals.
var ErrNoHospitals = errors.New("no hospitals in facility set")

// Kind classifies a facility.
type Kind string

const (
	KindHospital Kind = "hospital"
	KindPolice   Kind = "police"
	KindFire     Kind = "fire"
	KindShelter  Kind = "shelter"
)

// Kinds lists every facility kind in display order.
var Kinds = []Kind{KindHospital, KindPolice, KindFire, KindShelter}

// Facility is one mapped emergency facility.
type Facility struct {
	ID        int64             `json:"id"`
	Kind      Kind              `json:"kind"`
	Name      string            `json:"name"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Summary counts facilities by kind.
type Summary struct {
	Hospitals    int `json:"hospitals"`
	Police       int `json:"police"`
	FireStations int `json:"fireStations"`
	Shelters     int `json:"shelters"`
	Total        int `json:"total"`
}

// Summarize tallies a facility set.
func Summarize(facilities []Facility) Summary {
	sum := Summary{Total: len(facilities)}
	for _, f := range facilities {
		switch f.Kind {
		case KindHospital:
			sum.Hospitals++
		case KindPolice:
			sum.Police++
		case KindFire:
			sum.FireStations++
		case KindShelter:
			sum.Shelters++
		}
	}
	return sum
}

// NearbyFacility is a facility with its distance from a query point.
type NearbyFacility struct {
	Facility
	DistanceKm float64 `json:"distanceKm"`
}

// FindNearby returns the closest facilities of each kind within radiusKm of
// a point, at most limitPerType per kind, nearest first.
func FindNearby(facilities []Facility, lat, lon, radiusKm float64, limitPerType int) map[Kind][]NearbyFacility {
	out := make(map[Kind][]NearbyFacility, len(Kinds))
	for _, kind := range Kinds {
		out[kind] = []NearbyFacility{}
	}

	for _, f := range facilities {
		dist := geo.HaversineKm(lat, lon, f.Latitude, f.Longitude)
		if dist > radiusKm {
			continue
		}
		out[f.Kind] = append(out[f.Kind], NearbyFacility{Facility: f, DistanceKm: dist})
	}

	for kind, list := range out {
		sort.Slice(list, func(i, j int) bool { return list[i].DistanceKm < list[j].DistanceKm })
		if limitPerType > 0 && len(list) > limitPerType {
			list = list[:limitPerType]
		}
		out[kind] = list
	}
	return out
}

// NearestHospital returns the closest hospital regardless of distance, or
// false when no hospitals are known.
func NearestHospital(facilities []Facility, lat, lon float64) (NearbyFacility, bool) {
	var (
		best  NearbyFacility
		found bool
	)
	for _, f := range facilities {
		if f.Kind != KindHospital {
			continue
		}
		dist := geo.HaversineKm(lat, lon, f.Latitude, f.Longitude)
		if !found || dist < best.DistanceKm {
			best = NearbyFacility{Facility: f, DistanceKm: dist}
			found = true
		}
	}
	return best, found
}
