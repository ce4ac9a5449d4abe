// Package geo provides geographic primitives shared across fetchers and engines.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used for Haversine distances.
const earthRadiusKm = 6371.0

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Contains checks if a point is within the bounding box.
// Points exactly on an edge are considered inside.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lon >= b.MinLon && lon <= b.MaxLon
}

// Center returns the center point of the bounding box.
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// Intersects reports whether two bounding boxes overlap.
// Boxes that merely touch along an edge are considered overlapping.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return !(b.MaxLat < other.MinLat ||
		b.MinLat > other.MaxLat ||
		b.MaxLon < other.MinLon ||
		b.MinLon > other.MaxLon)
}

// IsValid reports whether the box describes a non-degenerate area within
// valid coordinate ranges.
func (b BoundingBox) IsValid() bool {
	return b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon &&
		b.MinLat >= -90 && b.MaxLat <= 90 &&
		b.MinLon >= -180 && b.MaxLon <= 180
}

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ValidateCoordinates checks that a lat/lon pair is within valid ranges.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
