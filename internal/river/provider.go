package river

import (
	"context"

	"github.com/floodwatch/floodwatch/pkg/geo"
)

// Provider is a regional river-data source. Implementations normalise one
// upstream agency's feed into Station and Reading records. Operations an
// upstream cannot serve return ErrNotSupported instead of failing.
type Provider interface {
	// Name returns the provider identifier, e.g. "irrigation_dept".
	Name() string

	// RegionID returns the region this provider serves.
	RegionID() string

	// FetchStations returns all stations, optionally limited to bounds.
	FetchStations(ctx context.Context, bounds *geo.BoundingBox) ([]Station, error)

	// FetchStationReading returns the latest reading for one station.
	FetchStationReading(ctx context.Context, stationID string) (*Reading, error)

	// FetchHistory returns readings for the trailing window in hours.
	FetchHistory(ctx context.Context, stationID string, hours int) ([]Reading, error)

	// HealthCheck probes the upstream. A nil error means reachable.
	HealthCheck(ctx context.Context) error
}

// ProviderHealth is the health view of one river provider.
type ProviderHealth struct {
	Name      string `json:"name"`
	RegionID  string `json:"regionId"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}
