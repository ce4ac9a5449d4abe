package river

import (
	"context"
	"fmt"

	"github.com/floodwatch/floodwatch/pkg/geo"
)

// PlaceholderProvider reserves a provider slot for an upstream that has no
// integration yet. Every operation returns ErrNotSupported and health checks
// report disconnected, so the region can list the provider in its document
// before the client lands.
type PlaceholderProvider struct {
	name     string
	regionID string
}

// NewPlaceholderProvider creates a provider stub under the given name.
func NewPlaceholderProvider(name, regionID string) *PlaceholderProvider {
	return &PlaceholderProvider{name: name, regionID: regionID}
}

// Name returns the provider name.
func (p *PlaceholderProvider) Name() string { return p.name }

// RegionID returns the region this provider serves.
func (p *PlaceholderProvider) RegionID() string { return p.regionID }

// FetchStations returns ErrNotSupported.
func (p *PlaceholderProvider) FetchStations(ctx context.Context, bounds *geo.BoundingBox) ([]Station, error) {
	return nil, fmt.Errorf("%s: %w", p.name, ErrNotSupported)
}

// FetchStationReading returns ErrNotSupported.
func (p *PlaceholderProvider) FetchStationReading(ctx context.Context, stationID string) (*Reading, error) {
	return nil, fmt.Errorf("%s: %w", p.name, ErrNotSupported)
}

// FetchHistory returns ErrNotSupported.
func (p *PlaceholderProvider) FetchHistory(ctx context.Context, stationID string, hours int) ([]Reading, error) {
	return nil, fmt.Errorf("%s: %w", p.name, ErrNotSupported)
}

// HealthCheck reports the integration as absent.
func (p *PlaceholderProvider) HealthCheck(ctx context.Context) error {
	return fmt.Errorf("%s: %w", p.name, ErrNotSupported)
}

// SouthIndiaPlaceholders returns stubs for the state and national Indian
// water agencies pending integration.
func SouthIndiaPlaceholders() []*PlaceholderProvider {
	names := []string{"india_cwc", "tamil_nadu", "karnataka", "andhra_pradesh", "telangana"}
	out := make([]*PlaceholderProvider, 0, len(names))
	for _, name := range names {
		out = append(out, NewPlaceholderProvider(name, "south_india"))
	}
	return out
}
