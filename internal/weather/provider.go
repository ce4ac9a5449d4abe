package weather

import (
	"context"

	"github.com/floodwatch/floodwatch/internal/region"
)

// Provider fetches weather for a set of districts in one cycle.
// Implementations normalise their upstream payload into DistrictWeather;
// danger scoring is applied by the service so the thresholds live in one
// place regardless of source.
type Provider interface {
	// Name returns the provider identifier, e.g. "here" or "open_meteo".
	Name() string

	// FetchDistricts returns one snapshot per district it could resolve.
	FetchDistricts(ctx context.Context, districts []region.District) ([]DistrictWeather, error)
}
