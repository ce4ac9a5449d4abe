package river

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/pkg/geo"
)

const testRegionsDoc = `{
  "regions": [
    {
      "id": "srilanka",
      "name": "Sri Lanka",
      "active": true,
      "bounds": {"minLat": 5.9, "maxLat": 9.9, "minLon": 79.5, "maxLon": 82.0},
      "dataProviders": {"rivers": ["gauges_a", "gauges_b"]}
    },
    {
      "id": "south_india",
      "name": "South India",
      "active": false,
      "bounds": {"minLat": 8.0, "maxLat": 20.0, "minLon": 72.0, "maxLon": 85.0},
      "dataProviders": {"rivers": ["gauges_c"]}
    }
  ]
}`

func newTestRegions(t *testing.T) *region.Registry {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "regions.json")
	require.NoError(t, os.WriteFile(path, []byte(testRegionsDoc), 0o644))

	registry, err := region.NewRegistry(region.RegistryConfig{
		RegionsPath: path,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	return registry
}

// fakeProvider is a hand-rolled Provider for factory and service tests.
type fakeProvider struct {
	name      string
	region    string
	stations  []Station
	fetchErr  error
	healthErr error
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) RegionID() string { return f.region }

func (f *fakeProvider) FetchStations(ctx context.Context, bounds *geo.BoundingBox) ([]Station, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if bounds == nil {
		return f.stations, nil
	}
	var out []Station
	for _, s := range f.stations {
		if bounds.Contains(s.Latitude, s.Longitude) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeProvider) FetchStationReading(ctx context.Context, stationID string) (*Reading, error) {
	for _, s := range f.stations {
		if s.StationID == stationID {
			return &Reading{StationID: stationID, WaterLevelM: s.WaterLevelM, Status: s.Status, Timestamp: s.LastUpdated}, nil
		}
	}
	return nil, ErrStationNotFound
}

func (f *fakeProvider) FetchHistory(ctx context.Context, stationID string, hours int) ([]Reading, error) {
	return nil, ErrNotSupported
}

func (f *fakeProvider) HealthCheck(ctx context.Context) error { return f.healthErr }

func newTestFactory(t *testing.T, providers ...Provider) *Factory {
	t.Helper()
	f := NewFactory(FactoryConfig{Regions: newTestRegions(t), Logger: zerolog.Nop()})
	for _, p := range providers {
		f.Register(p)
	}
	return f
}

func TestFactory_ProvidersForRegion(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka"}
	b := &fakeProvider{name: "gauges_b", region: "srilanka"}
	f := newTestFactory(t, a, b)

	providers, err := f.ProvidersForRegion("srilanka")
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "gauges_a", providers[0].Name())
	assert.Equal(t, "gauges_b", providers[1].Name())

	_, err = f.ProvidersForRegion("atlantis")
	assert.ErrorIs(t, err, region.ErrUnknownRegion)
}

func TestFactory_ProvidersForRegion_SkipsUnregistered(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka"}
	f := newTestFactory(t, a)

	providers, err := f.ProvidersForRegion("srilanka")
	require.NoError(t, err)
	require.Len(t, providers, 1, "gauges_b is configured but not registered")
	assert.Equal(t, "gauges_a", providers[0].Name())
}

func TestFactory_ProvidersForBounds(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka"}
	c := &fakeProvider{name: "gauges_c", region: "south_india"}
	f := newTestFactory(t, a, c)

	// A box over southern Sri Lanka intersects only the srilanka region.
	providers := f.ProvidersForBounds(geo.BoundingBox{MinLat: 6.0, MaxLat: 6.5, MinLon: 80.0, MaxLon: 80.5})
	require.Len(t, providers, 1)
	assert.Equal(t, "gauges_a", providers[0].Name())

	// A box spanning the Palk Strait intersects both regions.
	providers = f.ProvidersForBounds(geo.BoundingBox{MinLat: 8.5, MaxLat: 10.5, MinLon: 78.0, MaxLon: 80.5})
	require.Len(t, providers, 2)
	assert.Equal(t, "gauges_a", providers[0].Name())
	assert.Equal(t, "gauges_c", providers[1].Name())

	// A box over the Atlantic matches nothing.
	providers = f.ProvidersForBounds(geo.BoundingBox{MinLat: 30.0, MaxLat: 40.0, MinLon: -40.0, MaxLon: -30.0})
	assert.Empty(t, providers)
}

func TestFactory_Provider(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka"}
	f := newTestFactory(t, a)

	p, err := f.Provider("gauges_a")
	require.NoError(t, err)
	assert.Equal(t, "gauges_a", p.Name())

	_, err = f.Provider("missing")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestFactory_HealthAll(t *testing.T) {
	healthy := &fakeProvider{name: "gauges_a", region: "srilanka"}
	broken := &fakeProvider{name: "gauges_b", region: "srilanka", healthErr: errors.New("connection refused")}
	stub := NewPlaceholderProvider("gauges_c", "south_india")
	f := newTestFactory(t, healthy, broken, stub)

	health := f.HealthAll(context.Background())
	require.Len(t, health, 3)

	assert.Equal(t, "gauges_a", health[0].Name)
	assert.True(t, health[0].Connected)
	assert.Empty(t, health[0].Error)

	assert.Equal(t, "gauges_b", health[1].Name)
	assert.False(t, health[1].Connected)
	assert.Contains(t, health[1].Error, "connection refused")

	assert.Equal(t, "gauges_c", health[2].Name)
	assert.False(t, health[2].Connected, "placeholder providers always report disconnected")
}

func TestPlaceholderProvider_AllOperationsNotSupported(t *testing.T) {
	p := NewPlaceholderProvider("india_cwc", "south_india")
	ctx := context.Background()

	_, err := p.FetchStations(ctx, nil)
	assert.ErrorIs(t, err, ErrNotSupported)

	_, err = p.FetchStationReading(ctx, "x")
	assert.ErrorIs(t, err, ErrNotSupported)

	_, err = p.FetchHistory(ctx, "x", 24)
	assert.ErrorIs(t, err, ErrNotSupported)

	assert.ErrorIs(t, p.HealthCheck(ctx), ErrNotSupported)
}
