package threat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/river"
	"github.com/floodwatch/floodwatch/internal/weather"
)

const testRegionsDoc = `{
  "regions": [
    {
      "id": "srilanka",
      "name": "Sri Lanka",
      "active": true,
      "bounds": {"minLat": 5.9, "maxLat": 9.9, "minLon": 79.5, "maxLon": 82.0},
      "alertThresholds": {
        "green": {"minRain": 0, "maxRain": 25},
        "yellow": {"minRain": 25, "maxRain": 50},
        "orange": {"minRain": 50, "maxRain": 100},
        "red": {"minRain": 100, "maxRain": 100000}
      }
    }
  ]
}`

func newTestRegions(t *testing.T) *region.Registry {
	t.Helper()

	dir := t.TempDir()
	regionsPath := filepath.Join(dir, "regions.json")
	require.NoError(t, os.WriteFile(regionsPath, []byte(testRegionsDoc), 0o644))

	districtsDir := filepath.Join(dir, "districts")
	require.NoError(t, os.MkdirAll(districtsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(districtsDir, "srilanka.json"),
		[]byte(`{"districts": [{"name": "Ratnapura", "latitude": 6.68, "longitude": 80.4}]}`), 0o644))

	registry, err := region.NewRegistry(region.RegistryConfig{
		RegionsPath:  regionsPath,
		DistrictsDir: districtsDir,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	return registry
}

type fakeWeather struct {
	observations []weather.DistrictWeather
	err          error
	calls        int
}

func (f *fakeWeather) All(ctx context.Context) ([]weather.DistrictWeather, cache.Info, error) {
	f.calls++
	return f.observations, cache.Info{IsValid: true}, f.err
}

type fakeRivers struct {
	stations []river.Station
	err      error
}

func (f *fakeRivers) Stations(ctx context.Context) ([]river.Station, cache.Info, error) {
	return f.stations, cache.Info{IsValid: true}, f.err
}

func newTestThreatService(t *testing.T, w WeatherSource, r RiverSource, ttl time.Duration) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		Weather:       w,
		Rivers:        r,
		Regions:       newTestRegions(t),
		CurrentRegion: "srilanka",
		TTL:           ttl,
		Logger:        zerolog.Nop(),
	})
}

func TestService_Assessment(t *testing.T) {
	w := &fakeWeather{observations: []weather.DistrictWeather{{
		District:          "Ratnapura",
		Rainfall24hMm:     60,
		ForecastRain24hMm: 30,
	}}}
	r := &fakeRivers{stations: []river.Station{alertStation("Ratnapura")}}
	svc := newTestThreatService(t, w, r, time.Minute)

	snap, info, err := svc.Assessment(context.Background())
	require.NoError(t, err)
	assert.True(t, info.IsValid)
	assert.Equal(t, "flood_threat", info.Name)

	require.Len(t, snap.AllDistricts, 1)
	assert.Equal(t, 55.5, snap.AllDistricts[0].ThreatScore)
	assert.Equal(t, LevelHigh, snap.AllDistricts[0].ThreatLevel)
	assert.Equal(t, region.AlertOrange, snap.AllDistricts[0].AlertLevel, "60mm lands in the orange band")
	assert.False(t, snap.AnalyzedAt.IsZero())

	// A second read inside the TTL reuses the computed snapshot.
	_, _, err = svc.Assessment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, w.calls)
}

func TestService_Assessment_RiversDown(t *testing.T) {
	w := &fakeWeather{observations: []weather.DistrictWeather{{
		District:      "Ratnapura",
		Rainfall24hMm: 60,
	}}}
	r := &fakeRivers{err: errors.New("gauge feed down")}
	svc := newTestThreatService(t, w, r, time.Minute)

	snap, _, err := svc.Assessment(context.Background())
	require.NoError(t, err, "missing river data degrades, not fails")
	assert.Zero(t, snap.AllDistricts[0].RiverScore)
	assert.Nil(t, snap.HighestRiskRiver)
}

func TestService_Assessment_WeatherDown(t *testing.T) {
	w := &fakeWeather{err: errors.New("upstream timeout")}
	svc := newTestThreatService(t, w, &fakeRivers{}, time.Minute)

	_, info, err := svc.Assessment(context.Background())
	require.Error(t, err, "nothing cached and nothing to score")
	assert.False(t, info.IsValid)
}

func TestService_District(t *testing.T) {
	w := &fakeWeather{observations: []weather.DistrictWeather{
		{District: "Ratnapura", Rainfall24hMm: 60},
		{District: "Jaffna"},
	}}
	svc := newTestThreatService(t, w, &fakeRivers{}, time.Minute)

	d, err := svc.District(context.Background(), "ratnapura")
	require.NoError(t, err)
	assert.Equal(t, "Ratnapura", d.District)

	_, err = svc.District(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, region.ErrUnknownDistrict)
}

func TestService_Assessment_ServesStaleOnFailure(t *testing.T) {
	w := &fakeWeather{observations: []weather.DistrictWeather{{District: "Ratnapura"}}}
	svc := newTestThreatService(t, w, &fakeRivers{}, time.Nanosecond)

	_, _, err := svc.Assessment(context.Background())
	require.NoError(t, err)

	w.err = errors.New("connection reset")
	time.Sleep(time.Millisecond)

	snap, info, err := svc.Assessment(context.Background())
	require.NoError(t, err, "stale snapshot still serves")
	assert.Len(t, snap.AllDistricts, 1)
	assert.False(t, info.IsValid)
	assert.Contains(t, info.LastError, "connection reset")
}
