package weather

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

	"github.com/floodwatch/floodwatch/internal/region"
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

const testDistrictsDoc = `{
  "districts": [
    {"name": "Colombo", "latitude": 6.9271, "longitude": 79.8612},
    {"name": "Ratnapura", "latitude": 6.6828, "longitude": 80.3992}
  ]
}`

func newTestRegions(t *testing.T) *region.Registry {
	t.Helper()

	dir := t.TempDir()
	regionsPath := filepath.Join(dir, "regions.json")
	require.NoError(t, os.WriteFile(regionsPath, []byte(testRegionsDoc), 0o644))

	districtsDir := filepath.Join(dir, "districts")
	require.NoError(t, os.MkdirAll(districtsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(districtsDir, "srilanka.json"), []byte(testDistrictsDoc), 0o644))

	registry, err := region.NewRegistry(region.RegistryConfig{
		RegionsPath:  regionsPath,
		DistrictsDir: districtsDir,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	return registry
}

// fakeProvider returns canned snapshots or an error.
type fakeProvider struct {
	name      string
	snapshots []DistrictWeather
	err       error
	calls     int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchDistricts(ctx context.Context, districts []region.District) ([]DistrictWeather, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshots, nil
}

func newTestService(t *testing.T, primary, fallback Provider) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		Primary:       primary,
		Fallback:      fallback,
		Regions:       newTestRegions(t),
		CurrentRegion: "srilanka",
		TTL:           time.Minute,
		Logger:        zerolog.Nop(),
	})
}

func TestService_All_PrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "here", snapshots: []DistrictWeather{
		{District: "Ratnapura", Rainfall24hMm: 60, WindSpeedKmh: 20},
		{District: "Colombo", Rainfall24hMm: 10, WindSpeedKmh: 10},
	}}
	fallback := &fakeProvider{name: "open_meteo"}
	svc := newTestService(t, primary, fallback)

	snapshots, info, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Zero(t, fallback.calls)
	assert.True(t, info.IsValid)

	// Sorted by district, danger recomputed by the service.
	assert.Equal(t, "Colombo", snapshots[0].District)
	assert.Equal(t, DangerLow, snapshots[0].DangerLevel)
	assert.Equal(t, "Ratnapura", snapshots[1].District)
	assert.Equal(t, 25, snapshots[1].DangerScore)
	assert.Equal(t, DangerModerate, snapshots[1].DangerLevel)
}

func TestService_All_FallsBackWhenPrimaryFails(t *testing.T) {
	primary := &fakeProvider{name: "here", err: errors.New("401 unauthorized")}
	fallback := &fakeProvider{name: "open_meteo", snapshots: []DistrictWeather{
		{District: "Colombo", Rainfall24hMm: 5},
	}}
	svc := newTestService(t, primary, fallback)

	snapshots, _, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, fallback.calls)
}

func TestService_All_BothProvidersFail(t *testing.T) {
	primary := &fakeProvider{name: "here", err: errors.New("down")}
	fallback := &fakeProvider{name: "open_meteo", err: errors.New("also down")}
	svc := newTestService(t, primary, fallback)

	_, _, err := svc.All(context.Background())
	assert.Error(t, err)
}

func TestService_Rainfall_AppliesAlertBands(t *testing.T) {
	primary := &fakeProvider{name: "here", snapshots: []DistrictWeather{
		{District: "Colombo", Rainfall24hMm: 25},
		{District: "Ratnapura", Rainfall24hMm: 120},
	}}
	svc := newTestService(t, primary, nil)

	rainfall, err := svc.Rainfall(context.Background(), 24)
	require.NoError(t, err)
	require.Len(t, rainfall, 2)

	// 25mm sits on the green/yellow boundary; the more severe band wins.
	assert.Equal(t, region.AlertYellow, rainfall[0].AlertLevel)
	assert.Equal(t, region.AlertRed, rainfall[1].AlertLevel)
}

func TestService_District(t *testing.T) {
	primary := &fakeProvider{name: "here", snapshots: []DistrictWeather{
		{District: "Colombo", Rainfall24hMm: 5},
	}}
	svc := newTestService(t, primary, nil)

	w, err := svc.District(context.Background(), "colombo")
	require.NoError(t, err)
	assert.Equal(t, "Colombo", w.District)

	_, err = svc.District(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, region.ErrUnknownDistrict)
}

func TestService_Forecasts_OnlyDistrictsWithDailyData(t *testing.T) {
	primary := &fakeProvider{name: "here", snapshots: []DistrictWeather{
		{District: "Colombo", ForecastDaily: []DailyForecast{{Date: "2026-06-02"}}},
		{District: "Ratnapura"},
	}}
	svc := newTestService(t, primary, nil)

	forecasts, err := svc.Forecasts(context.Background())
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	assert.Equal(t, "Colombo", forecasts[0].District)
}
