package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegions = `{
  "regions": [
    {
      "id": "srilanka",
      "name": "Sri Lanka",
      "active": true,
      "bounds": {"minLat": 5.9, "maxLat": 9.9, "minLon": 79.5, "maxLon": 82.0},
      "center": {"lat": 7.8731, "lon": 80.7718},
      "timeZone": "Asia/Colombo",
      "currency": "LKR",
      "languages": ["si", "ta", "en"],
      "alertThresholds": {
        "green":  {"minRain": 0,   "maxRain": 25},
        "yellow": {"minRain": 25,  "maxRain": 50},
        "orange": {"minRain": 50,  "maxRain": 100},
        "red":    {"minRain": 100, "maxRain": 100000}
      },
      "dataProviders": {
        "weather": ["here", "open_meteo"],
        "rivers": ["irrigation_dept", "srilanka_navy"]
      },
      "smsGateway": "twilio"
    },
    {
      "id": "south_india",
      "name": "South India",
      "active": false,
      "bounds": {"minLat": 8.0, "maxLat": 15.0, "minLon": 74.0, "maxLon": 81.0},
      "center": {"lat": 11.5, "lon": 77.5},
      "timeZone": "Asia/Kolkata",
      "currency": "INR",
      "languages": ["ta", "te", "kn", "en"],
      "alertThresholds": {
        "green":  {"minRain": 0,   "maxRain": 30},
        "yellow": {"minRain": 30,  "maxRain": 60},
        "orange": {"minRain": 60,  "maxRain": 120},
        "red":    {"minRain": 120, "maxRain": 100000}
      },
      "dataProviders": {
        "rivers": ["india_cwc", "tamil_nadu", "karnataka", "andhra_pradesh", "telangana"]
      },
      "smsGateway": "twilio"
    }
  ]
}`

const testDistricts = `{
  "districts": [
    {"name": "Colombo", "latitude": 6.9271, "longitude": 79.8612},
    {"name": "Gampaha", "latitude": 7.0840, "longitude": 79.9930}
  ]
}`

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()

	dir := t.TempDir()
	regionsPath := filepath.Join(dir, "regions.json")
	require.NoError(t, os.WriteFile(regionsPath, []byte(testRegions), 0o644))

	districtsDir := filepath.Join(dir, "districts")
	require.NoError(t, os.Mkdir(districtsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(districtsDir, "srilanka.json"), []byte(testDistricts), 0o644))

	reg, err := NewRegistry(RegistryConfig{
		RegionsPath:  regionsPath,
		DistrictsDir: districtsDir,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	return reg, regionsPath
}

func TestRegistry_Get(t *testing.T) {
	reg, _ := newTestRegistry(t)

	sl, err := reg.Get("srilanka")
	require.NoError(t, err)
	assert.Equal(t, "Sri Lanka", sl.Name)
	assert.True(t, sl.Active)
	assert.Equal(t, []string{"irrigation_dept", "srilanka_navy"}, sl.Providers("rivers"))

	_, err = reg.Get("atlantis")
	assert.ErrorIs(t, err, ErrUnknownRegion)

	_, err = reg.Get("")
	assert.ErrorIs(t, err, ErrEmptyRegionID)
}

func TestRegistry_ListActive(t *testing.T) {
	reg, _ := newTestRegistry(t)

	assert.Len(t, reg.List(), 2)

	active := reg.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, "srilanka", active[0].ID)
}

func TestRegistry_AlertLevel(t *testing.T) {
	reg, _ := newTestRegistry(t)

	tests := []struct {
		rainfall float64
		want     AlertLevel
	}{
		{0, AlertGreen},
		{24.9, AlertGreen},
		{25, AlertYellow},
		{49.9, AlertYellow},
		{50, AlertOrange},
		{99.9, AlertOrange},
		{100, AlertRed},
		{500, AlertRed},
	}

	for _, tt := range tests {
		level, err := reg.AlertLevel("srilanka", tt.rainfall)
		require.NoError(t, err)
		assert.Equal(t, tt.want, level, "rainfall %.1fmm", tt.rainfall)
	}
}

func TestRegistry_AlertLevel_BoundaryUsesStricterBand(t *testing.T) {
	reg, _ := newTestRegistry(t)

	// 25mm sits in both green [0,25] and yellow [25,50]; severity order
	// means yellow wins.
	level, err := reg.AlertLevel("srilanka", 25)
	require.NoError(t, err)
	assert.Equal(t, AlertYellow, level)
}

func TestRegistry_Districts(t *testing.T) {
	reg, _ := newTestRegistry(t)

	districts, err := reg.Districts("srilanka")
	require.NoError(t, err)
	assert.Len(t, districts, 2)

	colombo, err := reg.District("srilanka", "Colombo")
	require.NoError(t, err)
	assert.InDelta(t, 6.9271, colombo.Latitude, 0.0001)

	// Names arrive lowercased from URL paths.
	lower, err := reg.District("srilanka", "colombo")
	require.NoError(t, err)
	assert.Equal(t, "Colombo", lower.Name)

	_, err = reg.District("srilanka", "Nowhere")
	assert.ErrorIs(t, err, ErrUnknownDistrict)
}

func TestRegistry_Reload(t *testing.T) {
	reg, regionsPath := newTestRegistry(t)

	// Idempotent when the file is unchanged.
	require.NoError(t, reg.Reload())
	assert.Len(t, reg.List(), 2)

	// Malformed document retains the prior configuration.
	require.NoError(t, os.WriteFile(regionsPath, []byte("{not json"), 0o644))
	assert.Error(t, reg.Reload())
	assert.Len(t, reg.List(), 2)

	// Valid change is picked up.
	require.NoError(t, os.WriteFile(regionsPath, []byte(testRegions), 0o644))
	require.NoError(t, reg.Reload())
	assert.Len(t, reg.List(), 2)
}
