package navy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/internal/river"
)

const wlrsFixture = `[
  {
    "river": "Kelani Ganga",
    "river_code": "RB 01",
    "station": "Hanwella",
    "lat": 6.909,
    "lon": 80.082,
    "catchment_area_km2": 1976.0,
    "water_level_m": 3.4,
    "water_level_1hr_ago_m": 3.1,
    "rainfall_24h_mm": 45.5,
    "status": "rising",
    "last_updated": "2026-06-01T04:00:00"
  },
  {
    "river": "Nilwala Ganga",
    "river_code": "RB 12",
    "station": "Panadugama",
    "lat": 6.12,
    "lon": 80.52,
    "water_level_m": 1.2,
    "status": "mystery",
    "last_updated": "2026-06-01T04:00:00+05:30"
  }
]`

func newTestClient(t *testing.T, body string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/levels", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{BaseURL: server.URL})
}

func TestClient_FetchStations(t *testing.T) {
	client := newTestClient(t, wlrsFixture)

	stations, err := client.FetchStations(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, stations, 2)

	hanwella := stations[0]
	assert.Equal(t, "srilanka_rb_01_hanwella", hanwella.StationID)
	assert.Equal(t, river.StatusRising, hanwella.Status)
	require.NotNil(t, hanwella.CatchmentKm2)
	assert.InDelta(t, 1976.0, *hanwella.CatchmentKm2, 0.001)
	require.NotNil(t, hanwella.Rainfall24hMm)
	assert.Nil(t, hanwella.Thresholds, "wlrs feed carries no thresholds")
	assert.Equal(t, "2026-06-01T04:00:00Z", hanwella.LastUpdated.Format("2006-01-02T15:04:05Z07:00"),
		"timezone-less timestamps are read as UTC")

	panadugama := stations[1]
	assert.Equal(t, river.StatusNormal, panadugama.Status, "unrecognised source status falls back to trend")
}

func TestClient_FetchStationReading(t *testing.T) {
	client := newTestClient(t, wlrsFixture)

	reading, err := client.FetchStationReading(context.Background(), "srilanka_rb_12_panadugama")
	require.NoError(t, err)
	assert.InDelta(t, 1.2, reading.WaterLevelM, 0.001)

	_, err = client.FetchStationReading(context.Background(), "missing")
	assert.ErrorIs(t, err, river.ErrStationNotFound)
}

func TestClient_FetchHistory_NotSupported(t *testing.T) {
	client := newTestClient(t, wlrsFixture)

	_, err := client.FetchHistory(context.Background(), "srilanka_rb_01_hanwella", 24)
	assert.ErrorIs(t, err, river.ErrNotSupported)
}

func TestClient_HealthCheck_EmptyFeed(t *testing.T) {
	client := newTestClient(t, `[]`)
	assert.Error(t, client.HealthCheck(context.Background()))
}
