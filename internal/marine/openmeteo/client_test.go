package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/internal/marine"
	"github.com/floodwatch/floodwatch/internal/region"
)

const marineFixture = `{
  "current": {
    "wave_height": 3.2,
    "wave_direction": 215.0,
    "wave_period": 9.4,
    "swell_wave_height": 2.7,
    "swell_wave_period": 11.2,
    "wind_wave_height": 1.1
  },
  "hourly": {
    "wave_height": [3.2, 3.4, 3.9, 3.6, 3.1]
  }
}`

func TestClient_FetchPoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/marine", r.URL.Path)
		assert.Equal(t, "6.0535", r.URL.Query().Get("latitude"))
		assert.Equal(t, "1", r.URL.Query().Get("forecast_days"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marineFixture))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: zerolog.Nop()})

	cond, err := client.FetchPoint(context.Background(), region.District{
		Name:      "Galle",
		Latitude:  6.0535,
		Longitude: 80.2210,
	})
	require.NoError(t, err)

	assert.Equal(t, "Galle", cond.District)
	assert.Equal(t, 3.2, cond.WaveHeightM)
	assert.Equal(t, 2.7, cond.SwellHeightM)
	assert.Equal(t, 3.9, cond.MaxWaveHeight24h)
	require.NotNil(t, cond.WavePeriodS)
	assert.Equal(t, 9.4, *cond.WavePeriodS)

	// High waves plus heavy swell grades a step above high.
	assert.Equal(t, marine.RiskSevere, cond.Risk)
	assert.Len(t, cond.RiskFactors, 2)
}

func TestClient_FetchPoint_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: zerolog.Nop()})

	_, err := client.FetchPoint(context.Background(), region.District{Name: "Galle"})
	assert.Error(t, err)
}
