package here

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/internal/region"
)

const reportFixture = `{
  "places": [
    {
      "observations": [
        {
          "temperature": 28.5,
          "humidity": 84,
          "barometerPressure": 1008.2,
          "windSpeed": 22.0,
          "windGust": 38.0,
          "windDirection": 225,
          "precipitation24H": 42.5,
          "description": "Heavy rain showers"
        }
      ],
      "dailyForecasts": [
        {
          "forecasts": [
            {"time": "2026-06-01", "highTemperature": 30, "lowTemperature": 25, "precipitationProbability": 90, "rainFall": 55.0, "windSpeed": 25.0},
            {"time": "2026-06-02", "highTemperature": 29, "lowTemperature": 24, "precipitationProbability": 70, "rainFall": 20.0, "windSpeed": 18.0},
            {"time": "2026-06-03", "highTemperature": 31, "lowTemperature": 25, "precipitationProbability": 40, "rainFall": 5.0, "windSpeed": 12.0}
          ]
        }
      ]
    }
  ]
}`

func TestClient_FetchDistricts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/report", r.URL.Path)
		assert.Equal(t, "observation,forecast7days", r.URL.Query().Get("products"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reportFixture))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: server.URL})

	districts := []region.District{{Name: "Colombo", Latitude: 6.9271, Longitude: 79.8612}}
	snapshots, err := client.FetchDistricts(context.Background(), districts)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	w := snapshots[0]
	assert.Equal(t, "Colombo", w.District)
	assert.Equal(t, ProviderName, w.Source)
	require.NotNil(t, w.TemperatureC)
	assert.InDelta(t, 28.5, *w.TemperatureC, 0.001)
	assert.InDelta(t, 22.0, w.WindSpeedKmh, 0.001)

	// Observed 24h rainfall wins over the day-0 forecast.
	assert.InDelta(t, 42.5, w.Rainfall24hMm, 0.001)
	assert.InDelta(t, 75.0, w.Rainfall48hMm, 0.001, "day 0 + day 1 forecast")
	assert.InDelta(t, 80.0, w.Rainfall72hMm, 0.001)
	assert.InDelta(t, 55.0, w.ForecastRain24hMm, 0.001)
	assert.InDelta(t, 75.0, w.ForecastRain48hMm, 0.001)
	assert.InDelta(t, 90.0, w.PrecipProb, 0.001)
	assert.Len(t, w.ForecastDaily, 3)
}

func TestClient_FetchDistricts_AllFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "bad", BaseURL: server.URL})

	_, err := client.FetchDistricts(context.Background(), []region.District{{Name: "Colombo"}})
	assert.Error(t, err)
}
