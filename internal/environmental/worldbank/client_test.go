package worldbank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indicatorFixture = `[
  {"page": 1, "pages": 1, "per_page": 100, "total": 3},
  [
    {"date": "2024", "value": 29.1},
    {"date": "2023", "value": null},
    {"date": "1994", "value": 36.4}
  ]
]`

func TestClient_FetchIndicator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/country/LKA/indicator/AG.LND.FRST.ZS", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1994:2024", r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(indicatorFixture))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: zerolog.Nop()})

	series, err := client.FetchIndicator(context.Background(), "LKA", IndicatorForestAreaPct, 1994, 2024)
	require.NoError(t, err)
	require.Len(t, series, 2, "null years omitted")
	assert.Equal(t, 1994, series[0].Year, "ascending by year")
	assert.Equal(t, 36.4, series[0].Value)
	assert.Equal(t, 2024, series[1].Year)
}

func TestClient_FetchIndicator_EmptyEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"message": "no data"}]`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: zerolog.Nop()})

	series, err := client.FetchIndicator(context.Background(), "LKA", IndicatorPopulationDensity, 1994, 2024)
	require.NoError(t, err)
	assert.Empty(t, series)
}
