// Package openmeteo fetches sea state from the Open-Meteo Marine API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/marine"
	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/region"
)

const (
	// ProviderName identifies this marine provider.
	ProviderName = "open_meteo_marine"

	// DefaultBaseURL is the Open-Meteo Marine API base URL.
	DefaultBaseURL = "https://marine-api.open-meteo.com/v1"
)

// ClientConfig holds configuration for the marine client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches current sea state and the 24h wave outlook per point.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new marine client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchPoint fetches sea conditions for one coastal district.
func (c *Client) FetchPoint(ctx context.Context, d region.District) (*marine.Conditions, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", d.Latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", d.Longitude))
	params.Set("current", "wave_height,wave_direction,wave_period,swell_wave_height,swell_wave_period,wind_wave_height")
	params.Set("hourly", "wave_height")
	params.Set("forecast_days", "1")
	params.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/marine?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var om marineResponse
	if err := json.NewDecoder(resp.Body).Decode(&om); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	cond := &marine.Conditions{
		District:        d.Name,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		WaveHeightM:     om.Current.WaveHeight,
		WavePeriodS:     om.Current.WavePeriod,
		WaveDirection:   om.Current.WaveDirection,
		SwellHeightM:    om.Current.SwellWaveHeight,
		SwellPeriodS:    om.Current.SwellWavePeriod,
		WindWaveHeightM: om.Current.WindWaveHeight,
		FetchedAt:       time.Now().UTC(),
	}

	for _, h := range om.Hourly.WaveHeight {
		if h > cond.MaxWaveHeight24h {
			cond.MaxWaveHeight24h = h
		}
	}

	cond.Risk, cond.RiskFactors = marine.ComputeRisk(cond.WaveHeightM, cond.SwellHeightM)
	return cond, nil
}

// Open-Meteo Marine API response structures.

type marineResponse struct {
	Current struct {
		WaveHeight      float64  `json:"wave_height"`
		WaveDirection   *float64 `json:"wave_direction"`
		WavePeriod      *float64 `json:"wave_period"`
		SwellWaveHeight float64  `json:"swell_wave_height"`
		SwellWavePeriod *float64 `json:"swell_wave_period"`
		WindWaveHeight  *float64 `json:"wind_wave_height"`
	} `json:"current"`
	Hourly struct {
		WaveHeight []float64 `json:"wave_height"`
	} `json:"hourly"`
}
