// Package weatherapi fetches official weather alerts from WeatherAPI.com.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/alerts"
	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/region"
)

const (
	// ProviderName identifies this alerts provider.
	ProviderName = "weatherapi"

	// DefaultBaseURL is the WeatherAPI.com v1 base URL.
	DefaultBaseURL = "https://api.weatherapi.com/v1"
)

// ClientConfig holds configuration for the WeatherAPI.com client.
type ClientConfig struct {
	// APIKey is the WeatherAPI.com key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches alerts per location from WeatherAPI.com.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new WeatherAPI.com client.
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
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchLocation fetches the active alerts for one location.
func (c *Client) FetchLocation(ctx context.Context, d region.District) ([]alerts.Alert, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", fmt.Sprintf("%.4f,%.4f", d.Latitude, d.Longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/alerts.json?"+params.Encode(), http.NoBody)
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

	var payload alertsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	out := make([]alerts.Alert, 0, len(payload.Alerts.Alert))
	for _, a := range payload.Alerts.Alert {
		out = append(out, alerts.Alert{
			Location:  d.Name,
			Headline:  a.Headline,
			Event:     a.Event,
			Severity:  alerts.NormalizeSeverity(a.Severity),
			Urgency:   a.Urgency,
			Areas:     a.Areas,
			Category:  a.Category,
			Certainty: a.Certainty,
			Effective: parseTime(a.Effective),
			Expires:   parseTime(a.Expires),
			Desc:      a.Desc,
		})
	}
	return out, nil
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	return nil
}

// WeatherAPI.com response structures.

type alertsResponse struct {
	Alerts struct {
		Alert []struct {
			Headline  string `json:"headline"`
			Event     string `json:"event"`
			Severity  string `json:"severity"`
			Urgency   string `json:"urgency"`
			Areas     string `json:"areas"`
			Category  string `json:"category"`
			Certainty string `json:"certainty"`
			Effective string `json:"effective"`
			Expires   string `json:"expires"`
			Desc      string `json:"desc"`
		} `json:"alert"`
	} `json:"alerts"`
}
