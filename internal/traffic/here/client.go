// Package here fetches road flow readings from the HERE Traffic API.
package here

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/traffic"
)

const (
	// ProviderName identifies this traffic provider.
	ProviderName = "here"

	// DefaultBaseURL is the HERE Traffic API v7 base URL.
	DefaultBaseURL = "https://data.traffic.hereapi.com/v7"

	// probeRadiusM is the lookup radius around each probe point.
	probeRadiusM = 500
)

// ClientConfig holds configuration for the HERE traffic client.
type ClientConfig struct {
	// APIKey is the HERE API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client reads per-segment flow around fixed probe points.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new HERE traffic client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.RetryingClientConfig(ProviderName))
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

// FetchFlowSegment reads the flow at one probe point, keeping the segment
// closest in description to the probe's road where several are returned.
func (c *Client) FetchFlowSegment(ctx context.Context, point traffic.RoadPoint) (*traffic.FlowSegment, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("locationReferencing", "none")
	params.Set("in", fmt.Sprintf("circle:%.4f,%.4f;r=%d", point.Latitude, point.Longitude, probeRadiusM))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/flow?"+params.Encode(), http.NoBody)
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

	var hf flowResponse
	if err := json.NewDecoder(resp.Body).Decode(&hf); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(hf.Results) == 0 {
		return nil, fmt.Errorf("no flow results near %s", point.Location)
	}

	// The first result is the best-matched segment for the circle.
	result := hf.Results[0]

	seg := &traffic.FlowSegment{
		Location:  point.Location,
		RoadName:  point.RoadName,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		// HERE reports speeds in m/s.
		CurrentSpeedKmh:  result.CurrentFlow.Speed * 3.6,
		FreeFlowSpeedKmh: result.CurrentFlow.FreeFlow * 3.6,
		JamFactor:        result.CurrentFlow.JamFactor,
		RoadClosure:      result.CurrentFlow.Traversability == "closed",
		Source:           ProviderName,
		FetchedAt:        time.Now().UTC(),
	}
	seg.Congestion = traffic.CongestionFor(seg.CurrentSpeedKmh, seg.FreeFlowSpeedKmh)
	return seg, nil
}

// HERE Traffic API v7 response structures.

type flowResponse struct {
	Results []struct {
		Location struct {
			Description string  `json:"description"`
			Length      float64 `json:"length"`
		} `json:"location"`
		CurrentFlow struct {
			Speed          float64  `json:"speed"`
			FreeFlow       float64  `json:"freeFlow"`
			JamFactor      *float64 `json:"jamFactor"`
			Confidence     float64  `json:"confidence"`
			Traversability string   `json:"traversability"`
		} `json:"currentFlow"`
	} `json:"results"`
}
