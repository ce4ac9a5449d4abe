// Package worldbank fetches yearly indicator series from the World Bank
// Open Data API.
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/environmental"
	"github.com/floodwatch/floodwatch/internal/provider/resilience"
)

const (
	// ProviderName identifies this indicator provider.
	ProviderName = "world_bank"

	// DefaultBaseURL is the World Bank Open Data API base URL.
	DefaultBaseURL = "https://api.worldbank.org/v2"
)

// Indicator codes used by the environmental report.
const (
	IndicatorForestAreaPct     = "AG.LND.FRST.ZS"
	IndicatorPopulationDensity = "EN.POP.DNST"
	IndicatorPopulationTotal   = "SP.POP.TOTL"
	IndicatorUrbanPopPct       = "SP.URB.TOTL.IN.ZS"
	IndicatorAgriLandPct       = "AG.LND.AGRI.ZS"
)

// ClientConfig holds configuration for the World Bank client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches indicator series.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new World Bank client.
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

// FetchIndicator pulls one indicator's yearly series for a country, sorted
// ascending by year. Years without a reported value are omitted.
func (c *Client) FetchIndicator(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) ([]environmental.YearValue, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("date", fmt.Sprintf("%d:%d", startYear, endYear))
	params.Set("per_page", "100")

	endpoint := fmt.Sprintf("%s/country/%s/indicator/%s?%s", c.baseURL, countryCode, indicatorCode, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
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

	// The API wraps results as [metadata, points].
	var envelope []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(envelope) < 2 {
		return nil, nil
	}

	var points []indicatorPoint
	if err := json.Unmarshal(envelope[1], &points); err != nil {
		return nil, fmt.Errorf("decoding indicator points: %w", err)
	}

	out := make([]environmental.YearValue, 0, len(points))
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		year, err := strconv.Atoi(p.Date)
		if err != nil {
			continue
		}
		out = append(out, environmental.YearValue{Year: year, Value: *p.Value})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

// World Bank API response structures.

type indicatorPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}
