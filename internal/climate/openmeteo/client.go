// Package openmeteo fetches archived daily rainfall from the Open-Meteo
// historical weather API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/climate"
	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/region"
)

const (
	// ProviderName identifies this archive provider.
	ProviderName = "open_meteo_archive"

	// DefaultBaseURL is the Open-Meteo archive API base URL.
	DefaultBaseURL = "https://archive-api.open-meteo.com/v1"

	// chunkYears bounds one archive request. The API serves multi-decade
	// ranges but chokes on them under load.
	chunkYears = 10
)

// ClientConfig holds configuration for the archive client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches archived rainfall series in year-range chunks.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new archive client. Archive calls get a long timeout
// and no retry: a failed chunk waits for the next scheduled cycle.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = 120 * time.Second
		httpClient = resilience.NewClient(clientCfg)
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

// FetchSeries pulls the daily rainfall archive for one district across
// [startYear, endYear]. The range is fetched in chunks; a failed chunk
// contributes an empty slice and the rest of the series still loads.
func (c *Client) FetchSeries(ctx context.Context, d region.District, startYear, endYear int) (climate.Series, error) {
	series := climate.Series{
		District:  d.Name,
		StartYear: startYear,
		EndYear:   endYear,
	}

	failures, chunks := 0, 0
	for from := startYear; from <= endYear; from += chunkYears {
		to := from + chunkYears - 1
		if to > endYear {
			to = endYear
		}
		chunks++

		days, err := c.fetchChunk(ctx, d, from, to)
		if err != nil {
			failures++
			c.logger.Warn().Err(err).
				Str("district", d.Name).
				Int("from", from).
				Int("to", to).
				Msg("archive chunk fetch failed, skipping range")
			continue
		}
		series.Days = append(series.Days, days...)
	}

	if failures == chunks {
		return climate.Series{}, fmt.Errorf("every archive chunk failed for %s", d.Name)
	}
	return series, nil
}

func (c *Client) fetchChunk(ctx context.Context, d region.District, fromYear, toYear int) ([]climate.DailyRainfall, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", d.Latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", d.Longitude))
	params.Set("start_date", fmt.Sprintf("%d-01-01", fromYear))
	params.Set("end_date", endDate(toYear))
	params.Set("daily", "precipitation_sum")
	params.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/archive?"+params.Encode(), http.NoBody)
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

	var om archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&om); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	days := make([]climate.DailyRainfall, 0, len(om.Daily.Time))
	for i, date := range om.Daily.Time {
		if i >= len(om.Daily.PrecipitationSum) {
			break
		}
		rainfall := 0.0
		if v := om.Daily.PrecipitationSum[i]; v != nil {
			rainfall = *v
		}
		days = append(days, climate.DailyRainfall{Date: date, RainfallMm: rainfall})
	}
	return days, nil
}

// endDate clamps a chunk's end to yesterday so the archive API does not
// reject a request reaching into the future.
func endDate(toYear int) string {
	yearEnd := time.Date(toYear, 12, 31, 0, 0, 0, 0, time.UTC)
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	if yearEnd.After(yesterday) {
		yearEnd = yesterday
	}
	return yearEnd.Format("2006-01-02")
}

// Open-Meteo archive API response structures.

type archiveResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}
