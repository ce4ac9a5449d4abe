// Package navy fetches river water levels from the Sri Lanka Navy's Water
// Level Recording System (WLRS).
package navy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/river"
	"github.com/floodwatch/floodwatch/pkg/geo"
)

const (
	// ProviderName identifies this river provider.
	ProviderName = "srilanka_navy"

	// DefaultBaseURL is the Navy WLRS API base URL.
	DefaultBaseURL = "https://floodms.navy.lk/wlrs/api"

	regionID = "srilanka"
)

// ClientConfig holds configuration for the Navy WLRS client.
type ClientConfig struct {
	// BaseURL is the WLRS API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with the two-attempt river policy.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches the Navy river gauge network. The WLRS feed reports the
// current and one-hour-ago level plus a source-assigned status, but carries
// no flood thresholds and no history.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Navy WLRS client.
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
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// RegionID returns the region this provider serves.
func (c *Client) RegionID() string {
	return regionID
}

// FetchStations fetches all WLRS gauges, optionally limited to bounds.
func (c *Client) FetchStations(ctx context.Context, bounds *geo.BoundingBox) ([]river.Station, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/levels", http.NoBody)
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

	var items []wlrsStation
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	stations := make([]river.Station, 0, len(items))
	for _, item := range items {
		if bounds != nil && !bounds.Contains(item.Lat, item.Lon) {
			continue
		}

		s := river.Station{
			StationID:           stationID(item.RiverCode, item.Station),
			RiverName:           item.River,
			RiverCode:           item.RiverCode,
			StationName:         item.Station,
			Latitude:            item.Lat,
			Longitude:           item.Lon,
			CatchmentKm2:        item.CatchmentAreaKm2,
			WaterLevelM:         item.WaterLevelM,
			WaterLevelPreviousM: item.WaterLevel1hrAgoM,
			Rainfall24hMm:       item.Rainfall24hMm,
			Status:              mapStatus(item.Status, item.WaterLevelM, item.WaterLevel1hrAgoM),
			LastUpdated:         item.lastUpdated(),
			RegionID:            regionID,
		}
		stations = append(stations, s)
	}

	c.logger.Debug().Int("stations", len(stations)).Msg("navy stations fetched")
	return stations, nil
}

// FetchStationReading returns the latest reading for one station.
func (c *Client) FetchStationReading(ctx context.Context, id string) (*river.Reading, error) {
	stations, err := c.FetchStations(ctx, nil)
	if err != nil {
		return nil, err
	}

	for _, s := range stations {
		if s.StationID == id {
			return &river.Reading{
				StationID:   s.StationID,
				WaterLevelM: s.WaterLevelM,
				RainfallMm:  s.Rainfall24hMm,
				Status:      s.Status,
				Timestamp:   s.LastUpdated,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", river.ErrStationNotFound, id)
}

// FetchHistory is not available from the WLRS feed.
func (c *Client) FetchHistory(ctx context.Context, id string, hours int) ([]river.Reading, error) {
	return nil, river.ErrNotSupported
}

// HealthCheck probes the WLRS feed.
func (c *Client) HealthCheck(ctx context.Context) error {
	stations, err := c.FetchStations(ctx, nil)
	if err != nil {
		return err
	}
	if len(stations) == 0 {
		return fmt.Errorf("wlrs feed returned no stations")
	}
	return nil
}

// mapStatus trusts the source status when recognised, otherwise falls back to
// trend classification. The feed carries no thresholds.
func mapStatus(raw string, level float64, previous *float64) river.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "normal":
		return river.StatusNormal
	case "alert":
		return river.StatusAlert
	case "rising":
		return river.StatusRising
	case "falling":
		return river.StatusFalling
	case "minor_flood", "minorflood":
		return river.StatusMinorFlood
	case "major_flood", "majorflood":
		return river.StatusMajorFlood
	}
	return river.ClassifyStatus(level, previous, nil)
}

func stationID(riverCode, stationName string) string {
	return fmt.Sprintf("%s_%s_%s", regionID, slug(riverCode), slug(stationName))
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// WLRS API response structure.

type wlrsStation struct {
	River             string   `json:"river"`
	RiverCode         string   `json:"river_code"`
	Station           string   `json:"station"`
	Lat               float64  `json:"lat"`
	Lon               float64  `json:"lon"`
	CatchmentAreaKm2  *float64 `json:"catchment_area_km2"`
	WaterLevelM       float64  `json:"water_level_m"`
	WaterLevel1hrAgoM *float64 `json:"water_level_1hr_ago_m"`
	Rainfall24hMm     *float64 `json:"rainfall_24h_mm"`
	Status            string   `json:"status"`
	LastUpdatedRaw    string   `json:"last_updated"`
}

func (s wlrsStation) lastUpdated() time.Time {
	if s.LastUpdatedRaw == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s.LastUpdatedRaw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
