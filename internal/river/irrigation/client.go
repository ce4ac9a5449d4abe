// Package irrigation fetches river water levels from the Irrigation
// Department's ArcGIS feature service.
package irrigation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/river"
	"github.com/floodwatch/floodwatch/pkg/geo"
)

const (
	// ProviderName identifies this river provider.
	ProviderName = "irrigation_dept"

	// DefaultBaseURL is the Irrigation Department ArcGIS query endpoint.
	DefaultBaseURL = "https://gisservices.irrigation.gov.lk/arcgis/rest/services/HydroMet/WaterLevels/MapServer/0/query"

	regionID = "srilanka"
)

// ClientConfig holds configuration for the Irrigation Department client.
type ClientConfig struct {
	// BaseURL is the ArcGIS query endpoint (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with the two-attempt river policy.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches the Irrigation Department gauging station network: water
// levels with alert/minor/major flood thresholds and affected districts.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Irrigation Department client.
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

// FetchStations queries the ArcGIS layer and normalises every gauging
// station, optionally limited to bounds.
func (c *Client) FetchStations(ctx context.Context, bounds *geo.BoundingBox) ([]river.Station, error) {
	resp, err := c.query(ctx)
	if err != nil {
		return nil, err
	}

	stations := make([]river.Station, 0, len(resp.Features))
	for _, f := range resp.Features {
		a := f.Attributes
		if bounds != nil && !bounds.Contains(a.Latitude, a.Longitude) {
			continue
		}

		thresholds := &river.Thresholds{
			AlertM:      a.AlertLevel,
			MinorFloodM: a.MinorFloodLevel,
			MajorFloodM: a.MajorFloodLevel,
		}
		if a.AlertLevel <= 0 {
			thresholds = nil
		}

		s := river.Station{
			StationID:   stationID(a.RiverBasin, a.StationName),
			RiverName:   a.RiverName,
			RiverCode:   a.RiverBasin,
			StationName: a.StationName,
			Latitude:    a.Latitude,
			Longitude:   a.Longitude,
			WaterLevelM: a.WaterLevel,
			Thresholds:  thresholds,
			Status:      river.ClassifyStatus(a.WaterLevel, a.previousLevel(), thresholds),
			LastUpdated: a.lastUpdated(),
			RegionID:    regionID,
			Districts:   splitDistricts(a.Districts),
		}
		if a.PreviousLevel > 0 {
			prev := a.PreviousLevel
			s.WaterLevelPreviousM = &prev
		}

		stations = append(stations, s)
	}

	c.logger.Debug().Int("stations", len(stations)).Msg("irrigation stations fetched")
	return stations, nil
}

// FetchStationReading returns the latest reading for one station by scanning
// the full layer; the upstream has no per-station endpoint.
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

// FetchHistory is not available upstream; history is served from storage.
func (c *Client) FetchHistory(ctx context.Context, id string, hours int) ([]river.Reading, error) {
	return nil, river.ErrNotSupported
}

// HealthCheck probes the ArcGIS endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.query(ctx)
	if err != nil {
		return err
	}
	if len(resp.Features) == 0 {
		return fmt.Errorf("irrigation layer returned no stations")
	}
	return nil
}

func (c *Client) query(ctx context.Context) (*queryResponse, error) {
	params := url.Values{}
	params.Set("where", "1=1")
	params.Set("outFields", "*")
	params.Set("returnGeometry", "false")
	params.Set("f", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
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

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

func stationID(riverCode, stationName string) string {
	return fmt.Sprintf("%s_%s_%s", regionID, slug(riverCode), slug(stationName))
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

func splitDistricts(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ArcGIS API response structures.

type queryResponse struct {
	Features []struct {
		Attributes stationAttributes `json:"attributes"`
	} `json:"features"`
}

type stationAttributes struct {
	StationName     string  `json:"station_name"`
	RiverName       string  `json:"river_name"`
	RiverBasin      string  `json:"river_basin"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	WaterLevel      float64 `json:"water_level"`
	PreviousLevel   float64 `json:"previous_level"`
	AlertLevel      float64 `json:"alert_level"`
	MinorFloodLevel float64 `json:"minor_flood_level"`
	MajorFloodLevel float64 `json:"major_flood_level"`
	Districts       string  `json:"districts"`
	LastUpdatedMs   int64   `json:"last_updated"` // epoch milliseconds
}

func (a stationAttributes) previousLevel() *float64 {
	if a.PreviousLevel <= 0 {
		return nil
	}
	v := a.PreviousLevel
	return &v
}

func (a stationAttributes) lastUpdated() time.Time {
	if a.LastUpdatedMs == 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(a.LastUpdatedMs).UTC()
}
