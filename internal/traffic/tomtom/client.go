// Package tomtom fetches road incidents and flow readings from the TomTom
// Traffic API.
package tomtom

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
	"github.com/floodwatch/floodwatch/internal/traffic"
	"github.com/floodwatch/floodwatch/pkg/geo"
)

const (
	// ProviderName identifies this traffic provider.
	ProviderName = "tomtom"

	// DefaultBaseURL is the TomTom Traffic API base URL.
	DefaultBaseURL = "https://api.tomtom.com/traffic/services"

	incidentFields = "{incidents{type,geometry{type,coordinates},properties{id,iconCategory,magnitudeOfDelay,events{description,code,iconCategory},startTime,endTime,from,to,length,delay,roadNumbers}}}"
)

// subRegions tiles the island so each incident query stays under the
// upstream 10,000 km2 bounding-box limit. Tiles overlap slightly at the
// seams; the service dedups by incident id.
var subRegions = []geo.BoundingBox{
	{MinLat: 9.3, MaxLat: 9.9, MinLon: 79.6, MaxLon: 80.9}, // Jaffna peninsula
	{MinLat: 8.6, MaxLat: 9.3, MinLon: 79.7, MaxLon: 80.8}, // Vanni and Mannar
	{MinLat: 8.3, MaxLat: 9.0, MinLon: 80.8, MaxLon: 81.9}, // Trincomalee
	{MinLat: 7.9, MaxLat: 8.6, MinLon: 80.0, MaxLon: 81.1}, // North central
	{MinLat: 7.2, MaxLat: 7.9, MinLon: 79.6, MaxLon: 80.7}, // North western
	{MinLat: 6.9, MaxLat: 7.9, MinLon: 81.1, MaxLon: 81.9}, // East coast
	{MinLat: 6.5, MaxLat: 7.2, MinLon: 79.8, MaxLon: 80.9}, // Colombo and hill country
	{MinLat: 5.9, MaxLat: 6.6, MinLon: 79.9, MaxLon: 81.2}, // Southern
}

// ClientConfig holds configuration for the TomTom client.
type ClientConfig struct {
	// APIKey is the TomTom API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client talks to the TomTom incidentDetails and flowSegmentData endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new TomTom client.
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

// FetchIncidents queries every sub-region tile and returns the deduped
// island-wide incident list. A tile failure is logged and skipped; the fetch
// fails only when every tile failed.
func (c *Client) FetchIncidents(ctx context.Context) ([]traffic.Incident, error) {
	var (
		out      []traffic.Incident
		failures int
		lastErr  error
	)

	for i, box := range subRegions {
		incidents, err := c.fetchTile(ctx, box)
		if err != nil {
			failures++
			lastErr = err
			c.logger.Warn().Err(err).Int("tile", i).Msg("incident tile fetch failed")
			continue
		}
		out = append(out, incidents...)
	}

	if failures == len(subRegions) {
		return nil, fmt.Errorf("all %d incident tiles failed: %w", failures, lastErr)
	}
	return traffic.DedupIncidents(out), nil
}

func (c *Client) fetchTile(ctx context.Context, box geo.BoundingBox) ([]traffic.Incident, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("bbox", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", box.MinLon, box.MinLat, box.MaxLon, box.MaxLat))
	params.Set("fields", incidentFields)
	params.Set("language", "en-GB")
	params.Set("categoryFilter", "0,1,2,3,4,5,6,7,8,9,10,11,14")
	params.Set("timeValidityFilter", "present")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/5/incidentDetails?"+params.Encode(), http.NoBody)
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

	var tt incidentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tt); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	incidents := make([]traffic.Incident, 0, len(tt.Incidents))
	for _, item := range tt.Incidents {
		inc, err := toIncident(item)
		if err != nil {
			c.logger.Debug().Err(err).Msg("skipping unparseable incident")
			continue
		}
		incidents = append(incidents, inc)
	}
	return incidents, nil
}

func toIncident(item rawIncident) (traffic.Incident, error) {
	lat, lon, err := item.Geometry.midpoint()
	if err != nil {
		return traffic.Incident{}, err
	}

	icon := traffic.IconCategory(item.Properties.IconCategory)

	description := ""
	if len(item.Properties.Events) > 0 {
		description = item.Properties.Events[0].Description
	}

	roadName := "Unknown Road"
	if len(item.Properties.RoadNumbers) > 0 {
		roadName = strings.Join(item.Properties.RoadNumbers, ", ")
	}

	return traffic.Incident{
		ID:           item.Properties.ID,
		IconCategory: icon,
		Category:     icon.Name(),
		Severity:     traffic.SeverityForDelay(item.Properties.MagnitudeOfDelay),
		Latitude:     lat,
		Longitude:    lon,
		Description:  description,
		FromLocation: item.Properties.From,
		ToLocation:   item.Properties.To,
		RoadName:     roadName,
		DelaySec:     item.Properties.Delay,
		LengthM:      item.Properties.Length,
		StartTime:    parseTime(item.Properties.StartTime),
		EndTime:      parseTime(item.Properties.EndTime),
	}, nil
}

// FetchFlowSegment reads the flow at one probe point.
func (c *Client) FetchFlowSegment(ctx context.Context, point traffic.RoadPoint) (*traffic.FlowSegment, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("point", fmt.Sprintf("%.4f,%.4f", point.Latitude, point.Longitude))
	params.Set("unit", "KMPH")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/4/flowSegmentData/absolute/10/json?"+params.Encode(), http.NoBody)
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

	var tt flowResponse
	if err := json.NewDecoder(resp.Body).Decode(&tt); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	seg := &traffic.FlowSegment{
		Location:         point.Location,
		RoadName:         point.RoadName,
		Latitude:         point.Latitude,
		Longitude:        point.Longitude,
		CurrentSpeedKmh:  tt.FlowSegmentData.CurrentSpeed,
		FreeFlowSpeedKmh: tt.FlowSegmentData.FreeFlowSpeed,
		RoadClosure:      tt.FlowSegmentData.RoadClosure,
		Source:           ProviderName,
		FetchedAt:        time.Now().UTC(),
	}
	seg.Congestion = traffic.CongestionFor(seg.CurrentSpeedKmh, seg.FreeFlowSpeedKmh)
	return seg, nil
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// TomTom Traffic API response structures.

type incidentsResponse struct {
	Incidents []rawIncident `json:"incidents"`
}

type rawIncident struct {
	Type     string      `json:"type"`
	Geometry rawGeometry `json:"geometry"`

	Properties struct {
		ID               string `json:"id"`
		IconCategory     int    `json:"iconCategory"`
		MagnitudeOfDelay int    `json:"magnitudeOfDelay"`

		Events []struct {
			Description  string `json:"description"`
			Code         int    `json:"code"`
			IconCategory int    `json:"iconCategory"`
		} `json:"events"`

		StartTime   string   `json:"startTime"`
		EndTime     string   `json:"endTime"`
		From        string   `json:"from"`
		To          string   `json:"to"`
		Length      int      `json:"length"`
		Delay       int      `json:"delay"`
		RoadNumbers []string `json:"roadNumbers"`
	} `json:"properties"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// midpoint resolves the incident location: the point itself for Point
// geometries, the middle vertex for LineString geometries.
func (g rawGeometry) midpoint() (lat, lon float64, err error) {
	switch g.Type {
	case "Point":
		var coords []float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return 0, 0, fmt.Errorf("decoding point geometry: %w", err)
		}
		if len(coords) < 2 {
			return 0, 0, fmt.Errorf("point geometry with %d coordinates", len(coords))
		}
		return coords[1], coords[0], nil
	case "LineString":
		var coords [][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return 0, 0, fmt.Errorf("decoding line geometry: %w", err)
		}
		if len(coords) == 0 {
			return 0, 0, fmt.Errorf("empty line geometry")
		}
		mid := coords[len(coords)/2]
		if len(mid) < 2 {
			return 0, 0, fmt.Errorf("line vertex with %d coordinates", len(mid))
		}
		return mid[1], mid[0], nil
	default:
		return 0, 0, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

type flowResponse struct {
	FlowSegmentData struct {
		CurrentSpeed       float64 `json:"currentSpeed"`
		FreeFlowSpeed      float64 `json:"freeFlowSpeed"`
		CurrentTravelTime  int     `json:"currentTravelTime"`
		FreeFlowTravelTime int     `json:"freeFlowTravelTime"`
		Confidence         float64 `json:"confidence"`
		RoadClosure        bool    `json:"roadClosure"`
	} `json:"flowSegmentData"`
}
