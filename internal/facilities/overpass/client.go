// Package overpass fetches emergency facilities from the OSM Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/facilities"
	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/pkg/geo"
)

const (
	// ProviderName identifies this facilities provider.
	ProviderName = "osm_overpass"

	// DefaultBaseURL is the public Overpass API endpoint.
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"

	// queryTimeoutS is the server-side timeout baked into the query.
	queryTimeoutS = 60
)

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	// BaseURL is the Overpass endpoint (optional).
	BaseURL string

	// Bounds limits the query to one region's bounding box (required).
	Bounds geo.BoundingBox

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client queries the Overpass API for emergency facilities.
type Client struct {
	baseURL    string
	bounds     geo.BoundingBox
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Overpass client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = (queryTimeoutS + 30) * time.Second
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		bounds:     cfg.Bounds,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchFacilities runs one Overpass query covering hospitals, police, fire
// stations, and shelters inside the configured bounds.
func (c *Client) FetchFacilities(ctx context.Context) ([]facilities.Facility, error) {
	bbox := fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", c.bounds.MinLat, c.bounds.MinLon, c.bounds.MaxLat, c.bounds.MaxLon)

	query := fmt.Sprintf(`[out:json][timeout:%d];
(
  node["amenity"="hospital"](%[2]s);
  way["amenity"="hospital"](%[2]s);
  node["amenity"="police"](%[2]s);
  way["amenity"="police"](%[2]s);
  node["amenity"="fire_station"](%[2]s);
  way["amenity"="fire_station"](%[2]s);
  node["emergency"="shelter"](%[2]s);
  way["emergency"="shelter"](%[2]s);
);
out center;`, queryTimeoutS, bbox)

	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var op overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	out := make([]facilities.Facility, 0, len(op.Elements))
	for _, el := range op.Elements {
		f, ok := toFacility(el)
		if !ok {
			continue
		}
		out = append(out, f)
	}

	c.logger.Info().Int("count", len(out)).Msg("fetched OSM facilities")
	return out, nil
}

func toFacility(el element) (facilities.Facility, bool) {
	kind, ok := classify(el.Tags)
	if !ok {
		return facilities.Facility{}, false
	}

	lat, lon := el.Lat, el.Lon
	if el.Center != nil {
		// Ways carry their centroid instead of node coordinates.
		lat, lon = el.Center.Lat, el.Center.Lon
	}
	if lat == 0 && lon == 0 {
		return facilities.Facility{}, false
	}

	name := el.Tags["name"]
	if name == "" {
		name = "Unnamed " + string(kind)
	}

	return facilities.Facility{
		ID:        el.ID,
		Kind:      kind,
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
		Tags:      el.Tags,
	}, true
}

func classify(tags map[string]string) (facilities.Kind, bool) {
	switch tags["amenity"] {
	case "hospital":
		return facilities.KindHospital, true
	case "police":
		return facilities.KindPolice, true
	case "fire_station":
		return facilities.KindFire, true
	}
	if tags["emergency"] == "shelter" {
		return facilities.KindShelter, true
	}
	return "", false
}

// Overpass API response structures.

type overpassResponse struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
