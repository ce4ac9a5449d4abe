package sos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/provider/resilience"
)

const (
	// ProviderName identifies the crowdsource SOS provider.
	ProviderName = "floodsupport"

	// DefaultBaseURL is the flood-support crowdsource API base URL.
	DefaultBaseURL = "https://floodsupport.org/api"

	// DefaultLimit bounds one batch of reports.
	DefaultLimit = 100

	// MaxLimit is the upstream page-size ceiling.
	MaxLimit = 200
)

// ClientConfig holds configuration for the SOS client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client pulls distress reports from the crowdsource API.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new SOS client.
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

// FetchReports pulls up to limit reports, newest first, deduped by id.
func (c *Client) FetchReports(ctx context.Context, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sos-reports?"+params.Encode(), http.NoBody)
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

	var fs reportsResponse
	if err := json.NewDecoder(resp.Body).Decode(&fs); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	reports := make([]Report, 0, len(fs.Reports))
	for _, raw := range fs.Reports {
		reports = append(reports, toReport(raw))
	}
	reports = Dedup(reports)

	c.logger.Info().Int("count", len(reports)).Msg("fetched SOS reports")
	return reports, nil
}

func toReport(raw rawReport) Report {
	r := Report{
		ID:                  raw.ID,
		District:            raw.District,
		Address:             raw.Address,
		Latitude:            raw.Lat,
		Longitude:           raw.Lon,
		PeopleCount:         raw.NumberOfPeople,
		WaterLevel:          ParseWaterLevel(raw.WaterLevel),
		HasMedicalEmergency: raw.HasMedicalEmergency,
		HasElderly:          raw.HasElderly,
		HasDisabled:         raw.HasDisabled,
		HasChildren:         raw.HasChildren,
		NeedsFood:           raw.NeedsFood,
		NeedsWater:          raw.NeedsWater,
		SafeHours:           raw.SafeHours,
		Phone:               raw.Phone,
	}

	if t, err := time.Parse(time.RFC3339, raw.ReportedAt); err == nil {
		r.ReportedAt = t.UTC()
	}
	return r
}

// Crowdsource API response structures.

type reportsResponse struct {
	Reports []rawReport `json:"reports"`
}

type rawReport struct {
	ID                  string   `json:"id"`
	District            string   `json:"district"`
	Address             string   `json:"address"`
	Lat                 *float64 `json:"lat"`
	Lon                 *float64 `json:"lon"`
	NumberOfPeople      int      `json:"number_of_people"`
	WaterLevel          string   `json:"water_level"`
	HasMedicalEmergency bool     `json:"has_medical_emergency"`
	HasElderly          bool     `json:"has_elderly"`
	HasDisabled         bool     `json:"has_disabled"`
	HasChildren         bool     `json:"has_children"`
	NeedsFood           bool     `json:"needs_food"`
	NeedsWater          bool     `json:"needs_water"`
	SafeHours           *float64 `json:"safe_hours"`
	Phone               string   `json:"phone"`
	ReportedAt          string   `json:"reported_at"`
}
