// Package openweathermap fetches early warning data from the OpenWeatherMap
// One Call API 3.0: current conditions, 48-hour hourly and 8-day daily
// forecasts, and government weather alerts.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/earlywarning"
	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/region"
)

const (
	// ProviderName identifies this early warning provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the One Call API 3.0 endpoint.
	DefaultBaseURL = "https://api.openweathermap.org/data/3.0/onecall"
)

// ClientConfig holds configuration for the One Call client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the One Call endpoint (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches and scores one district per call.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new One Call client.
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

// FetchDistrict fetches, normalises, and risk-scores one district.
func (c *Client) FetchDistrict(ctx context.Context, d region.District) (*earlywarning.DistrictWarning, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.4f", d.Latitude))
	params.Set("lon", fmt.Sprintf("%.4f", d.Longitude))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

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

	var oc oneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&oc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toWarning(d, &oc), nil
}

func (c *Client) toWarning(d region.District, oc *oneCallResponse) *earlywarning.DistrictWarning {
	w := &earlywarning.DistrictWarning{
		District:  d.Name,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		FetchedAt: time.Now().UTC(),
		Alerts:    make([]earlywarning.GovAlert, 0, len(oc.Alerts)),
	}

	var alertEvents []string
	for _, a := range oc.Alerts {
		w.Alerts = append(w.Alerts, earlywarning.GovAlert{
			Sender:      a.SenderName,
			Event:       a.Event,
			Start:       time.Unix(a.Start, 0).UTC(),
			End:         time.Unix(a.End, 0).UTC(),
			Description: a.Description,
			Tags:        a.Tags,
		})
		alertEvents = append(alertEvents, a.Event)
	}
	w.AlertCount = len(w.Alerts)

	var precip1h float64
	for _, m := range oc.Minutely {
		precip1h += m.Precipitation
	}

	var precip24h, precip48h, maxWind, maxGust float64
	highPopHours := 0
	for i, h := range oc.Hourly {
		rain := h.Rain.OneHour + h.Snow.OneHour
		if i < 24 {
			precip24h += rain
			if h.Pop > 0.8 {
				highPopHours++
			}
			if h.WindSpeed > maxWind {
				maxWind = h.WindSpeed
			}
			if h.WindGust > maxGust {
				maxGust = h.WindGust
			}
		}
		if i < 48 {
			precip48h += rain
			w.Hourly = append(w.Hourly, earlywarning.HourlyPoint{
				Time:        time.Unix(h.Dt, 0).UTC(),
				TempC:       h.Temp,
				Humidity:    h.Humidity,
				WindSpeedMs: h.WindSpeed,
				WindGustMs:  h.WindGust,
				PrecipProb:  h.Pop * 100,
				RainMm:      rain,
				Description: h.description(),
			})
		}
	}

	w.Precipitation = earlywarning.Precipitation{
		Next1hMm:  round2(precip1h),
		Next24hMm: round2(precip24h),
		Next48hMm: round2(precip48h),
	}

	for i, day := range oc.Daily {
		if i >= 8 {
			break
		}
		pop := day.Pop * 100
		w.Daily = append(w.Daily, earlywarning.DailyPoint{
			Date:        time.Unix(day.Dt, 0).UTC().Format("2006-01-02"),
			Summary:     day.Summary,
			TempMinC:    day.Temp.Min,
			TempMaxC:    day.Temp.Max,
			WindSpeedMs: day.WindSpeed,
			PrecipProb:  pop,
			RainMm:      day.Rain + day.Snow,
			AlertLevel:  earlywarning.DailyAlertLevel(day.Rain+day.Snow, pop),
		})
	}

	w.RiskLevel, w.RiskScore, w.RiskFactors = earlywarning.ComputeRisk(earlywarning.RiskInput{
		AlertCount:    w.AlertCount,
		AlertEvents:   alertEvents,
		Precip24hMm:   precip24h,
		HighPopHours:  highPopHours,
		MaxWindMs:     maxWind,
		MaxGustMs:     maxGust,
		CurrentRainMm: oc.Current.Rain.OneHour,
	})

	return w
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// One Call API response structures.

type oneCallResponse struct {
	Timezone string `json:"timezone"`
	Current  struct {
		Rain rainVolume `json:"rain"`
	} `json:"current"`
	Minutely []struct {
		Precipitation float64 `json:"precipitation"`
	} `json:"minutely"`
	Hourly []hourlyEntry `json:"hourly"`
	Daily  []struct {
		Dt      int64   `json:"dt"`
		Summary string  `json:"summary"`
		Pop     float64 `json:"pop"`
		Rain    float64 `json:"rain"`
		Snow    float64 `json:"snow"`
		Temp    struct {
			Min *float64 `json:"min"`
			Max *float64 `json:"max"`
		} `json:"temp"`
		WindSpeed float64 `json:"wind_speed"`
	} `json:"daily"`
	Alerts []struct {
		SenderName  string   `json:"sender_name"`
		Event       string   `json:"event"`
		Start       int64    `json:"start"`
		End         int64    `json:"end"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	} `json:"alerts"`
}

type hourlyEntry struct {
	Dt        int64      `json:"dt"`
	Temp      *float64   `json:"temp"`
	Humidity  *float64   `json:"humidity"`
	WindSpeed float64    `json:"wind_speed"`
	WindGust  float64    `json:"wind_gust"`
	Pop       float64    `json:"pop"`
	Rain      rainVolume `json:"rain"`
	Snow      rainVolume `json:"snow"`
	Weather   []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func (h hourlyEntry) description() string {
	if len(h.Weather) > 0 {
		return h.Weather[0].Description
	}
	return ""
}

type rainVolume struct {
	OneHour float64 `json:"1h"`
}
