// Package openmeteo fetches district weather from the Open-Meteo forecast
// API. It is the no-key fallback source; request pacing stays gentle because
// the free tier rate-limits aggressively.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "open_meteo"

	// DefaultBaseURL is the Open-Meteo forecast API base URL.
	DefaultBaseURL = "https://api.open-meteo.com/v1"

	// requestDelay paces sequential district requests.
	requestDelay = 1500 * time.Millisecond
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// RequestDelay overrides the pause between district requests (optional).
	RequestDelay time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches district weather sequentially from Open-Meteo.
type Client struct {
	baseURL      string
	httpClient   *resilience.Client
	requestDelay time.Duration
	logger       zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	delay := cfg.RequestDelay
	if delay == 0 {
		delay = requestDelay
	}

	return &Client{
		baseURL:      baseURL,
		httpClient:   httpClient,
		requestDelay: delay,
		logger:       cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchDistricts fetches districts one at a time with a pacing delay.
// District failures are logged and skipped.
func (c *Client) FetchDistricts(ctx context.Context, districts []region.District) ([]weather.DistrictWeather, error) {
	out := make([]weather.DistrictWeather, 0, len(districts))

	for i, d := range districts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(c.requestDelay):
			}
		}

		snapshot, err := c.fetchDistrict(ctx, d)
		if err != nil {
			c.logger.Warn().Err(err).Str("district", d.Name).Msg("open-meteo fetch failed for district")
			continue
		}
		out = append(out, *snapshot)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("open-meteo returned no district data")
	}
	return out, nil
}

func (c *Client) fetchDistrict(ctx context.Context, d region.District) (*weather.DistrictWeather, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", d.Latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", d.Longitude))
	params.Set("current", "temperature_2m,relative_humidity_2m,surface_pressure,cloud_cover,wind_speed_10m,wind_gusts_10m,wind_direction_10m")
	params.Set("hourly", "precipitation")
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max")
	params.Set("past_days", "3")
	params.Set("forecast_days", "8")
	params.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+params.Encode(), http.NoBody)
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

	var om forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&om); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toDistrictWeather(d, &om), nil
}

func (c *Client) toDistrictWeather(d region.District, om *forecastResponse) *weather.DistrictWeather {
	w := &weather.DistrictWeather{
		District:        d.Name,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		TemperatureC:    om.Current.Temperature2m,
		HumidityPercent: om.Current.RelativeHumidity2m,
		PressureHpa:     om.Current.SurfacePressure,
		CloudCover:      om.Current.CloudCover,
		WindGustKmh:     om.Current.WindGusts10m,
		WindDirection:   om.Current.WindDirection10m,
		Source:          ProviderName,
		FetchedAt:       time.Now().UTC(),
	}
	if om.Current.WindSpeed10m != nil {
		w.WindSpeedKmh = *om.Current.WindSpeed10m
	}

	// The hourly series starts past_days back, so the first 72 entries are
	// the observed trailing window.
	past := om.Hourly.Precipitation
	if len(past) > 72 {
		past = past[:72]
	}
	w.Rainfall24hMm = sumTail(past, 24)
	w.Rainfall48hMm = sumTail(past, 48)
	w.Rainfall72hMm = sumTail(past, 72)

	for i := range om.Daily.Time {
		day := weather.DailyForecast{
			Date:            om.Daily.Time[i],
			PrecipitationMm: at(om.Daily.PrecipitationSum, i),
			PrecipProb:      at(om.Daily.PrecipitationProbabilityMax, i),
		}
		if v := atPtr(om.Daily.Temperature2mMax, i); v != nil {
			day.TempMaxC = v
		}
		if v := atPtr(om.Daily.Temperature2mMin, i); v != nil {
			day.TempMinC = v
		}
		if v := atPtr(om.Daily.WindSpeed10mMax, i); v != nil {
			day.WindSpeedKmh = v
		}
		w.ForecastDaily = append(w.ForecastDaily, day)
	}

	// past_days are included in the daily series; forecast windows start at
	// the first day not in the past.
	forecastStart := 3
	if forecastStart > len(w.ForecastDaily) {
		forecastStart = len(w.ForecastDaily)
	}
	forecast := w.ForecastDaily[forecastStart:]
	if len(forecast) > 0 {
		w.ForecastRain24hMm = forecast[0].PrecipitationMm
		w.PrecipProb = forecast[0].PrecipProb
	}
	if len(forecast) > 1 {
		w.ForecastRain48hMm = forecast[0].PrecipitationMm + forecast[1].PrecipitationMm
	}
	w.ForecastDaily = forecast

	return w
}

// sumTail sums the last n values of the series.
func sumTail(series []float64, n int) float64 {
	if n > len(series) {
		n = len(series)
	}
	var total float64
	for _, v := range series[len(series)-n:] {
		total += v
	}
	return total
}

func at(series []float64, i int) float64 {
	if i < len(series) {
		return series[i]
	}
	return 0
}

func atPtr(series []float64, i int) *float64 {
	if i < len(series) {
		v := series[i]
		return &v
	}
	return nil
}

// Open-Meteo API response structures.

type forecastResponse struct {
	Current struct {
		Temperature2m      *float64 `json:"temperature_2m"`
		RelativeHumidity2m *float64 `json:"relative_humidity_2m"`
		SurfacePressure    *float64 `json:"surface_pressure"`
		CloudCover         *float64 `json:"cloud_cover"`
		WindSpeed10m       *float64 `json:"wind_speed_10m"`
		WindGusts10m       *float64 `json:"wind_gusts_10m"`
		WindDirection10m   *float64 `json:"wind_direction_10m"`
	} `json:"current"`
	Hourly struct {
		Time          []string  `json:"time"`
		Precipitation []float64 `json:"precipitation"`
	} `json:"hourly"`
	Daily struct {
		Time                        []string  `json:"time"`
		Temperature2mMax            []float64 `json:"temperature_2m_max"`
		Temperature2mMin            []float64 `json:"temperature_2m_min"`
		PrecipitationSum            []float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
		WindSpeed10mMax             []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}
