// Package here fetches district weather from the HERE Destination Weather API.
package here

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "here"

	// DefaultBaseURL is the HERE Destination Weather v3 base URL.
	DefaultBaseURL = "https://weather.hereapi.com/v3"

	// maxConcurrentFetches bounds the per-district request fan-out.
	maxConcurrentFetches = 5
)

// ClientConfig holds configuration for the HERE weather client.
type ClientConfig struct {
	// APIKey is the HERE API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches observation and seven-day forecast per district in one
// report call.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new HERE weather client.
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

// FetchDistricts fetches every district concurrently. A district failure is
// logged and skipped; the call fails only when nothing was fetched.
func (c *Client) FetchDistricts(ctx context.Context, districts []region.District) ([]weather.DistrictWeather, error) {
	var (
		mu  sync.Mutex
		out []weather.DistrictWeather
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, d := range districts {
		d := d
		g.Go(func() error {
			snapshot, err := c.fetchDistrict(gctx, d)
			if err != nil {
				c.logger.Warn().Err(err).Str("district", d.Name).Msg("here fetch failed for district")
				return nil // keep going, partial results are fine
			}
			mu.Lock()
			out = append(out, *snapshot)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("here returned no district data")
	}
	return out, nil
}

func (c *Client) fetchDistrict(ctx context.Context, d region.District) (*weather.DistrictWeather, error) {
	params := url.Values{}
	params.Set("products", "observation,forecast7days")
	params.Set("location", fmt.Sprintf("%.4f,%.4f", d.Latitude, d.Longitude))
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/report?"+params.Encode(), http.NoBody)
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

	var report reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(report.Places) == 0 {
		return nil, fmt.Errorf("empty report for %s", d.Name)
	}

	return c.toDistrictWeather(d, &report.Places[0]), nil
}

func (c *Client) toDistrictWeather(d region.District, place *placeReport) *weather.DistrictWeather {
	w := &weather.DistrictWeather{
		District:  d.Name,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Source:    ProviderName,
		FetchedAt: time.Now().UTC(),
	}

	if len(place.Observations) > 0 {
		obs := place.Observations[0]
		w.TemperatureC = obs.Temperature
		w.HumidityPercent = obs.Humidity
		w.PressureHpa = obs.BarometerPressure
		w.WindDirection = obs.WindDirection
		w.WindGustKmh = obs.WindGust
		w.Description = obs.Description
		if obs.WindSpeed != nil {
			w.WindSpeedKmh = *obs.WindSpeed
		}
		if obs.Precipitation24H != nil {
			w.Rainfall24hMm = *obs.Precipitation24H
		}
	}

	var daily []forecastDay
	if len(place.DailyForecasts) > 0 {
		daily = place.DailyForecasts[0].Forecasts
	}

	for i, f := range daily {
		rain := f.RainFall + f.SnowFall
		switch {
		case i < 1:
			if w.Rainfall24hMm == 0 {
				w.Rainfall24hMm = rain
			}
			w.ForecastRain24hMm = rain
			w.Rainfall48hMm += rain
			w.Rainfall72hMm += rain
			w.PrecipProb = f.PrecipitationProbability
		case i < 2:
			w.ForecastRain48hMm = w.ForecastRain24hMm + rain
			w.Rainfall48hMm += rain
			w.Rainfall72hMm += rain
		case i < 3:
			w.Rainfall72hMm += rain
		}

		w.ForecastDaily = append(w.ForecastDaily, weather.DailyForecast{
			Date:            f.Time,
			TempMinC:        f.LowTemperature,
			TempMaxC:        f.HighTemperature,
			PrecipitationMm: rain,
			PrecipProb:      f.PrecipitationProbability,
			WindSpeedKmh:    f.WindSpeed,
			Description:     f.Description,
		})
	}

	return w
}

// HERE API response structures.

type reportResponse struct {
	Places []placeReport `json:"places"`
}

type placeReport struct {
	Observations []struct {
		Temperature       *float64 `json:"temperature"`
		Humidity          *float64 `json:"humidity"`
		BarometerPressure *float64 `json:"barometerPressure"`
		WindSpeed         *float64 `json:"windSpeed"`
		WindGust          *float64 `json:"windGust"`
		WindDirection     *float64 `json:"windDirection"`
		Precipitation24H  *float64 `json:"precipitation24H"`
		Description       string   `json:"description"`
	} `json:"observations"`
	DailyForecasts []struct {
		Forecasts []forecastDay `json:"forecasts"`
	} `json:"dailyForecasts"`
}

type forecastDay struct {
	Time                     string   `json:"time"`
	HighTemperature          *float64 `json:"highTemperature"`
	LowTemperature           *float64 `json:"lowTemperature"`
	PrecipitationProbability float64  `json:"precipitationProbability"`
	RainFall                 float64  `json:"rainFall"`
	SnowFall                 float64  `json:"snowFall"`
	WindSpeed                *float64 `json:"windSpeed"`
	Description              string   `json:"description"`
}
