package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/internal/api"
	"github.com/floodwatch/floodwatch/internal/api/models"
	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/scheduler"
	"github.com/floodwatch/floodwatch/internal/storage"
)

const testRegionsDoc = `{
  "regions": [
    {
      "id": "srilanka",
      "name": "Sri Lanka",
      "active": true,
      "bounds": {"minLat": 5.9, "maxLat": 9.9, "minLon": 79.5, "maxLon": 82.0},
      "alertThresholds": {
        "green": {"minRain": 0, "maxRain": 25},
        "yellow": {"minRain": 25, "maxRain": 50},
        "orange": {"minRain": 50, "maxRain": 100},
        "red": {"minRain": 100, "maxRain": 100000}
      }
    },
    {
      "id": "dormant",
      "name": "Dormant Region",
      "active": false,
      "bounds": {"minLat": 0, "maxLat": 1, "minLon": 0, "maxLon": 1}
    }
  ]
}`

func newTestRegions(t *testing.T) *region.Registry {
	t.Helper()

	dir := t.TempDir()
	regionsPath := filepath.Join(dir, "regions.json")
	require.NoError(t, os.WriteFile(regionsPath, []byte(testRegionsDoc), 0o644))

	districtsDir := filepath.Join(dir, "districts")
	require.NoError(t, os.MkdirAll(districtsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(districtsDir, "srilanka.json"),
		[]byte(`{"districts": [
			{"name": "Colombo", "latitude": 6.93, "longitude": 79.85},
			{"name": "Ratnapura", "latitude": 6.68, "longitude": 80.4}
		]}`), 0o644))

	registry, err := region.NewRegistry(region.RegistryConfig{
		RegionsPath:  regionsPath,
		DistrictsDir: districtsDir,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	return registry
}

func newTestRouter(t *testing.T, mutate func(*api.RouterConfig)) http.Handler {
	t.Helper()

	cfg := api.RouterConfig{
		Version:   "test",
		BuildTime: "2026-01-01T00:00:00Z",
		Logger:    zerolog.New(io.Discard),
		Regions:   newTestRegions(t),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return api.NewRouter(cfg)
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ReadinessCheck_ColdCaches(t *testing.T) {
	router := newTestRouter(t, func(cfg *api.RouterConfig) {
		cfg.CacheInfos = []func() cache.Info{
			func() cache.Info { return cache.Info{Name: "weather", IsValid: false} },
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusFail, health.Status)
}

func TestRouter_CacheOverview(t *testing.T) {
	router := newTestRouter(t, func(cfg *api.RouterConfig) {
		cfg.CacheInfos = []func() cache.Info{
			func() cache.Info { return cache.Info{Name: "weather", IsValid: true} },
			func() cache.Info { return cache.Info{Name: "river_data", IsValid: false} },
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/caches", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Caches []cache.Info `json:"caches"`
		Count  int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "weather", body.Caches[0].Name)
}

func TestRouter_ListRegions(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/regions", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Regions []region.Region `json:"regions"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestRouter_ListActiveRegions(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/regions/active", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Regions []region.Region `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Regions, 1)
	assert.Equal(t, "srilanka", body.Regions[0].ID)
}

func TestRouter_GetRegion_NotFound(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/regions/atlantis", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeNotFound, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_AlertLevel(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/regions/srilanka/alert-level?rainfallMm=60", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		AlertLevel region.AlertLevel `json:"alertLevel"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, region.AlertOrange, body.AlertLevel)
}

func TestRouter_AlertLevel_MissingParam(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/regions/srilanka/alert-level", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
}

func TestRouter_ListDistricts_WithWeatherLogOverlay(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.AppendWeatherLogs(context.Background(), []storage.WeatherLog{
		{District: "Colombo", RainfallMm: 62.5, AlertLevel: region.AlertOrange, RecordedAt: time.Now().UTC()},
	}))

	router := newTestRouter(t, func(cfg *api.RouterConfig) {
		cfg.Store.WeatherLogs = store
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/regions/srilanka/districts", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Districts []struct {
			Name       string            `json:"name"`
			AlertLevel region.AlertLevel `json:"alertLevel"`
			RainfallMm *float64          `json:"rainfallMm"`
			Source     string            `json:"source"`
		} `json:"districts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Districts, 2)

	byName := map[string]region.AlertLevel{}
	for _, d := range body.Districts {
		byName[d.Name] = d.AlertLevel
	}
	assert.Equal(t, region.AlertOrange, byName["Colombo"])
	assert.Equal(t, region.AlertGreen, byName["Ratnapura"], "district without a log defaults to green")
}

func TestRouter_RefreshSource(t *testing.T) {
	refreshed := 0
	sched := scheduler.New(scheduler.Config{
		Sources: []scheduler.Source{{
			Name:     "weather",
			Interval: time.Hour,
			Refresh: func(ctx context.Context, force bool) error {
				refreshed++
				return nil
			},
		}},
		Logger: zerolog.Nop(),
	})

	router := newTestRouter(t, func(cfg *api.RouterConfig) {
		cfg.Scheduler = sched
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/ops/refresh/weather", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, refreshed)

	// Unknown sources are a 404, not a 500.
	req = httptest.NewRequest(http.MethodPost, "/v1/ops/refresh/volcanoes", http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SystemStatus(t *testing.T) {
	sched := scheduler.New(scheduler.Config{
		Sources: []scheduler.Source{{
			Name:     "weather",
			Interval: time.Hour,
			Refresh:  func(ctx context.Context, force bool) error { return nil },
		}},
		Logger: zerolog.Nop(),
	})

	router := newTestRouter(t, func(cfg *api.RouterConfig) {
		cfg.Scheduler = sched
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, "weather", status.Subsystems[0].Name)
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
