// Package app wires the source services, persistence, and scheduler from the
// core configuration. Both binaries bootstrap through it: the API server adds
// the HTTP surface on top, the worker runs the refresh loops alone.
package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/alerts"
	"github.com/floodwatch/floodwatch/internal/alerts/weatherapi"
	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/climate"
	climatemeteo "github.com/floodwatch/floodwatch/internal/climate/openmeteo"
	"github.com/floodwatch/floodwatch/internal/config"
	"github.com/floodwatch/floodwatch/internal/database"
	"github.com/floodwatch/floodwatch/internal/earlywarning"
	"github.com/floodwatch/floodwatch/internal/earlywarning/openweathermap"
	"github.com/floodwatch/floodwatch/internal/environmental"
	"github.com/floodwatch/floodwatch/internal/environmental/worldbank"
	"github.com/floodwatch/floodwatch/internal/facilities"
	"github.com/floodwatch/floodwatch/internal/facilities/overpass"
	"github.com/floodwatch/floodwatch/internal/intel"
	"github.com/floodwatch/floodwatch/internal/marine"
	marinemeteo "github.com/floodwatch/floodwatch/internal/marine/openmeteo"
	"github.com/floodwatch/floodwatch/internal/provider/resilience"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/river"
	"github.com/floodwatch/floodwatch/internal/river/irrigation"
	"github.com/floodwatch/floodwatch/internal/river/navy"
	"github.com/floodwatch/floodwatch/internal/scheduler"
	"github.com/floodwatch/floodwatch/internal/sos"
	"github.com/floodwatch/floodwatch/internal/storage"
	"github.com/floodwatch/floodwatch/internal/threat"
	"github.com/floodwatch/floodwatch/internal/traffic"
	traffichere "github.com/floodwatch/floodwatch/internal/traffic/here"
	"github.com/floodwatch/floodwatch/internal/traffic/tomtom"
	"github.com/floodwatch/floodwatch/internal/weather"
	weatherhere "github.com/floodwatch/floodwatch/internal/weather/here"
	weathermeteo "github.com/floodwatch/floodwatch/internal/weather/openmeteo"
)

// App holds every wired service. Services whose upstream key is missing stay
// nil; the router omits their routes and the scheduler skips their loops.
type App struct {
	Config  *config.CoreConfig
	Regions *region.Registry

	Rivers        *river.Service
	Weather       *weather.Service
	EarlyWarning  *earlywarning.Service
	Alerts        *alerts.Service
	Marine        *marine.Service
	Traffic       *traffic.Service
	Facilities    *facilities.Service
	Climate       *climate.Service
	Environmental *environmental.Service
	Threat        *threat.Service
	Intel         *intel.Service
	SOS           *sos.Client

	Store     storage.Store
	Pool      *pgxpool.Pool
	Scheduler *scheduler.Scheduler

	// CacheInfos yields the state of every wired cache in scheduler order.
	CacheInfos []func() cache.Info

	stopWatch func()
	log       zerolog.Logger
}

// New wires everything from the environment configuration. A missing API key
// disables the source it belongs to rather than failing startup; only region
// configuration and database connectivity (when configured) are fatal.
func New(ctx context.Context, cfg *config.CoreConfig, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	regions, err := region.NewRegistry(region.RegistryConfig{
		RegionsPath:  cfg.RegionsPath,
		DistrictsDir: cfg.DistrictsDir,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}
	a.Regions = regions

	if stop, err := regions.Watch(); err != nil {
		log.Warn().Err(err).Msg("region hot reload disabled")
	} else {
		a.stopWatch = stop
	}

	a.buildRivers()
	a.buildWeather()
	a.buildEarlyWarning()
	a.buildAlerts()
	a.buildMarine()
	a.buildTraffic()
	a.buildFacilities()
	a.buildClimate()
	a.buildEnvironmental()
	a.buildAggregates()

	if err := a.buildStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.buildScheduler()
	return a, nil
}

// Close releases the database pool and the region watcher. The scheduler is
// stopped by the binary that started it.
func (a *App) Close() {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func (a *App) buildRivers() {
	factory := river.NewFactory(river.FactoryConfig{
		Regions:       a.Regions,
		HealthTimeout: a.Config.HealthTimeout,
		Logger:        a.log,
	})
	factory.Register(irrigation.NewClient(irrigation.ClientConfig{Logger: a.log}))
	factory.Register(navy.NewClient(navy.ClientConfig{Logger: a.log}))
	for _, p := range river.SouthIndiaPlaceholders() {
		factory.Register(p)
	}

	a.Rivers = river.NewService(river.ServiceConfig{
		Factory:       factory,
		CurrentRegion: a.Config.CurrentRegion,
		TTL:           a.Config.RiverTTL,
		Freeze:        a.Config.FreezeMode,
		SnapshotPath:  a.snapshot("rivers.json"),
		Logger:        a.log,
	})
}

func (a *App) buildWeather() {
	openMeteo := weathermeteo.NewClient(weathermeteo.ClientConfig{Logger: a.log})

	var primary, fallback weather.Provider = openMeteo, nil
	if a.Config.HereAPIKey != "" {
		primary = weatherhere.NewClient(weatherhere.ClientConfig{
			APIKey: a.Config.HereAPIKey,
			Logger: a.log,
		})
		fallback = openMeteo
	} else {
		a.log.Info().Msg("HERE key not set, weather runs on Open-Meteo only")
	}

	a.Weather = weather.NewService(weather.ServiceConfig{
		Primary:       primary,
		Fallback:      fallback,
		Regions:       a.Regions,
		CurrentRegion: a.Config.CurrentRegion,
		TTL:           a.Config.WeatherTTL,
		Freeze:        a.Config.FreezeMode,
		SnapshotPath:  a.snapshot("weather.json"),
		Logger:        a.log,
	})
}

func (a *App) buildEarlyWarning() {
	if a.Config.OpenWeatherMapAPIKey == "" {
		a.log.Info().Msg("OpenWeatherMap key not set, early warning source disabled")
		return
	}

	a.EarlyWarning = earlywarning.NewService(earlywarning.ServiceConfig{
		Provider: openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey: a.Config.OpenWeatherMapAPIKey,
			Logger: a.log,
		}),
		Regions:       a.Regions,
		CurrentRegion: a.Config.CurrentRegion,
		TTL:           a.Config.EarlyWarningTTL,
		Freeze:        a.Config.FreezeMode,
		SnapshotPath:  a.snapshot("early_warning.json"),
		Logger:        a.log,
	})
}

func (a *App) buildAlerts() {
	if a.Config.WeatherAPIKey == "" {
		a.log.Info().Msg("WeatherAPI key not set, official alerts source disabled")
		return
	}

	a.Alerts = alerts.NewService(alerts.ServiceConfig{
		Provider: weatherapi.NewClient(weatherapi.ClientConfig{
			APIKey: a.Config.WeatherAPIKey,
			Logger: a.log,
		}),
		Regions:       a.Regions,
		CurrentRegion: a.Config.CurrentRegion,
		TTL:           a.Config.AlertsTTL,
		Freeze:        a.Config.FreezeMode,
		Logger:        a.log,
	})
}

func (a *App) buildMarine() {
	a.Marine = marine.NewService(marine.ServiceConfig{
		Provider:      marinemeteo.NewClient(marinemeteo.ClientConfig{Logger: a.log}),
		Regions:       a.Regions,
		CurrentRegion: a.Config.CurrentRegion,
		TTL:           a.Config.MarineTTL,
		Freeze:        a.Config.FreezeMode,
		Logger:        a.log,
	})
}

func (a *App) buildTraffic() {
	if a.Config.TomTomAPIKey == "" {
		a.log.Info().Msg("TomTom key not set, traffic source disabled")
		return
	}

	tt := tomtom.NewClient(tomtom.ClientConfig{
		APIKey: a.Config.TomTomAPIKey,
		Logger: a.log,
	})

	flow := []traffic.FlowProvider{tt}
	if a.Config.HereAPIKey != "" {
		flow = append(flow, traffichere.NewClient(traffichere.ClientConfig{
			APIKey: a.Config.HereAPIKey,
			Logger: a.log,
		}))
	}

	a.Traffic = traffic.NewService(traffic.ServiceConfig{
		Incidents:   tt,
		Flow:        flow,
		IncidentTTL: a.Config.TrafficTTL,
		FlowTTL:     a.Config.TrafficTTL,
		Freeze:      a.Config.FreezeMode,
		Logger:      a.log,
	})
}

func (a *App) buildFacilities() {
	reg, err := a.Regions.Get(a.Config.CurrentRegion)
	if err != nil {
		a.log.Error().Err(err).Str("region", a.Config.CurrentRegion).
			Msg("current region not in region document, facilities source disabled")
		return
	}

	a.Facilities = facilities.NewService(facilities.ServiceConfig{
		Provider: overpass.NewClient(overpass.ClientConfig{
			Bounds: reg.Bounds,
			Logger: a.log,
		}),
		TTL:          a.Config.FacilitiesTTL,
		Freeze:       a.Config.FreezeMode,
		SnapshotPath: a.snapshot("facilities.json"),
		Logger:       a.log,
	})
}

func (a *App) buildClimate() {
	archiveClient := resilience.NewClient(resilience.ClientConfig{
		Name:    "open_meteo_archive",
		Timeout: a.Config.ArchiveTimeout,
	})

	a.Climate = climate.NewService(climate.ServiceConfig{
		Provider: climatemeteo.NewClient(climatemeteo.ClientConfig{
			HTTPClient: archiveClient,
			Logger:     a.log,
		}),
		Regions:       a.Regions,
		CurrentRegion: a.Config.CurrentRegion,
		TTL:           a.Config.ClimateTTL,
		SnapshotDir:   a.snapshot("climate"),
		Freeze:        a.Config.FreezeMode,
		Logger:        a.log,
	})
}

func (a *App) buildEnvironmental() {
	archiveClient := resilience.NewClient(resilience.ClientConfig{
		Name:    "worldbank",
		Timeout: a.Config.ArchiveTimeout,
	})

	a.Environmental = environmental.NewService(environmental.ServiceConfig{
		Provider: worldbank.NewClient(worldbank.ClientConfig{
			HTTPClient: archiveClient,
			Logger:     a.log,
		}),
		TTL:          a.Config.EnvironmentalTTL,
		Freeze:       a.Config.FreezeMode,
		SnapshotPath: a.snapshot("environmental.json"),
		Logger:       a.log,
	})
}

func (a *App) buildAggregates() {
	a.Threat = threat.NewService(threat.ServiceConfig{
		Weather:       a.Weather,
		Rivers:        a.Rivers,
		Regions:       a.Regions,
		CurrentRegion: a.Config.CurrentRegion,
		TTL:           a.Config.ThreatInterval,
		Freeze:        a.Config.FreezeMode,
		SnapshotPath:  a.snapshot("threat.json"),
		Logger:        a.log,
	})

	a.SOS = sos.NewClient(sos.ClientConfig{
		BaseURL: a.Config.SOSAPIBaseURL,
		Logger:  a.log,
	})

	a.Intel = intel.NewService(intel.ServiceConfig{
		Reports:      a.SOS,
		Forecasts:    a.Weather,
		TTL:          a.Config.IntelInterval,
		Freeze:       a.Config.FreezeMode,
		SnapshotPath: a.snapshot("intel.json"),
		Logger:       a.log,
	})
}

func (a *App) buildStorage(ctx context.Context) error {
	if a.Config.DatabaseURL == "" {
		a.log.Info().Msg("DATABASE_URL not set, using in-memory log store")
		a.Store = storage.NewMemoryStore()
		return nil
	}

	pool, err := database.Connect(ctx, database.ConfigFromEnv(a.Config.DatabaseURL))
	if err != nil {
		return err
	}
	a.Pool = pool

	store := storage.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	a.Store = store
	a.log.Info().Msg("postgres log store ready")
	return nil
}

func (a *App) buildScheduler() {
	var sources []scheduler.Source
	add := func(name string, interval time.Duration, refresh func(context.Context, bool) error, info func() cache.Info) {
		sources = append(sources, scheduler.Source{Name: name, Interval: interval, Refresh: refresh})
		if info != nil {
			a.CacheInfos = append(a.CacheInfos, info)
		}
	}

	add("rivers", a.Config.RiverTTL, a.Rivers.Cache().Refresh, a.Rivers.Cache().Info)
	add("weather", a.Config.WeatherTTL, a.Weather.Cache().Refresh, a.Weather.Cache().Info)
	if a.EarlyWarning != nil {
		add("early_warning", a.Config.EarlyWarningTTL, a.EarlyWarning.Cache().Refresh, a.EarlyWarning.Cache().Info)
	}
	if a.Alerts != nil {
		add("alerts", a.Config.AlertsTTL, a.Alerts.Cache().Refresh, a.Alerts.Cache().Info)
	}
	add("marine", a.Config.MarineTTL, a.Marine.Cache().Refresh, a.Marine.Cache().Info)
	if a.Traffic != nil {
		add("traffic_incidents", a.Config.TrafficTTL, a.Traffic.IncidentCache().Refresh, a.Traffic.IncidentCache().Info)
		add("traffic_flow", a.Config.TrafficTTL, a.Traffic.FlowCache().Refresh, a.Traffic.FlowCache().Info)
	}
	if a.Facilities != nil {
		add("facilities", a.Config.FacilitiesTTL, a.Facilities.Cache().Refresh, a.Facilities.Cache().Info)
	}
	add("environmental", a.Config.EnvironmentalTTL, a.Environmental.Cache().Refresh, a.Environmental.Cache().Info)
	add("threat", a.Config.ThreatInterval, a.Threat.Cache().Refresh, a.Threat.Cache().Info)
	add("intel", a.Config.IntelInterval, a.Intel.Cache().Refresh, a.Intel.Cache().Info)

	recorder := storage.NewRecorder(storage.RecorderConfig{
		Store:         a.Store,
		Weather:       a.Weather,
		Alerts:        alertSource(a.Alerts),
		Intel:         a.Intel,
		Regions:       a.Regions,
		CurrentRegion: a.Config.CurrentRegion,
		Logger:        a.log,
	})
	add("recorder", a.Config.AlertsTTL, recorder.Run, nil)

	a.Scheduler = scheduler.New(scheduler.Config{
		Sources: sources,
		Logger:  a.log,
	})
}

// alertSource keeps a nil alerts service from reaching the recorder as a
// non-nil interface.
func alertSource(svc *alerts.Service) storage.AlertSource {
	if svc == nil {
		return nil
	}
	return svc
}

func (a *App) snapshot(name string) string {
	if a.Config.SnapshotDir == "" {
		return ""
	}
	return filepath.Join(a.Config.SnapshotDir, name)
}
