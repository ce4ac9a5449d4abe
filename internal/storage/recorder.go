package storage

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/alerts"
	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/intel"
	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/internal/weather"
)

// WeatherSource is the slice of the weather service the recorder reads.
type WeatherSource interface {
	All(ctx context.Context) ([]weather.DistrictWeather, cache.Info, error)
}

// AlertSource is the slice of the alerts service the recorder reads.
type AlertSource interface {
	All(ctx context.Context) ([]alerts.Alert, cache.Info, error)
}

// IntelSource is the slice of the intelligence service the recorder reads.
type IntelSource interface {
	Analysis(ctx context.Context) (intel.Snapshot, cache.Info, error)
}

// RecorderConfig holds configuration for the recorder.
type RecorderConfig struct {
	// Store receives the append streams (required).
	Store Store

	// Weather, Alerts, and Intel are the recorded sources. Any of them
	// may be nil; the corresponding stream is skipped.
	Weather WeatherSource
	Alerts  AlertSource
	Intel   IntelSource

	// Regions resolves rainfall alert bands for the weather log.
	Regions *region.Registry

	// CurrentRegion is the region whose thresholds apply.
	CurrentRegion string

	// Logger for recorder operations.
	Logger zerolog.Logger
}

// Recorder copies the current cache snapshots into the append store. It
// runs as a scheduler source so persistence rides the same loop machinery
// as the fetchers.
type Recorder struct {
	store         Store
	weather       WeatherSource
	alerts        AlertSource
	intel         IntelSource
	regions       *region.Registry
	currentRegion string
	logger        zerolog.Logger
}

// NewRecorder creates a recorder.
func NewRecorder(cfg RecorderConfig) *Recorder {
	return &Recorder{
		store:         cfg.Store,
		weather:       cfg.Weather,
		alerts:        cfg.Alerts,
		intel:         cfg.Intel,
		regions:       cfg.Regions,
		currentRegion: cfg.CurrentRegion,
		logger:        cfg.Logger,
	}
}

// Run records one cycle of every configured stream. Streams fail
// independently; the combined error reports all of them.
func (r *Recorder) Run(ctx context.Context, _ bool) error {
	now := time.Now().UTC()
	return errors.Join(
		r.recordWeather(ctx, now),
		r.recordAlerts(ctx, now),
		r.archiveReports(ctx, now),
	)
}

func (r *Recorder) recordWeather(ctx context.Context, now time.Time) error {
	if r.weather == nil {
		return nil
	}

	observations, _, err := r.weather.All(ctx)
	if err != nil {
		return err
	}

	logs := make([]WeatherLog, 0, len(observations))
	for _, w := range observations {
		level := region.AlertGreen
		if r.regions != nil {
			if l, err := r.regions.AlertLevel(r.currentRegion, w.Rainfall24hMm); err == nil {
				level = l
			}
		}
		logs = append(logs, WeatherLog{
			District:    w.District,
			RainfallMm:  w.Rainfall24hMm,
			ForecastMm:  w.ForecastRain24hMm,
			AlertLevel:  level,
			DangerScore: w.DangerScore,
			RecordedAt:  now,
		})
	}

	if err := r.store.AppendWeatherLogs(ctx, logs); err != nil {
		return err
	}
	r.logger.Debug().Int("districts", len(logs)).Msg("weather logs recorded")
	return nil
}

func (r *Recorder) recordAlerts(ctx context.Context, now time.Time) error {
	if r.alerts == nil {
		return nil
	}

	active, _, err := r.alerts.All(ctx)
	if err != nil {
		return err
	}

	events := make([]AlertEvent, 0, len(active))
	for _, a := range active {
		events = append(events, AlertEvent{
			Location:   a.Location,
			Event:      a.Event,
			Headline:   a.Headline,
			Severity:   string(a.Severity),
			Effective:  a.Effective,
			RecordedAt: now,
		})
	}

	if err := r.store.AppendAlertEvents(ctx, events); err != nil {
		return err
	}
	r.logger.Debug().Int("alerts", len(events)).Msg("alert history recorded")
	return nil
}

func (r *Recorder) archiveReports(ctx context.Context, now time.Time) error {
	if r.intel == nil {
		return nil
	}

	snapshot, _, err := r.intel.Analysis(ctx)
	if err != nil {
		return err
	}

	archived := make([]ArchivedReport, 0, len(snapshot.Priorities))
	for _, p := range snapshot.Priorities {
		archived = append(archived, ArchivedReport{
			ReportID:     p.ID,
			District:     p.District,
			PeopleCount:  p.PeopleCount,
			WaterLevel:   string(p.WaterLevel),
			UrgencyScore: p.UrgencyScore,
			UrgencyTier:  string(p.UrgencyTier),
			ReportedAt:   p.ReportedAt,
			ArchivedAt:   now,
		})
	}

	inserted, err := r.store.ArchiveReports(ctx, archived)
	if err != nil {
		return err
	}
	if inserted > 0 {
		r.logger.Info().Int("new_reports", inserted).Msg("distress reports archived")
	}
	return nil
}
