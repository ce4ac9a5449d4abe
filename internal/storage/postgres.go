package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floodwatch/floodwatch/internal/region"
)

// Schema creates the append tables. Applied at worker startup; every
// statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS weather_logs (
	id           BIGSERIAL PRIMARY KEY,
	district     TEXT NOT NULL,
	rainfall_mm  DOUBLE PRECISION NOT NULL,
	forecast_mm  DOUBLE PRECISION NOT NULL,
	alert_level  TEXT NOT NULL,
	danger_score INTEGER NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS weather_logs_district_recorded_idx
	ON weather_logs (district, recorded_at DESC);

CREATE TABLE IF NOT EXISTS alert_events (
	id          BIGSERIAL PRIMARY KEY,
	location    TEXT NOT NULL,
	event       TEXT NOT NULL,
	headline    TEXT NOT NULL,
	severity    TEXT NOT NULL,
	effective   TIMESTAMPTZ,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS alert_events_recorded_idx
	ON alert_events (recorded_at DESC);

CREATE TABLE IF NOT EXISTS sos_archive (
	report_id     TEXT PRIMARY KEY,
	district      TEXT NOT NULL,
	people_count  INTEGER NOT NULL,
	water_level   TEXT NOT NULL,
	urgency_score INTEGER NOT NULL,
	urgency_tier  TEXT NOT NULL,
	reported_at   TIMESTAMPTZ NOT NULL,
	archived_at   TIMESTAMPTZ NOT NULL
);
`

// PostgresStore is the database-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema applies the append-table schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("applying storage schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendWeatherLogs(ctx context.Context, logs []WeatherLog) error {
	if len(logs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO weather_logs (district, rainfall_mm, forecast_mm, alert_level, danger_score, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, l := range logs {
		batch.Queue(query, l.District, l.RainfallMm, l.ForecastMm, string(l.AlertLevel), l.DangerScore, l.RecordedAt)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

func (s *PostgresStore) LatestWeatherLogs(ctx context.Context) (map[string]WeatherLog, error) {
	query := `
		SELECT DISTINCT ON (lower(district))
			district, rainfall_mm, forecast_mm, alert_level, danger_score, recorded_at
		FROM weather_logs
		ORDER BY lower(district), recorded_at DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]WeatherLog)
	for rows.Next() {
		var l WeatherLog
		var level string
		if err := rows.Scan(&l.District, &l.RainfallMm, &l.ForecastMm, &level, &l.DangerScore, &l.RecordedAt); err != nil {
			return nil, err
		}
		l.AlertLevel = region.AlertLevel(level)
		out[strings.ToLower(l.District)] = l
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendAlertEvents(ctx context.Context, events []AlertEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO alert_events (location, event, headline, severity, effective, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range events {
		batch.Queue(query, e.Location, e.Event, e.Headline, e.Severity, e.Effective, e.RecordedAt)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

func (s *PostgresStore) RecentAlertEvents(ctx context.Context, limit int) ([]AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT location, event, headline, severity, effective, recorded_at
		FROM alert_events
		ORDER BY recorded_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlertEvent
	for rows.Next() {
		var e AlertEvent
		if err := rows.Scan(&e.Location, &e.Event, &e.Headline, &e.Severity, &e.Effective, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ArchiveReports(ctx context.Context, reports []ArchivedReport) (int, error) {
	if len(reports) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO sos_archive (report_id, district, people_count, water_level, urgency_score, urgency_tier, reported_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (report_id) DO NOTHING
	`

	inserted := 0
	for _, r := range reports {
		tag, err := s.pool.Exec(ctx, query,
			r.ReportID, r.District, r.PeopleCount, r.WaterLevel,
			r.UrgencyScore, r.UrgencyTier, r.ReportedAt, r.ArchivedAt)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

var _ Store = (*PostgresStore)(nil)
