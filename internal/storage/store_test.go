package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/internal/region"
)

func TestMemoryStore_LatestWeatherLogs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	earlier := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	require.NoError(t, store.AppendWeatherLogs(ctx, []WeatherLog{
		{District: "Colombo", RainfallMm: 10, AlertLevel: region.AlertGreen, RecordedAt: earlier},
		{District: "Ratnapura", RainfallMm: 60, AlertLevel: region.AlertOrange, RecordedAt: earlier},
	}))
	require.NoError(t, store.AppendWeatherLogs(ctx, []WeatherLog{
		{District: "colombo", RainfallMm: 45, AlertLevel: region.AlertYellow, RecordedAt: later},
	}))

	latest, err := store.LatestWeatherLogs(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 45.0, latest["colombo"].RainfallMm, "newest row wins, case-insensitive")
	assert.Equal(t, region.AlertYellow, latest["colombo"].AlertLevel)
	assert.Equal(t, region.AlertOrange, latest["ratnapura"].AlertLevel)
}

func TestMemoryStore_RecentAlertEvents(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendAlertEvents(ctx, []AlertEvent{
		{Event: "Flood Warning", Severity: "Severe", RecordedAt: base},
		{Event: "Heavy Rain", Severity: "Moderate", RecordedAt: base.Add(time.Hour)},
		{Event: "Wind Advisory", Severity: "Minor", RecordedAt: base.Add(2 * time.Hour)},
	}))

	recent, err := store.RecentAlertEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Wind Advisory", recent[0].Event, "newest first")
	assert.Equal(t, "Heavy Rain", recent[1].Event)
}

func TestMemoryStore_ArchiveReportsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	batch := []ArchivedReport{
		{ReportID: "sos-1", District: "Colombo", UrgencyTier: "CRITICAL"},
		{ReportID: "sos-2", District: "Gampaha", UrgencyTier: "LOW"},
	}

	inserted, err := store.ArchiveReports(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, err = store.ArchiveReports(ctx, batch)
	require.NoError(t, err)
	assert.Zero(t, inserted, "re-archiving the same batch is a no-op")
	assert.Equal(t, 2, store.ArchivedCount())
}
