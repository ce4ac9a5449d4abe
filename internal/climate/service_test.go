package climate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/internal/region"
)

const testRegionsDoc = `{
  "regions": [
    {"id": "srilanka", "name": "Sri Lanka", "active": true,
     "bounds": {"minLat": 5.9, "maxLat": 9.9, "minLon": 79.5, "maxLon": 82.0}}
  ]
}`

const testDistrictsDoc = `{
  "districts": [
    {"name": "Ratnapura", "latitude": 6.6828, "longitude": 80.3992}
  ]
}`

func newTestRegions(t *testing.T) *region.Registry {
	t.Helper()

	dir := t.TempDir()
	regionsPath := filepath.Join(dir, "regions.json")
	require.NoError(t, os.WriteFile(regionsPath, []byte(testRegionsDoc), 0o644))

	districtsDir := filepath.Join(dir, "districts")
	require.NoError(t, os.MkdirAll(districtsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(districtsDir, "srilanka.json"), []byte(testDistrictsDoc), 0o644))

	registry, err := region.NewRegistry(region.RegistryConfig{
		RegionsPath:  regionsPath,
		DistrictsDir: districtsDir,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	return registry
}

type fakeArchive struct {
	series Series
	err    error
	calls  int

	gotStartYear int
	gotEndYear   int
}

func (f *fakeArchive) Name() string { return "fake_archive" }

func (f *fakeArchive) FetchSeries(ctx context.Context, d region.District, startYear, endYear int) (Series, error) {
	f.calls++
	f.gotStartYear, f.gotEndYear = startYear, endYear
	if f.err != nil {
		return Series{}, f.err
	}
	return f.series, nil
}

func newTestService(t *testing.T, provider ArchiveProvider, snapshotDir string) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		Provider:      provider,
		Regions:       newTestRegions(t),
		CurrentRegion: "srilanka",
		TTL:           time.Hour,
		SnapshotDir:   snapshotDir,
		Logger:        zerolog.Nop(),
	})
}

func TestService_Patterns(t *testing.T) {
	archive := &fakeArchive{series: twoYearSeries()}
	svc := newTestService(t, archive, "")

	analysis, err := svc.Patterns(context.Background(), "ratnapura", 30, 0)
	require.NoError(t, err)
	assert.Equal(t, "Ratnapura", analysis.District)
	assert.Len(t, analysis.PeakRiskMonths, 1)

	year := time.Now().UTC().Year()
	assert.Equal(t, year-30, archive.gotStartYear)
	assert.Equal(t, year, archive.gotEndYear)

	// Same window again is served from the series cache.
	_, err = svc.Patterns(context.Background(), "Ratnapura", 30, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, archive.calls)
}

func TestService_Patterns_ClampsYears(t *testing.T) {
	archive := &fakeArchive{series: twoYearSeries()}
	svc := newTestService(t, archive, "")

	_, err := svc.Patterns(context.Background(), "Ratnapura", 200, 0)
	require.NoError(t, err)

	year := time.Now().UTC().Year()
	assert.Equal(t, year-MaxYears, archive.gotStartYear)
}

func TestService_Patterns_UnknownDistrict(t *testing.T) {
	svc := newTestService(t, &fakeArchive{}, "")

	_, err := svc.Patterns(context.Background(), "Atlantis", 30, 0)
	assert.Error(t, err)
}

func TestService_SeriesSnapshotSurvivesRestart(t *testing.T) {
	snapshotDir := t.TempDir()

	first := newTestService(t, &fakeArchive{series: twoYearSeries()}, snapshotDir)
	_, _, err := first.Series(context.Background(), "Ratnapura", 30)
	require.NoError(t, err)

	// Fresh service, dead archive: the persisted series still serves.
	second := newTestService(t, &fakeArchive{err: errors.New("archive down")}, snapshotDir)
	series, info, err := second.Series(context.Background(), "Ratnapura", 30)
	require.NoError(t, err)
	assert.NotEmpty(t, series.Days)
	assert.True(t, info.IsValid)
}

func TestService_MonthlyRiskAndExtremeEvents(t *testing.T) {
	svc := newTestService(t, &fakeArchive{series: twoYearSeries()}, "")

	monthly, err := svc.MonthlyRisk(context.Background(), "Ratnapura")
	require.NoError(t, err)
	require.Len(t, monthly, 12)
	assert.Equal(t, MonthRiskHigh, monthly[4].FloodRisk)

	events, err := svc.ExtremeEvents(context.Background(), "Ratnapura", 100)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
