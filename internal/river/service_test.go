package river

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/floodwatch/pkg/geo"
)

func newTestService(t *testing.T, providers ...Provider) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		Factory:       newTestFactory(t, providers...),
		CurrentRegion: "srilanka",
		TTL:           time.Minute,
		Logger:        zerolog.Nop(),
	})
}

func TestService_Stations_AggregatesProviders(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka", stations: []Station{
		{StationID: "srilanka_rb01_hanwella", Latitude: 6.90, Longitude: 80.08, WaterLevelM: 3.2},
	}}
	b := &fakeProvider{name: "gauges_b", region: "srilanka", stations: []Station{
		{StationID: "srilanka_rb03_ratnapura", Latitude: 6.68, Longitude: 80.40, WaterLevelM: 5.1},
	}}
	svc := newTestService(t, a, b)

	stations, info, err := svc.Stations(context.Background())
	require.NoError(t, err)
	assert.Len(t, stations, 2)
	assert.True(t, info.IsValid)
	assert.Equal(t, "river_levels", info.Name)
}

func TestService_Stations_OneProviderDown(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka", stations: []Station{
		{StationID: "srilanka_rb01_hanwella", Latitude: 6.90, Longitude: 80.08},
	}}
	b := &fakeProvider{name: "gauges_b", region: "srilanka", fetchErr: errors.New("timeout")}
	svc := newTestService(t, a, b)

	stations, _, err := svc.Stations(context.Background())
	require.NoError(t, err, "one healthy provider is enough")
	assert.Len(t, stations, 1)
}

func TestService_Stations_AllProvidersDown(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka", fetchErr: errors.New("timeout")}
	b := &fakeProvider{name: "gauges_b", region: "srilanka", fetchErr: errors.New("refused")}
	svc := newTestService(t, a, b)

	_, _, err := svc.Stations(context.Background())
	assert.Error(t, err, "empty cache with every provider down")
}

func TestService_Stations_ServesStaleOnFailure(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka", stations: []Station{
		{StationID: "srilanka_rb01_hanwella"},
	}}
	svc := NewService(ServiceConfig{
		Factory:       newTestFactory(t, a),
		CurrentRegion: "srilanka",
		TTL:           time.Nanosecond, // immediately stale
		Logger:        zerolog.Nop(),
	})

	_, _, err := svc.Stations(context.Background())
	require.NoError(t, err)

	// Upstream goes down; the stale snapshot keeps serving.
	a.fetchErr = errors.New("connection reset")
	stations, info, err := svc.Stations(context.Background())
	require.NoError(t, err)
	assert.Len(t, stations, 1)
	assert.Contains(t, info.LastError, "connection reset")
}

func TestService_StationsByBounds(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka", stations: []Station{
		{StationID: "inside", Latitude: 6.9, Longitude: 79.9},
		{StationID: "outside", Latitude: 9.5, Longitude: 80.5},
	}}
	svc := newTestService(t, a)

	stations, err := svc.StationsByBounds(context.Background(),
		geo.BoundingBox{MinLat: 6.5, MaxLat: 7.5, MinLon: 79.5, MaxLon: 80.5})
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "inside", stations[0].StationID)
}

func TestService_StationReading(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka", stations: []Station{
		{StationID: "srilanka_rb01_hanwella", WaterLevelM: 3.2, Status: StatusNormal},
	}}
	svc := newTestService(t, a)

	reading, err := svc.StationReading(context.Background(), "srilanka", "srilanka_rb01_hanwella")
	require.NoError(t, err)
	assert.InDelta(t, 3.2, reading.WaterLevelM, 0.001)

	_, err = svc.StationReading(context.Background(), "srilanka", "nope")
	assert.ErrorIs(t, err, ErrStationNotFound)
}

func TestService_History_SkipsUnsupported(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka"}
	svc := newTestService(t, a)

	readings, err := svc.History(context.Background(), "srilanka", "any", 24)
	require.NoError(t, err)
	assert.Empty(t, readings, "providers without history are skipped, not failed")
}

func TestService_StationsForDistrict(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka", stations: []Station{
		{StationID: "a", Districts: []string{"Colombo", "Gampaha"}},
		{StationID: "b", Districts: []string{"Ratnapura"}},
		{StationID: "c"},
	}}
	svc := newTestService(t, a)

	stations, err := svc.StationsForDistrict(context.Background(), "colombo")
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "a", stations[0].StationID)
}

func TestService_Summary(t *testing.T) {
	a := &fakeProvider{name: "gauges_a", region: "srilanka", stations: []Station{
		{StationID: "a", Status: StatusNormal},
		{StationID: "b", Status: StatusMajorFlood, WaterLevelM: 6.5,
			Thresholds: &Thresholds{AlertM: 4, MinorFloodM: 5, MajorFloodM: 6}},
	}}
	svc := newTestService(t, a)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalStations)
	assert.Equal(t, 1, sum.MajorFlood)
	require.NotNil(t, sum.HighestRiskStation)
	assert.Equal(t, "b", sum.HighestRiskStation.StationID)
}
