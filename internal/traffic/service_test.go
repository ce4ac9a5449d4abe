package traffic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIncidentProvider struct {
	incidents []Incident
	err       error
	calls     int
}

func (f *fakeIncidentProvider) Name() string { return "fake_incidents" }

func (f *fakeIncidentProvider) FetchIncidents(ctx context.Context) ([]Incident, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.incidents, nil
}

type fakeFlowProvider struct {
	name   string
	speeds map[string]float64
	err    error
}

func (f *fakeFlowProvider) Name() string { return f.name }

func (f *fakeFlowProvider) FetchFlowSegment(ctx context.Context, point RoadPoint) (*FlowSegment, error) {
	if f.err != nil {
		return nil, f.err
	}

	seg := &FlowSegment{
		Location:         point.Location,
		RoadName:         point.RoadName,
		CurrentSpeedKmh:  f.speeds[point.Location],
		FreeFlowSpeedKmh: 100,
		Source:           f.name,
		FetchedAt:        time.Now().UTC(),
	}
	seg.Congestion = CongestionFor(seg.CurrentSpeedKmh, seg.FreeFlowSpeedKmh)
	return seg, nil
}

var testRoads = []RoadPoint{
	{Location: "Peliyagoda", RoadName: "A1"},
	{Location: "Dehiwala", RoadName: "A2"},
}

func newTestService(incidents IncidentProvider, flow ...FlowProvider) *Service {
	return NewService(ServiceConfig{
		Incidents:   incidents,
		Flow:        flow,
		Roads:       testRoads,
		IncidentTTL: time.Minute,
		FlowTTL:     time.Minute,
		Logger:      zerolog.Nop(),
	})
}

func TestService_Incidents(t *testing.T) {
	provider := &fakeIncidentProvider{incidents: []Incident{
		{ID: "a", IconCategory: IconFlooding, Severity: SeverityCritical},
		{ID: "b", IconCategory: IconJam, Severity: SeverityMinor},
	}}
	svc := newTestService(provider, &fakeFlowProvider{name: "x"})

	incidents, info, err := svc.Incidents(context.Background())
	require.NoError(t, err)
	assert.Len(t, incidents, 2)
	assert.True(t, info.IsValid)

	// Second read inside the TTL does not hit the provider again.
	_, _, err = svc.Incidents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
}

func TestService_IncidentFilters(t *testing.T) {
	provider := &fakeIncidentProvider{incidents: []Incident{
		{ID: "a", IconCategory: IconFlooding, Severity: SeverityCritical},
		{ID: "b", IconCategory: IconJam, Severity: SeverityMinor},
	}}
	svc := newTestService(provider, &fakeFlowProvider{name: "x"})

	flooded, err := svc.IncidentsByCategory(context.Background(), "flooding")
	require.NoError(t, err)
	require.Len(t, flooded, 1)
	assert.Equal(t, "a", flooded[0].ID)

	critical, err := svc.IncidentsBySeverity(context.Background(), SeverityCritical)
	require.NoError(t, err)
	require.Len(t, critical, 1)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Flooding)
	assert.Equal(t, 1, sum.Jams)
}

func TestService_Incidents_FailureServesStale(t *testing.T) {
	provider := &fakeIncidentProvider{incidents: []Incident{{ID: "a"}}}
	svc := NewService(ServiceConfig{
		Incidents:   provider,
		Flow:        []FlowProvider{&fakeFlowProvider{name: "x"}},
		Roads:       testRoads,
		IncidentTTL: time.Nanosecond,
		Logger:      zerolog.Nop(),
	})

	_, _, err := svc.Incidents(context.Background())
	require.NoError(t, err)

	provider.err = errors.New("connection reset")
	time.Sleep(time.Millisecond)

	incidents, info, err := svc.Incidents(context.Background())
	require.NoError(t, err)
	assert.Len(t, incidents, 1)
	assert.Contains(t, info.LastError, "connection reset")
}

func TestService_Flow_CombinesProviders(t *testing.T) {
	svc := newTestService(&fakeIncidentProvider{},
		&fakeFlowProvider{name: "here", speeds: map[string]float64{"Peliyagoda": 95, "Dehiwala": 60}},
		&fakeFlowProvider{name: "tomtom", speeds: map[string]float64{"Peliyagoda": 20, "Dehiwala": 80}},
	)

	segments, info, err := svc.Flow(context.Background())
	require.NoError(t, err)
	require.Len(t, segments, 4)
	assert.True(t, info.IsValid)

	// Sorted by source then location.
	assert.Equal(t, "here", segments[0].Source)
	assert.Equal(t, "Dehiwala", segments[0].Location)
	assert.Equal(t, "tomtom", segments[2].Source)

	sum, err := svc.FlowSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Segments)
	assert.Equal(t, 1, sum.Free)
	assert.Equal(t, 1, sum.Severe)
}

func TestService_Flow_OneProviderDownStillServes(t *testing.T) {
	svc := newTestService(&fakeIncidentProvider{},
		&fakeFlowProvider{name: "here", err: errors.New("quota exceeded")},
		&fakeFlowProvider{name: "tomtom", speeds: map[string]float64{"Peliyagoda": 50, "Dehiwala": 50}},
	)

	segments, _, err := svc.Flow(context.Background())
	require.NoError(t, err)
	assert.Len(t, segments, 2)
}

func TestService_Flow_AllProvidersDown(t *testing.T) {
	svc := newTestService(&fakeIncidentProvider{},
		&fakeFlowProvider{name: "here", err: errors.New("down")},
		&fakeFlowProvider{name: "tomtom", err: errors.New("down")},
	)

	_, _, err := svc.Flow(context.Background())
	assert.Error(t, err)
}
