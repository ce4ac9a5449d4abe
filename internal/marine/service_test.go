package marine

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
    {"name": "Colombo", "latitude": 6.9271, "longitude": 79.8612},
    {"name": "Galle", "latitude": 6.0535, "longitude": 80.2210}
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

type fakePointProvider struct {
	waves map[string]float64
	errs  map[string]error
}

func (f *fakePointProvider) Name() string { return "fake" }

func (f *fakePointProvider) FetchPoint(ctx context.Context, d region.District) (*Conditions, error) {
	if err, ok := f.errs[d.Name]; ok {
		return nil, err
	}

	cond := &Conditions{
		District:    d.Name,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		WaveHeightM: f.waves[d.Name],
		FetchedAt:   time.Now().UTC(),
	}
	cond.Risk, cond.RiskFactors = ComputeRisk(cond.WaveHeightM, 0)
	return cond, nil
}

func newTestService(t *testing.T, provider Provider) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		Provider:      provider,
		Regions:       newTestRegions(t),
		CurrentRegion: "srilanka",
		Coastal:       []string{"Colombo", "Galle"},
		TTL:           time.Minute,
		Logger:        zerolog.Nop(),
	})
}

func TestService_All(t *testing.T) {
	provider := &fakePointProvider{waves: map[string]float64{"Colombo": 1.4, "Galle": 3.2}}
	svc := newTestService(t, provider)

	conditions, info, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, conditions, 2)
	assert.True(t, info.IsValid)
}

func TestService_All_SkipsUnknownCoastalDistricts(t *testing.T) {
	provider := &fakePointProvider{waves: map[string]float64{"Colombo": 1.4}}
	svc := NewService(ServiceConfig{
		Provider:      provider,
		Regions:       newTestRegions(t),
		CurrentRegion: "srilanka",
		Coastal:       []string{"Colombo", "Trincomalee"},
		TTL:           time.Minute,
		Logger:        zerolog.Nop(),
	})

	conditions, _, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, conditions, 1)
	assert.Equal(t, "Colombo", conditions[0].District)
}

func TestService_All_PartialFailureStillServes(t *testing.T) {
	provider := &fakePointProvider{
		waves: map[string]float64{"Colombo": 2.1},
		errs:  map[string]error{"Galle": errors.New("timeout")},
	}
	svc := newTestService(t, provider)

	conditions, _, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, conditions, 1)
	assert.Equal(t, RiskModerate, conditions[0].Risk)
}

func TestService_All_TotalFailure(t *testing.T) {
	provider := &fakePointProvider{errs: map[string]error{
		"Colombo": errors.New("down"),
		"Galle":   errors.New("down"),
	}}
	svc := newTestService(t, provider)

	_, _, err := svc.All(context.Background())
	assert.Error(t, err)
}

func TestService_District(t *testing.T) {
	provider := &fakePointProvider{waves: map[string]float64{"Colombo": 1.4, "Galle": 4.2}}
	svc := newTestService(t, provider)

	cond, err := svc.District(context.Background(), "galle")
	require.NoError(t, err)
	assert.Equal(t, "Galle", cond.District)
	assert.Equal(t, RiskSevere, cond.Risk)

	_, err = svc.District(context.Background(), "Kandy")
	assert.Error(t, err)
}

func TestService_Summary(t *testing.T) {
	provider := &fakePointProvider{waves: map[string]float64{"Colombo": 1.4, "Galle": 3.2}}
	svc := newTestService(t, provider)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Districts)
	assert.Equal(t, "Galle", sum.WorstDistrict)
	assert.Equal(t, 1, sum.AtRisk)
}
