package facilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Colombo city facilities with known distances from Colombo Fort
// (6.9344, 79.8428).
var testFacilities = []Facility{
	{ID: 1, Kind: KindHospital, Name: "National Hospital", Latitude: 6.9194, Longitude: 79.8674},
	{ID: 2, Kind: KindHospital, Name: "Lady Ridgeway", Latitude: 6.9167, Longitude: 79.8703},
	{ID: 3, Kind: KindHospital, Name: "Kandy General", Latitude: 7.2906, Longitude: 80.6337},
	{ID: 4, Kind: KindPolice, Name: "Fort Police", Latitude: 6.9355, Longitude: 79.8445},
	{ID: 5, Kind: KindShelter, Name: "Sugathadasa Stadium", Latitude: 6.9531, Longitude: 79.8708},
}

func TestSummarize(t *testing.T) {
	sum := Summarize(testFacilities)
	assert.Equal(t, 3, sum.Hospitals)
	assert.Equal(t, 1, sum.Police)
	assert.Equal(t, 0, sum.FireStations)
	assert.Equal(t, 1, sum.Shelters)
	assert.Equal(t, 5, sum.Total)
}

func TestFindNearby(t *testing.T) {
	nearby := FindNearby(testFacilities, 6.9344, 79.8428, 10, 3)

	hospitals := nearby[KindHospital]
	require.Len(t, hospitals, 2, "Kandy is outside the 10km radius")
	assert.Equal(t, "National Hospital", hospitals[0].Name, "nearest first")
	assert.Less(t, hospitals[0].DistanceKm, hospitals[1].DistanceKm)

	require.Len(t, nearby[KindPolice], 1)
	assert.Less(t, nearby[KindPolice][0].DistanceKm, 0.5)

	assert.Empty(t, nearby[KindFire], "kinds with no hits are present and empty")
}

func TestFindNearby_LimitPerType(t *testing.T) {
	nearby := FindNearby(testFacilities, 6.9344, 79.8428, 500, 1)
	assert.Len(t, nearby[KindHospital], 1)
	assert.Equal(t, "National Hospital", nearby[KindHospital][0].Name)
}

func TestNearestHospital(t *testing.T) {
	hospital, ok := NearestHospital(testFacilities, 7.2900, 80.6300)
	require.True(t, ok)
	assert.Equal(t, "Kandy General", hospital.Name)

	_, ok = NearestHospital([]Facility{{Kind: KindPolice}}, 6.9, 79.8)
	assert.False(t, ok)
}
