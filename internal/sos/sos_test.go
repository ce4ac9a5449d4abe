package sos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWaterLevel(t *testing.T) {
	assert.Equal(t, WaterRoof, ParseWaterLevel("ROOF"))
	assert.Equal(t, WaterAnkle, ParseWaterLevel("ANKLE"))
	assert.Equal(t, WaterUnknown, ParseWaterLevel("roof"), "upstream levels are uppercase")
	assert.Equal(t, WaterUnknown, ParseWaterLevel(""))
}

func TestReport_HasCoordinates(t *testing.T) {
	lat, lon := 6.9271, 79.8612

	assert.True(t, Report{Latitude: &lat, Longitude: &lon}.HasCoordinates())
	assert.False(t, Report{Latitude: &lat}.HasCoordinates())
	assert.False(t, Report{}.HasCoordinates())
}

func TestDedup(t *testing.T) {
	in := []Report{
		{ID: "a", District: "Colombo"},
		{ID: "b"},
		{ID: "a", District: "Gampaha"},
	}

	out := Dedup(in)
	assert.Len(t, out, 2)
	assert.Equal(t, "Colombo", out[0].District, "first occurrence wins")
}
