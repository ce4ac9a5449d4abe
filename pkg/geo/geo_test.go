package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox_Contains(t *testing.T) {
	box := BoundingBox{MinLat: 5.9, MaxLat: 9.9, MinLon: 79.5, MaxLon: 82.0}

	assert.True(t, box.Contains(6.9, 79.86), "Colombo should be inside")
	assert.False(t, box.Contains(13.0, 80.2), "Chennai should be outside")

	// Edge points count as inside
	assert.True(t, box.Contains(5.9, 80.0))
	assert.True(t, box.Contains(9.9, 82.0))
}

func TestBoundingBox_Intersects(t *testing.T) {
	sriLanka := BoundingBox{MinLat: 5.9, MaxLat: 9.9, MinLon: 79.5, MaxLon: 82.0}

	tests := []struct {
		name string
		box  BoundingBox
		want bool
	}{
		{
			name: "fully inside",
			box:  BoundingBox{MinLat: 6.5, MaxLat: 7.5, MinLon: 79.8, MaxLon: 80.5},
			want: true,
		},
		{
			name: "partial overlap",
			box:  BoundingBox{MinLat: 9.0, MaxLat: 11.0, MinLon: 81.0, MaxLon: 83.0},
			want: true,
		},
		{
			name: "touching edge",
			box:  BoundingBox{MinLat: 9.9, MaxLat: 12.0, MinLon: 79.5, MaxLon: 82.0},
			want: true,
		},
		{
			name: "disjoint north",
			box:  BoundingBox{MinLat: 10.0, MaxLat: 12.0, MinLon: 79.5, MaxLon: 82.0},
			want: false,
		},
		{
			name: "disjoint east",
			box:  BoundingBox{MinLat: 5.9, MaxLat: 9.9, MinLon: 82.5, MaxLon: 85.0},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sriLanka.Intersects(tt.box))
			assert.Equal(t, tt.want, tt.box.Intersects(sriLanka), "intersection should be symmetric")
		})
	}
}

func TestHaversineKm(t *testing.T) {
	// Colombo Fort to Kandy, roughly 94 km great-circle
	d := HaversineKm(6.9344, 79.8428, 7.2906, 80.6337)
	assert.InDelta(t, 94, d, 5)

	// Same point
	assert.Zero(t, HaversineKm(6.9, 79.86, 6.9, 79.86))

	// Short distance: nearby points in the same neighbourhood
	short := HaversineKm(6.90, 79.86, 6.905, 79.862)
	assert.Less(t, short, 1.0)
	assert.Greater(t, short, 0.1)
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(6.9, 79.86))
	assert.False(t, ValidateCoordinates(91, 0))
	assert.False(t, ValidateCoordinates(0, -181))
}
