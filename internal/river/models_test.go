package river

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestClassifyStatus_ThresholdBuckets(t *testing.T) {
	thresholds := &Thresholds{AlertM: 4.0, MinorFloodM: 5.0, MajorFloodM: 6.0}

	tests := []struct {
		name     string
		level    float64
		previous *float64
		want     Status
	}{
		{"well below alert", 2.0, nil, StatusNormal},
		{"just below alert", 3.99, nil, StatusNormal},
		{"exactly at alert", 4.0, nil, StatusAlert},
		{"between alert and minor", 4.5, nil, StatusAlert},
		{"exactly at minor flood", 5.0, nil, StatusMinorFlood},
		{"exactly at major flood", 6.0, nil, StatusMajorFlood},
		{"above major flood", 7.2, nil, StatusMajorFlood},
		{"below alert and rising", 3.0, floatPtr(2.5), StatusRising},
		{"below alert and falling", 3.0, floatPtr(3.5), StatusFalling},
		{"below alert and steady", 3.0, floatPtr(3.0), StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.level, tt.previous, thresholds))
		})
	}
}

func TestClassifyStatus_NoThresholds(t *testing.T) {
	assert.Equal(t, StatusRising, ClassifyStatus(3.0, floatPtr(2.0), nil))
	assert.Equal(t, StatusNormal, ClassifyStatus(3.0, nil, nil))
}

func TestStation_PctToAlert(t *testing.T) {
	station := Station{
		WaterLevelM: 3.0,
		Thresholds:  &Thresholds{AlertM: 4.0, MinorFloodM: 5.0, MajorFloodM: 6.0},
	}

	// 3.0 of 4.0 leaves 25% of headroom to the alert threshold.
	assert.InDelta(t, 25.0, station.PctToAlert(), 0.001)
	assert.InDelta(t, 40.0, station.PctToMinorFlood(), 0.001)
	assert.InDelta(t, 50.0, station.PctToMajorFlood(), 0.001)

	// Past the alert threshold the margin goes negative.
	station.WaterLevelM = 4.2
	assert.InDelta(t, -5.0, station.PctToAlert(), 0.001)

	// No thresholds means maximum headroom.
	station.Thresholds = nil
	assert.InDelta(t, 100.0, station.PctToAlert(), 0.001)
}

func TestSummarize(t *testing.T) {
	thresholds := &Thresholds{AlertM: 4.0, MinorFloodM: 5.0, MajorFloodM: 6.0}
	stations := []Station{
		{StationID: "a", WaterLevelM: 2.0, Thresholds: thresholds, Status: StatusNormal},
		{StationID: "b", WaterLevelM: 4.1, Thresholds: thresholds, Status: StatusAlert},
		{StationID: "c", WaterLevelM: 5.5, Thresholds: thresholds, Status: StatusMinorFlood},
		{StationID: "d", WaterLevelM: 6.3, Thresholds: thresholds, Status: StatusMajorFlood},
		{StationID: "e", WaterLevelM: 3.0, Status: StatusRising},
	}

	sum := Summarize(stations)

	assert.Equal(t, 5, sum.TotalStations)
	assert.Equal(t, 1, sum.Normal)
	assert.Equal(t, 1, sum.Alert)
	assert.Equal(t, 1, sum.MinorFlood)
	assert.Equal(t, 1, sum.MajorFlood)
	assert.Equal(t, 1, sum.Rising)

	require.NotNil(t, sum.HighestRiskStation)
	assert.Equal(t, "d", sum.HighestRiskStation.StationID, "station furthest past its alert threshold")
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil)
	assert.Equal(t, 0, sum.TotalStations)
	assert.Nil(t, sum.HighestRiskStation)
}
