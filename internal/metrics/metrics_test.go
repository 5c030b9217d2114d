package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mouldtrack-backend/internal/fault"
)

func TestUtilization(t *testing.T) {
	testCases := []struct {
		name     string
		strokes  int64
		limit    int64
		expected float64
		wantErr  bool
	}{
		{name: "mid-life machine", strokes: 85000, limit: 100000, expected: 0.85},
		{name: "exactly at limit", strokes: 100000, limit: 100000, expected: 1.0},
		{name: "zero strokes", strokes: 0, limit: 150000, expected: 0},
		{name: "zero limit is a configuration error", strokes: 500, limit: 0, wantErr: true},
		{name: "negative limit is a configuration error", strokes: 500, limit: -1, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ratio, err := Utilization(tc.strokes, tc.limit)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, fault.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, ratio, 1e-9)
		})
	}
}

func TestThresholdCrossed(t *testing.T) {
	assert.False(t, ThresholdCrossed(0.9799, MaintenanceWatermark))
	// The boundary must trigger.
	assert.True(t, ThresholdCrossed(0.98, MaintenanceWatermark))
	assert.True(t, ThresholdCrossed(0.99, MaintenanceWatermark))
	assert.True(t, ThresholdCrossed(0.95, WarnWatermark))
	assert.False(t, ThresholdCrossed(0.9499, WarnWatermark))
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC)
	assert.True(t, IsOverdue(now.Add(-time.Minute), now))
	assert.False(t, IsOverdue(now, now), "a task due exactly now is not overdue")
	assert.False(t, IsOverdue(now.Add(time.Hour), now))
}

func TestSameDay(t *testing.T) {
	base := time.Date(2024, 7, 20, 23, 30, 0, 0, time.UTC)
	assert.True(t, SameDay(base, time.Date(2024, 7, 20, 0, 1, 0, 0, time.UTC)))
	assert.False(t, SameDay(base, base.Add(time.Hour)), "crossing midnight changes the day")

	// Comparison happens in the first argument's location.
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	local := time.Date(2024, 7, 21, 6, 0, 0, 0, shanghai)
	assert.True(t, SameDay(local, base), "UTC evening and Shanghai morning share a calendar day in Shanghai")
}

func TestBetweenClampsNegative(t *testing.T) {
	now := time.Now()
	assert.Equal(t, time.Duration(0), Between(now, now.Add(-time.Second)))
	assert.Equal(t, 90*time.Minute, Between(now, now.Add(90*time.Minute)))
}
