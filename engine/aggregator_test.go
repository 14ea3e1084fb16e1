package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		targetKm   float64
		activities []ActivityRecord
		wantKm     float64
		wantPace   *int
		wantRate   float64
		wantDone   bool
	}{
		{
			name:     "no activities",
			targetKm: 100,
			wantKm:   0,
			wantPace: nil,
		},
		{
			name:     "partial progress",
			targetKm: 100,
			activities: []ActivityRecord{
				{DistanceMeters: 10000, MovingTimeSeconds: 3000},
				{DistanceMeters: 5500, MovingTimeSeconds: 1650},
			},
			wantKm:   15.5,
			wantPace: intPtr(300),
			wantRate: 15.5,
		},
		{
			name:     "exactly on target",
			targetKm: 21.1,
			activities: []ActivityRecord{
				{DistanceMeters: 21100, MovingTimeSeconds: 6330},
			},
			wantKm:   21.1,
			wantPace: intPtr(300),
			wantRate: 100,
			wantDone: true,
		},
		{
			name:     "rounds distance to two decimals",
			targetKm: 10,
			activities: []ActivityRecord{
				{DistanceMeters: 1234.5, MovingTimeSeconds: 400},
			},
			wantKm:   1.23,
			wantPace: intPtr(325),
			wantRate: 12.3,
		},
		{
			name:     "malformed values count as zero",
			targetKm: 10,
			activities: []ActivityRecord{
				{DistanceMeters: math.NaN(), MovingTimeSeconds: 100},
				{DistanceMeters: -500, MovingTimeSeconds: math.Inf(1)},
				{DistanceMeters: 5000, MovingTimeSeconds: 1500},
			},
			wantKm:   5,
			wantPace: intPtr(320),
			wantRate: 50,
		},
		{
			name:     "zero target never completes",
			targetKm: 0,
			activities: []ActivityRecord{
				{DistanceMeters: 5000, MovingTimeSeconds: 1500},
			},
			wantKm:   5,
			wantPace: intPtr(300),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Aggregate(Participant{ID: "p1", TargetKm: tt.targetKm}, tt.activities)

			assert.InDelta(t, tt.wantKm, res.TotalKm, 1e-9)
			assert.Equal(t, len(tt.activities), res.ActivityCount)
			assert.InDelta(t, tt.wantRate, res.CompletionRate, 1e-9)
			assert.Equal(t, tt.wantDone, res.Completed)
			if tt.wantPace == nil {
				assert.Nil(t, res.AvgPaceSeconds)
			} else {
				require.NotNil(t, res.AvgPaceSeconds)
				assert.Equal(t, *tt.wantPace, *res.AvgPaceSeconds)
			}
		})
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	p := Participant{ID: "p1", TargetKm: 42.195}
	acts := []ActivityRecord{
		{DistanceMeters: 12000, MovingTimeSeconds: 3900},
		{DistanceMeters: 8050, MovingTimeSeconds: 2700},
	}

	first := Aggregate(p, acts)
	second := Aggregate(p, acts)
	assert.Equal(t, first, second)
}

func TestAggregateCompletionRateMatchesCompleted(t *testing.T) {
	for _, meters := range []float64{0, 49990, 50000, 50010, 120000} {
		res := Aggregate(Participant{TargetKm: 50}, []ActivityRecord{{DistanceMeters: meters, MovingTimeSeconds: 60}})
		assert.Equal(t, res.TotalKm >= 50, res.Completed, "meters=%v", meters)
		assert.Equal(t, res.Completed, res.CompletionRate >= 100, "meters=%v", meters)
	}
}
