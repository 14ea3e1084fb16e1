package engine

import "math"

// AggregateResult is the recomputed progress of one participant.
type AggregateResult struct {
	TotalKm        float64 `json:"total_km"`
	AvgPaceSeconds *int    `json:"avg_pace_seconds"`
	ActivityCount  int     `json:"activity_count"`
	CompletionRate float64 `json:"completion_rate"`
	Completed      bool    `json:"completed"`
}

// Aggregate recomputes a participant's cumulative distance, pace, activity count and
// completion from its full activity set. It is pure: the caller persists the result.
func Aggregate(p Participant, activities []ActivityRecord) AggregateResult {
	var meters, seconds float64
	for _, a := range activities {
		meters += sanitize(a.DistanceMeters)
		seconds += sanitize(a.MovingTimeSeconds)
	}

	res := AggregateResult{
		TotalKm:       round2(meters / 1000),
		ActivityCount: len(activities),
	}

	// nil, not zero: there is no pace without distance
	if res.TotalKm > 0 {
		pace := int(math.Round(seconds / res.TotalKm))
		res.AvgPaceSeconds = &pace
	}

	target := sanitize(p.TargetKm)
	if target > 0 {
		res.CompletionRate = math.Round(res.TotalKm/target*10000) / 100
		res.Completed = res.TotalKm >= target
	}
	return res
}

// Update converts the result into the fields persisted onto the participant.
func (r AggregateResult) Update() ParticipantUpdate {
	return ParticipantUpdate{
		TotalKm:        r.TotalKm,
		AvgPaceSeconds: r.AvgPaceSeconds,
		ActivityCount:  r.ActivityCount,
		CompletionRate: r.CompletionRate,
		Completed:      r.Completed,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sanitize coerces malformed measurements to zero.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
