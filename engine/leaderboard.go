package engine

import (
	"cmp"
	"slices"
)

// LeaderboardRow is one ranked participant of a challenge.
type LeaderboardRow struct {
	Rank           int     `json:"rank"`
	ParticipantID  string  `json:"participant_id"`
	UserID         string  `json:"user_id"`
	Name           string  `json:"name,omitempty"`
	TotalKm        float64 `json:"total_km"`
	TargetKm       float64 `json:"target_km"`
	AvgPaceSeconds *int    `json:"avg_pace_seconds"`
	ActivityCount  int     `json:"activity_count"`
	CompletionRate float64 `json:"completion_rate"`
	Completed      bool    `json:"completed"`
}

// RankParticipants orders participants by distance and assigns competition ranks:
// equal distances share a rank and the next distance takes its position (1, 2, 2, 4).
func RankParticipants(participants []Participant) []LeaderboardRow {
	sorted := slices.Clone(participants)
	slices.SortFunc(sorted, func(a, b Participant) int {
		if c := cmp.Compare(b.TotalKm, a.TotalKm); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	rows := make([]LeaderboardRow, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && p.TotalKm == sorted[i-1].TotalKm {
			rank = rows[i-1].Rank
		}
		rows[i] = LeaderboardRow{
			Rank:           rank,
			ParticipantID:  p.ID,
			UserID:         p.UserID,
			TotalKm:        p.TotalKm,
			TargetKm:       p.TargetKm,
			AvgPaceSeconds: p.AvgPaceSeconds,
			ActivityCount:  p.ActivityCount,
			CompletionRate: p.CompletionRate,
			Completed:      p.Completed,
		}
	}
	return rows
}
