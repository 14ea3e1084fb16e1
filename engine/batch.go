package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchKind identifies which runner produced a summary.
type BatchKind string

const (
	BatchChallengeRecompute BatchKind = "challenge_recompute"
	BatchRaceRewards        BatchKind = "race_rewards"
)

// Stage records how far an item got through the pipeline.
type Stage string

const (
	StagePending       Stage = "pending"
	StageAggregated    Stage = "aggregated"
	StageStarEvaluated Stage = "star_evaluated"
	StageRewardMatched Stage = "reward_matched"
	StageWritten       Stage = "written"
	StageFailed        Stage = "failed"
)

// ItemResult is the outcome of one participant or race result.
type ItemResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Stage   Stage  `json:"stage"`
	Error   string `json:"error,omitempty"`

	// FailedAt is the last stage reached before the item failed.
	FailedAt Stage `json:"failed_at,omitempty"`

	// challenge items
	TotalKm        *float64 `json:"total_km,omitempty"`
	CompletionRate *float64 `json:"completion_rate,omitempty"`
	Completed      *bool    `json:"completed,omitempty"`
	StarsAwarded   int      `json:"stars_awarded,omitempty"`

	// race items
	Awards  []AwardOutcome `json:"awards,omitempty"`
	Skipped []RewardKind   `json:"skipped,omitempty"`
}

// AwardOutcome is one award written for a race result.
type AwardOutcome struct {
	Kind          RewardKind      `json:"kind"`
	AwardID       string          `json:"award_id,omitempty"`
	SourceID      string          `json:"source_id"`
	CashAmount    decimal.Decimal `json:"cash_amount"`
	LedgerEntryID *string         `json:"ledger_entry_id,omitempty"`
	LedgerPending bool            `json:"ledger_pending,omitempty"`
}

// BatchSummary is the per-item report of one batch invocation.
type BatchSummary struct {
	BatchID     string       `json:"batch_id"`
	Kind        BatchKind    `json:"kind"`
	TargetID    string       `json:"target_id"`
	TargetTitle string       `json:"target_title,omitempty"`
	Skipped     bool         `json:"skipped"`
	Reason      string       `json:"reason,omitempty"`
	Incomplete  bool         `json:"incomplete"`
	Items       []ItemResult `json:"items"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}

func newSummary(kind BatchKind, targetID string, now time.Time) *BatchSummary {
	return &BatchSummary{
		BatchID:   uuid.NewString(),
		Kind:      kind,
		TargetID:  targetID,
		Items:     []ItemResult{},
		StartedAt: now,
	}
}

// Succeeded counts items that completed without error.
func (s *BatchSummary) Succeeded() int {
	n := 0
	for _, it := range s.Items {
		if it.Success {
			n++
		}
	}
	return n
}

// Failed counts items that ended in error.
func (s *BatchSummary) Failed() int {
	return len(s.Items) - s.Succeeded()
}

func failItem(it *ItemResult, err error) {
	it.Success = false
	it.FailedAt = it.Stage
	it.Stage = StageFailed
	it.Error = err.Error()
}
