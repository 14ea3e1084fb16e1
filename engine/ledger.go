package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hieuntrw/hlr-sub001/logger"
)

// LedgerTypeRewardPayout is the ledger entry type for cash owed for a reward.
const LedgerTypeRewardPayout = "reward_payout"

const (
	milestoneAwardTable = "member_milestone_rewards"
	podiumAwardTable    = "member_podium_rewards"
)

// RewardLedgerWriter records earned rewards: a pending payout when cash is owed, then the award.
// The two writes are not atomic. A failed award leaves the payout behind for reconciliation.
type RewardLedgerWriter struct {
	store LedgerStore
	now   func() time.Time
}

func NewRewardLedgerWriter(store LedgerStore) *RewardLedgerWriter {
	return &RewardLedgerWriter{store: store, now: time.Now}
}

// Grant writes the ledger entry (if any) and the award for one matched reward.
func (w *RewardLedgerWriter) Grant(ctx context.Context, result RaceResult, src RewardSource) (RewardAward, error) {
	award := RewardAward{
		Kind:         src.Kind,
		MemberID:     result.UserID,
		RaceID:       result.RaceID,
		RaceResultID: result.ID,
		SourceID:     src.ID,
		PodiumType:   src.PodiumType,
		Rank:         src.Rank,
		Description:  src.Description,
		CashAmount:   src.CashAmount,
		Status:       StatusPending,
	}
	if src.Kind == RewardMilestone {
		award.AchievedSeconds = result.FinishSeconds
	}

	if src.CashAmount.IsPositive() {
		entryID, err := w.store.CreateLedgerEntry(ctx, w.ledgerEntry(result, src))
		if err != nil {
			logger.Error().Err(err).
				Str("result_id", result.ID).
				Str("source_id", src.ID).
				Str("kind", string(src.Kind)).
				Msg("ledger entry failed, recording award without payout")
			award.LedgerPending = true
		} else {
			award.LedgerEntryID = &entryID
		}
	}

	id, err := w.store.CreateRewardAward(ctx, award)
	if err != nil {
		if award.LedgerEntryID != nil {
			return award, &OrphanLedgerError{LedgerEntryID: *award.LedgerEntryID, Err: err}
		}
		return award, fmt.Errorf("create %s award: %w", src.Kind, err)
	}
	award.ID = id
	return award, nil
}

func (w *RewardLedgerWriter) ledgerEntry(result RaceResult, src RewardSource) LedgerEntry {
	var desc, table string
	switch src.Kind {
	case RewardPodium:
		desc = fmt.Sprintf("Podium reward (%s - rank %d): %s", src.PodiumType, src.Rank, src.Description)
		table = podiumAwardTable
	default:
		desc = fmt.Sprintf("Milestone reward: %s", src.Description)
		table = milestoneAwardTable
	}

	return LedgerEntry{
		UserID:      result.UserID,
		Type:        LedgerTypeRewardPayout,
		Amount:      src.CashAmount,
		Description: desc,
		Date:        w.now().UTC(),
		Status:      StatusPending,
		Metadata: map[string]string{
			"source_table":   table,
			"source_id":      src.ID,
			"race_id":        result.RaceID,
			"race_result_id": result.ID,
		},
	}
}
