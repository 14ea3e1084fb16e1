package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hieuntrw/hlr-sub001/logger"
)

// RaceRunner evaluates milestone and podium rewards for every result of a race.
type RaceRunner struct {
	races  RaceStore
	podium *PodiumResolver
	writer *RewardLedgerWriter
	now    func() time.Time
}

func NewRaceRunner(races RaceStore, ledger LedgerStore) *RaceRunner {
	return &RaceRunner{
		races:  races,
		podium: NewPodiumResolver(races),
		writer: NewRewardLedgerWriter(ledger),
		now:    time.Now,
	}
}

// Process runs the reward batch for a race. Results that already hold an award of a kind
// are skipped for that kind, so re-running a race is safe.
func (r *RaceRunner) Process(ctx context.Context, raceID string) (*BatchSummary, error) {
	summary := newSummary(BatchRaceRewards, raceID, r.now().UTC())
	log := logger.With("batch_id", summary.BatchID, "race_id", raceID)

	race, err := r.races.GetRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("get race %s: %w", raceID, err)
	}
	summary.TargetTitle = race.Name

	results, err := r.races.FetchRaceResults(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("fetch race results: %w", err)
	}

	defs := make(map[RaceCategory][]MilestoneDefinition)
	for _, res := range results {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("processed", len(summary.Items)).Msg("race processing interrupted")
			summary.Incomplete = true
			break
		}
		summary.Items = append(summary.Items, r.processResult(ctx, res, defs))
	}

	summary.FinishedAt = r.now().UTC()
	log.Info().
		Int("items", len(summary.Items)).
		Int("failed", summary.Failed()).
		Bool("incomplete", summary.Incomplete).
		Msg("race rewards processed")
	return summary, nil
}

func (r *RaceRunner) processResult(ctx context.Context, res RaceResult, defs map[RaceCategory][]MilestoneDefinition) ItemResult {
	item := ItemResult{ID: res.ID, Stage: StagePending}

	if err := r.milestone(ctx, res, defs, &item); err != nil {
		failItem(&item, err)
		return item
	}
	if err := r.podiumReward(ctx, res, &item); err != nil {
		failItem(&item, err)
		return item
	}

	item.Stage = StageWritten
	item.Success = true
	return item
}

func (r *RaceRunner) milestone(ctx context.Context, res RaceResult, defs map[RaceCategory][]MilestoneDefinition, item *ItemResult) error {
	category := CategoryFromDistance(res.Distance)
	if category == CategoryUnknown || res.FinishSeconds <= 0 {
		return nil
	}

	has, err := r.races.HasRewardAward(ctx, res.ID, RewardMilestone)
	if err != nil {
		return fmt.Errorf("check milestone award: %w", err)
	}
	if has {
		item.Skipped = append(item.Skipped, RewardMilestone)
		return nil
	}

	candidates, ok := defs[category]
	if !ok {
		candidates, err = r.races.FetchActiveMilestoneDefinitions(ctx, category)
		if err != nil {
			return fmt.Errorf("fetch milestone definitions for %s: %w", category, err)
		}
		defs[category] = candidates
	}

	def, ok := MatchMilestone(res.FinishSeconds, category, res.Gender, candidates)
	item.Stage = StageRewardMatched
	if !ok {
		return nil
	}

	award, err := r.writer.Grant(ctx, res, MilestoneSource(*def))
	if err != nil {
		return err
	}
	item.Awards = append(item.Awards, outcomeOf(award))
	return nil
}

func (r *RaceRunner) podiumReward(ctx context.Context, res RaceResult, item *ItemResult) error {
	if res.PodiumConfigID == nil || *res.PodiumConfigID == "" {
		return nil
	}

	has, err := r.races.HasRewardAward(ctx, res.ID, RewardPodium)
	if err != nil {
		return fmt.Errorf("check podium award: %w", err)
	}
	if has {
		item.Skipped = append(item.Skipped, RewardPodium)
		return nil
	}

	cfg, err := r.podium.Resolve(ctx, res)
	if err != nil {
		return err
	}
	item.Stage = StageRewardMatched
	if cfg == nil {
		return nil
	}

	award, err := r.writer.Grant(ctx, res, PodiumSource(*cfg))
	if err != nil {
		return err
	}
	item.Awards = append(item.Awards, outcomeOf(award))
	return nil
}

func outcomeOf(a RewardAward) AwardOutcome {
	return AwardOutcome{
		Kind:          a.Kind,
		AwardID:       a.ID,
		SourceID:      a.SourceID,
		CashAmount:    a.CashAmount,
		LedgerEntryID: a.LedgerEntryID,
		LedgerPending: a.LedgerPending,
	}
}
