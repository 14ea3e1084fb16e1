package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hieuntrw/hlr-sub001/logger"
)

// ChallengeRunner recomputes participant progress for one challenge and grants completion stars.
type ChallengeRunner struct {
	store    ChallengeStore
	settings SettingsStore
	locker   Locker
	now      func() time.Time
}

// NewChallengeRunner wires the runner. A nil locker falls back to an in-process KeyedMutex.
func NewChallengeRunner(store ChallengeStore, settings SettingsStore, locker Locker) *ChallengeRunner {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &ChallengeRunner{
		store:    store,
		settings: settings,
		locker:   locker,
		now:      time.Now,
	}
}

// Recompute refreshes every participant of the challenge, or only participantID when set.
// Item failures are reported in the summary; only precondition failures are returned.
func (r *ChallengeRunner) Recompute(ctx context.Context, challengeID, participantID string) (*BatchSummary, error) {
	summary := newSummary(BatchChallengeRecompute, challengeID, r.now().UTC())
	log := logger.With("batch_id", summary.BatchID, "challenge_id", challengeID)

	challenge, err := r.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("get challenge %s: %w", challengeID, err)
	}
	summary.TargetTitle = challenge.Title

	if challenge.IsLocked {
		log.Info().Msg("challenge is locked, skipping recompute")
		summary.Skipped = true
		summary.Reason = "challenge locked"
		summary.FinishedAt = r.now().UTC()
		return summary, nil
	}

	rule, err := r.loadRule(ctx)
	if err != nil {
		return nil, err
	}

	participants, err := r.store.FetchParticipants(ctx, challengeID, participantID)
	if err != nil {
		return nil, fmt.Errorf("fetch participants: %w", err)
	}
	if participantID != "" && len(participants) == 0 {
		return nil, fmt.Errorf("participant %s: %w", participantID, ErrNotFound)
	}

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}

	activities, err := r.store.FetchActivities(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch activities")
		for _, p := range participants {
			item := ItemResult{ID: p.ID}
			failItem(&item, fmt.Errorf("fetch activities: %w", err))
			summary.Items = append(summary.Items, item)
		}
		summary.FinishedAt = r.now().UTC()
		return summary, nil
	}

	for _, p := range participants {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("processed", len(summary.Items)).Msg("recompute interrupted")
			summary.Incomplete = true
			break
		}
		summary.Items = append(summary.Items, r.processParticipant(ctx, p, activities[p.ID], rule))
	}

	summary.FinishedAt = r.now().UTC()
	log.Info().
		Int("items", len(summary.Items)).
		Int("failed", summary.Failed()).
		Bool("incomplete", summary.Incomplete).
		Msg("challenge recompute finished")
	return summary, nil
}

func (r *ChallengeRunner) loadRule(ctx context.Context) (StarAwardRule, error) {
	raw, err := r.settings.FetchStarTierTable(ctx)
	if err != nil {
		return StarAwardRule{}, fmt.Errorf("fetch star tiers: %w", err)
	}
	table, err := ParseStarTiers(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid star tier setting, using default rule")
	}
	return NewStarAwardRule(table), nil
}

func (r *ChallengeRunner) processParticipant(ctx context.Context, p Participant, acts []ActivityRecord, rule StarAwardRule) ItemResult {
	item := ItemResult{ID: p.ID, Stage: StagePending}

	res := Aggregate(p, acts)
	item.Stage = StageAggregated
	item.TotalKm = &res.TotalKm
	item.CompletionRate = &res.CompletionRate
	item.Completed = &res.Completed

	stars := rule.Evaluate(p.Completed, res.Completed, p.TargetKm)
	item.Stage = StageStarEvaluated

	if stars > 0 {
		granted, err := r.grantStars(ctx, p, stars, rule.Table.Version)
		if err != nil {
			failItem(&item, err)
			return item
		}
		item.StarsAwarded = granted
	}

	update := res.Update()
	update.LastSyncedAt = r.now().UTC()
	if err := r.store.UpdateParticipant(ctx, p.ID, update); err != nil {
		failItem(&item, fmt.Errorf("update participant: %w", err))
		return item
	}

	item.Stage = StageWritten
	item.Success = true
	return item
}

// grantStars increments the member's stars once per participant. A grant that was already
// recorded by an earlier run is reported as zero stars, not an error.
func (r *ChallengeRunner) grantStars(ctx context.Context, p Participant, stars int, version string) (int, error) {
	unlock, err := r.locker.Lock(ctx, "stars:"+p.ID)
	if err != nil {
		return 0, fmt.Errorf("lock star grant: %w", err)
	}
	defer unlock()

	total, err := r.store.IncrementMemberStars(ctx, StarGrant{
		ParticipantID: p.ID,
		UserID:        p.UserID,
		ChallengeID:   p.ChallengeID,
		Stars:         stars,
		TierVersion:   version,
	})
	if errors.Is(err, ErrStarsAlreadyGranted) {
		logger.Debug().Str("participant_id", p.ID).Msg("stars already granted")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("grant stars: %w", err)
	}

	logger.Info().
		Str("participant_id", p.ID).
		Str("user_id", p.UserID).
		Int("stars", stars).
		Int("total_stars", total).
		Msg("completion stars granted")
	return stars, nil
}
