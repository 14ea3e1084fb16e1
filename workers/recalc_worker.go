package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/hieuntrw/hlr-sub001/engine"
	"github.com/hieuntrw/hlr-sub001/logger"
)

// ChallengeLister lists the challenges still open for recomputes.
type ChallengeLister interface {
	ListUnlockedChallengeIDs(ctx context.Context) ([]string, error)
}

// ChallengeRecalculator recomputes one challenge.
type ChallengeRecalculator interface {
	Recalc(ctx context.Context, challengeID, participantID string) (*engine.BatchSummary, error)
}

// ChallengeRecalcWorker periodically refreshes progress of every unlocked challenge so
// leaderboards and completion stars stay current without an admin trigger.
type ChallengeRecalcWorker struct {
	lister  ChallengeLister
	recalc  ChallengeRecalculator
	timeout time.Duration
}

func NewChallengeRecalcWorker(lister ChallengeLister, recalc ChallengeRecalculator, timeout time.Duration) *ChallengeRecalcWorker {
	return &ChallengeRecalcWorker{lister: lister, recalc: recalc, timeout: timeout}
}

// RunResult summarizes one pass over the unlocked challenges.
type RunResult struct {
	Challenges  int
	Failed      int
	ItemsFailed int
}

// RunOnce recomputes every unlocked challenge. One challenge failing does not stop the others.
func (w *ChallengeRecalcWorker) RunOnce(ctx context.Context) (RunResult, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	ids, err := w.lister.ListUnlockedChallengeIDs(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("list unlocked challenges: %w", err)
	}

	var res RunResult
	for _, id := range ids {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Int("remaining", len(ids)-res.Challenges).Msg("[Recalc] run cut short")
			break
		}
		res.Challenges++

		summary, err := w.recalc.Recalc(ctx, id, "")
		if err != nil {
			res.Failed++
			logger.Error().Err(err).Str("challenge_id", id).Msg("[Recalc] challenge failed")
			continue
		}
		res.ItemsFailed += summary.Failed()
	}
	return res, nil
}

// Start schedules RunOnce every interval until ctx is done. The returned scheduler is
// already running; callers shut it down on exit.
func (w *ChallengeRecalcWorker) Start(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			start := time.Now()
			res, err := w.RunOnce(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("[Recalc] run failed")
				return
			}
			logger.Info().
				Int("challenges", res.Challenges).
				Int("failed", res.Failed).
				Int("items_failed", res.ItemsFailed).
				Dur("took", time.Since(start)).
				Msg("[Recalc] run finished")
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule recalc job: %w", err)
	}

	sched.Start()
	return sched, nil
}
