package services

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hieuntrw/hlr-sub001/engine"
	"github.com/hieuntrw/hlr-sub001/models"
)

// RaceRepository is the persistence the race reward endpoints need.
type RaceRepository interface {
	engine.RaceStore
	engine.LedgerStore
	RaceRewards(ctx context.Context, raceID string) ([]models.MemberMilestoneReward, []models.MemberPodiumReward, error)
}

type RaceRewardService struct {
	repo     RaceRepository
	runner   *engine.RaceRunner
	locker   engine.Locker
	recorder BatchRecorder
	group    singleflight.Group
}

func NewRaceRewardService(repo RaceRepository, locker engine.Locker, recorder BatchRecorder) *RaceRewardService {
	if locker == nil {
		locker = engine.NewKeyedMutex()
	}
	return &RaceRewardService{
		repo:     repo,
		runner:   engine.NewRaceRunner(repo, repo),
		locker:   locker,
		recorder: recorder,
	}
}

// ProcessResults runs the reward batch for a race. Runs for the same race are serialized
// across instances so the idempotency pre-check cannot race with itself.
func (s *RaceRewardService) ProcessResults(ctx context.Context, raceID string) (*engine.BatchSummary, error) {
	v, err, _ := s.group.Do(raceID, func() (interface{}, error) {
		unlock, err := s.locker.Lock(ctx, "race:"+raceID)
		if err != nil {
			return nil, fmt.Errorf("lock race %s: %w", raceID, err)
		}
		defer unlock()

		summary, err := s.runner.Process(ctx, raceID)
		if err != nil {
			return nil, err
		}
		if s.recorder != nil {
			s.recorder.Record(ctx, summary)
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*engine.BatchSummary), nil
}

// --- Handlers ---

// ProcessRaceResults: POST /admin/races/:id/process-results
func (s *RaceRewardService) ProcessRaceResults(c *fiber.Ctx) error {
	summary, err := s.ProcessResults(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "summary": summary})
}

// GetRaceRewards: GET /admin/races/:id/rewards
func (s *RaceRewardService) GetRaceRewards(c *fiber.Ctx) error {
	raceID := c.Params("id")
	if _, err := s.repo.GetRace(c.UserContext(), raceID); err != nil {
		return respondError(c, err)
	}

	milestones, podiums, err := s.repo.RaceRewards(c.UserContext(), raceID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"milestone_rewards": milestones,
		"podium_rewards":    podiums,
	})
}
