package services

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hieuntrw/hlr-sub001/engine"
	"github.com/hieuntrw/hlr-sub001/logger"
)

// ChallengeRepository is the persistence the challenge endpoints need.
type ChallengeRepository interface {
	engine.ChallengeStore
	engine.SettingsStore
	ListChallengeIDs(ctx context.Context) ([]string, error)
	CountParticipants(ctx context.Context, challengeID string) (int, error)
	ParticipantNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

// BatchRecorder persists batch summaries. Recording failures never fail the batch.
type BatchRecorder interface {
	Record(ctx context.Context, summary *engine.BatchSummary)
}

type ChallengeService struct {
	repo     ChallengeRepository
	runner   *engine.ChallengeRunner
	recorder BatchRecorder
	group    singleflight.Group
}

func NewChallengeService(repo ChallengeRepository, locker engine.Locker, recorder BatchRecorder) *ChallengeService {
	return &ChallengeService{
		repo:     repo,
		runner:   engine.NewChallengeRunner(repo, repo, locker),
		recorder: recorder,
	}
}

// Recalc recomputes a challenge (or one participant). Identical concurrent requests share
// a single run and its summary.
func (s *ChallengeService) Recalc(ctx context.Context, challengeID, participantID string) (*engine.BatchSummary, error) {
	key := challengeID + "/" + participantID
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		summary, err := s.runner.Recompute(ctx, challengeID, participantID)
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
	if shared {
		logger.Debug().Str("challenge_id", challengeID).Msg("recalc joined an in-flight run")
	}
	return v.(*engine.BatchSummary), nil
}

// RecountResult is the outcome of recounting one challenge's enrollments.
type RecountResult struct {
	ID               string `json:"id"`
	Success          bool   `json:"success"`
	ParticipantCount *int   `json:"participant_count,omitempty"`
	Error            string `json:"error,omitempty"`
}

// RecountParticipants refreshes participant_count for one challenge, or every challenge
// when challengeID is empty.
func (s *ChallengeService) RecountParticipants(ctx context.Context, challengeID string) ([]RecountResult, error) {
	ids := []string{challengeID}
	if challengeID == "" {
		var err error
		if ids, err = s.repo.ListChallengeIDs(ctx); err != nil {
			return nil, fmt.Errorf("list challenges: %w", err)
		}
	}

	results := make([]RecountResult, 0, len(ids))
	for _, id := range ids {
		count, err := s.repo.CountParticipants(ctx, id)
		if err != nil {
			logger.Warn().Err(err).Str("challenge_id", id).Msg("participant recount failed")
			results = append(results, RecountResult{ID: id, Error: err.Error()})
			continue
		}
		results = append(results, RecountResult{ID: id, Success: true, ParticipantCount: &count})
	}
	return results, nil
}

// Leaderboard refreshes an unlocked challenge and returns its ranked participants.
// A failed refresh is logged and the cached progress is served.
func (s *ChallengeService) Leaderboard(ctx context.Context, challengeID string) ([]engine.LeaderboardRow, error) {
	challenge, err := s.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	if !challenge.IsLocked {
		if _, err := s.Recalc(ctx, challengeID, ""); err != nil {
			logger.Warn().Err(err).Str("challenge_id", challengeID).Msg("leaderboard refresh failed, serving cached progress")
		}
	}

	participants, err := s.repo.FetchParticipants(ctx, challengeID, "")
	if err != nil {
		return nil, fmt.Errorf("fetch participants: %w", err)
	}
	rows := engine.RankParticipants(participants)

	userIDs := make([]string, len(rows))
	for i, r := range rows {
		userIDs[i] = r.UserID
	}
	names, err := s.repo.ParticipantNames(ctx, userIDs)
	if err != nil {
		logger.Warn().Err(err).Str("challenge_id", challengeID).Msg("failed to load participant names")
		return rows, nil
	}
	for i := range rows {
		rows[i].Name = names[rows[i].UserID]
	}
	return rows, nil
}

// --- Handlers ---

// RecalcChallenge: POST /admin/challenges/:id/recalc {"participant_id"?}
func (s *ChallengeService) RecalcChallenge(c *fiber.Ctx) error {
	var req struct {
		ParticipantID string `json:"participant_id"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	summary, err := s.Recalc(c.UserContext(), c.Params("id"), req.ParticipantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// RecomputeParticipantCounts: POST /admin/challenges/recompute {"challenge_id"?}
func (s *ChallengeService) RecomputeParticipantCounts(c *fiber.Ctx) error {
	var req struct {
		ChallengeID string `json:"challenge_id"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	results, err := s.RecountParticipants(c.UserContext(), req.ChallengeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "results": results})
}

// GetLeaderboard: GET /challenges/:id/leaderboard
func (s *ChallengeService) GetLeaderboard(c *fiber.Ctx) error {
	rows, err := s.Leaderboard(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"leaderboard": rows})
}
