package services

import (
	"context"

	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieuntrw/hlr-sub001/engine"
)

func seedChallenge(repo *memRepo) {
	repo.challenges["c1"] = &engine.Challenge{ID: "c1", Title: "October 100k"}
	repo.participants = []engine.Participant{
		{ID: "p1", UserID: "u1", ChallengeID: "c1", TargetKm: 100},
		{ID: "p2", UserID: "u2", ChallengeID: "c1", TargetKm: 50},
		{ID: "p3", UserID: "u3", ChallengeID: "c1", TargetKm: 70},
	}
	repo.activities["p1"] = []engine.ActivityRecord{
		{ParticipantID: "p1", DistanceMeters: 60000, MovingTimeSeconds: 18000},
		{ParticipantID: "p1", DistanceMeters: 45000, MovingTimeSeconds: 13500},
	}
	repo.activities["p2"] = []engine.ActivityRecord{
		{ParticipantID: "p2", DistanceMeters: 20000, MovingTimeSeconds: 7200},
	}
	repo.names = map[string]string{"u1": "Lan", "u2": "Minh", "u3": "Hoa"}
}

func newChallengeApp(svc *ChallengeService) *fiber.App {
	app := fiber.New()
	app.Get("/challenges/:id/leaderboard", svc.GetLeaderboard)
	app.Post("/admin/challenges/recompute", svc.RecomputeParticipantCounts)
	app.Post("/admin/challenges/:id/recalc", svc.RecalcChallenge)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, out interface{}) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRecalcChallengeHandler(t *testing.T) {
	repo := newMemRepo()
	seedChallenge(repo)
	svc := NewChallengeService(repo, nil, nil)
	app := newChallengeApp(svc)

	var summary engine.BatchSummary
	status := doJSON(t, app, "POST", "/admin/challenges/c1/recalc", "", &summary)
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, engine.BatchChallengeRecompute, summary.Kind)
	assert.Equal(t, "October 100k", summary.TargetTitle)
	require.Len(t, summary.Items, 3)
	assert.Equal(t, 3, summary.Succeeded())

	// 105 km against a 100 km target with no tier table: floor(100/50) stars
	assert.Equal(t, 2, repo.stars["u1"])
	assert.Equal(t, 0, repo.stars["u2"])
	assert.True(t, repo.participants[0].Completed)
	assert.InDelta(t, 40.0, repo.participants[1].CompletionRate, 0.001)
}

func TestRecalcChallengeHandlerSingleParticipant(t *testing.T) {
	repo := newMemRepo()
	seedChallenge(repo)
	app := newChallengeApp(NewChallengeService(repo, nil, nil))

	var summary engine.BatchSummary
	status := doJSON(t, app, "POST", "/admin/challenges/c1/recalc", `{"participant_id":"p2"}`, &summary)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "p2", summary.Items[0].ID)
	assert.Empty(t, repo.stars)
}

func TestRecalcChallengeHandlerErrors(t *testing.T) {
	repo := newMemRepo()
	seedChallenge(repo)
	app := newChallengeApp(NewChallengeService(repo, nil, nil))

	var body map[string]string
	status := doJSON(t, app, "POST", "/admin/challenges/missing/recalc", "", &body)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, body["error"], "not found")

	status = doJSON(t, app, "POST", "/admin/challenges/c1/recalc", `{"participant_id":"nobody"}`, &body)
	assert.Equal(t, fiber.StatusNotFound, status)

	status = doJSON(t, app, "POST", "/admin/challenges/c1/recalc", `{not json`, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRecalcRecordsSummary(t *testing.T) {
	repo := newMemRepo()
	seedChallenge(repo)
	reports := NewReportService(repo, nil)
	svc := NewChallengeService(repo, nil, reports)

	summary, err := svc.Recalc(context.Background(), "c1", "")
	require.NoError(t, err)

	run, err := repo.GetBatchRun(context.Background(), summary.BatchID)
	require.NoError(t, err)
	assert.Equal(t, string(engine.BatchChallengeRecompute), run.Kind)
	assert.Equal(t, 3, run.Succeeded)
	assert.Nil(t, run.ReportKey)
}

func TestRecalcLockedChallengeIsSkipped(t *testing.T) {
	repo := newMemRepo()
	seedChallenge(repo)
	repo.challenges["c1"].IsLocked = true
	svc := NewChallengeService(repo, nil, nil)

	summary, err := svc.Recalc(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.True(t, summary.Skipped)
	assert.Empty(t, summary.Items)
	assert.Empty(t, repo.stars)
}

func TestLeaderboard(t *testing.T) {
	repo := newMemRepo()
	seedChallenge(repo)
	app := newChallengeApp(NewChallengeService(repo, nil, nil))

	var body struct {
		Leaderboard []engine.LeaderboardRow `json:"leaderboard"`
	}
	status := doJSON(t, app, "GET", "/challenges/c1/leaderboard", "", &body)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body.Leaderboard, 3)

	first := body.Leaderboard[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, "Lan", first.Name)
	assert.InDelta(t, 105.0, first.TotalKm, 0.001)
	assert.True(t, first.Completed)

	assert.Equal(t, "Minh", body.Leaderboard[1].Name)
	assert.Equal(t, "Hoa", body.Leaderboard[2].Name)
	assert.Equal(t, 3, body.Leaderboard[2].Rank)
}

func TestLeaderboardLockedServesCachedProgress(t *testing.T) {
	repo := newMemRepo()
	seedChallenge(repo)
	repo.challenges["c1"].IsLocked = true
	repo.participants[2].TotalKm = 12.5
	svc := NewChallengeService(repo, nil, nil)

	rows, err := svc.Leaderboard(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "u3", rows[0].UserID)
	assert.Empty(t, repo.stars)
}

func TestLeaderboardUnknownChallenge(t *testing.T) {
	app := newChallengeApp(NewChallengeService(newMemRepo(), nil, nil))
	status := doJSON(t, app, "GET", "/challenges/nope/leaderboard", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestRecomputeParticipantCounts(t *testing.T) {
	repo := newMemRepo()
	seedChallenge(repo)
	repo.challenges["c2"] = &engine.Challenge{ID: "c2", Title: "Broken"}
	repo.countErr["c2"] = errors.New("connection reset")
	app := newChallengeApp(NewChallengeService(repo, nil, nil))

	var body struct {
		OK      bool            `json:"ok"`
		Results []RecountResult `json:"results"`
	}
	status := doJSON(t, app, "POST", "/admin/challenges/recompute", "", &body)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.OK)
	require.Len(t, body.Results, 2)

	byID := map[string]RecountResult{}
	for _, r := range body.Results {
		byID[r.ID] = r
	}
	assert.True(t, byID["c1"].Success)
	require.NotNil(t, byID["c1"].ParticipantCount)
	assert.Equal(t, 3, *byID["c1"].ParticipantCount)
	assert.False(t, byID["c2"].Success)
	assert.Equal(t, "connection reset", byID["c2"].Error)
}

func TestRecomputeParticipantCountsSingle(t *testing.T) {
	repo := newMemRepo()
	seedChallenge(repo)
	svc := NewChallengeService(repo, nil, nil)

	results, err := svc.RecountParticipants(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, repo.counts["c1"])

	results, err = svc.RecountParticipants(context.Background(), "ghost")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusNotFound, statusFor(engine.ErrRaceNotFound))
	assert.Equal(t, fiber.StatusBadRequest, statusFor(ErrInvalidInput))
	assert.Equal(t, fiber.StatusInternalServerError, statusFor(errors.New("boom")))
}
