package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/hieuntrw/hlr-sub001/engine"
	"github.com/hieuntrw/hlr-sub001/models"
)

// memRepo is an in-memory stand-in for GormStore.
type memRepo struct {
	mu sync.Mutex

	challenges   map[string]*engine.Challenge
	participants []engine.Participant
	activities   map[string][]engine.ActivityRecord
	names        map[string]string
	counts       map[string]int
	countErr     map[string]error
	granted      map[string]bool
	stars        map[string]int
	tiers        []byte

	races      map[string]*engine.Race
	results    map[string][]engine.RaceResult
	milestones []engine.MilestoneDefinition
	podiums    map[string]*engine.PodiumConfig
	ledger     []engine.LedgerEntry
	awards     []engine.RewardAward

	runs map[string]*models.BatchRun
}

func newMemRepo() *memRepo {
	return &memRepo{
		challenges: map[string]*engine.Challenge{},
		activities: map[string][]engine.ActivityRecord{},
		names:      map[string]string{},
		counts:     map[string]int{},
		countErr:   map[string]error{},
		granted:    map[string]bool{},
		stars:      map[string]int{},
		races:      map[string]*engine.Race{},
		results:    map[string][]engine.RaceResult{},
		podiums:    map[string]*engine.PodiumConfig{},
		runs:       map[string]*models.BatchRun{},
	}
}

func (m *memRepo) GetChallenge(_ context.Context, id string) (*engine.Challenge, error) {
	c, ok := m.challenges[id]
	if !ok {
		return nil, engine.ErrChallengeNotFound
	}
	return c, nil
}

func (m *memRepo) FetchParticipants(_ context.Context, challengeID, participantID string) ([]engine.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []engine.Participant
	for _, p := range m.participants {
		if p.ChallengeID == challengeID && (participantID == "" || p.ID == participantID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) FetchActivities(_ context.Context, ids []string) (map[string][]engine.ActivityRecord, error) {
	out := map[string][]engine.ActivityRecord{}
	for _, id := range ids {
		out[id] = m.activities[id]
	}
	return out, nil
}

func (m *memRepo) UpdateParticipant(_ context.Context, id string, u engine.ParticipantUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.participants {
		if m.participants[i].ID == id {
			m.participants[i].TotalKm = u.TotalKm
			m.participants[i].CompletionRate = u.CompletionRate
			m.participants[i].Completed = u.Completed
			m.participants[i].ActivityCount = u.ActivityCount
			m.participants[i].AvgPaceSeconds = u.AvgPaceSeconds
			return nil
		}
	}
	return engine.ErrNotFound
}

func (m *memRepo) IncrementMemberStars(_ context.Context, g engine.StarGrant) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.granted[g.ParticipantID] {
		return 0, engine.ErrStarsAlreadyGranted
	}
	m.granted[g.ParticipantID] = true
	m.stars[g.UserID] += g.Stars
	return m.stars[g.UserID], nil
}

func (m *memRepo) ListChallengeIDs(context.Context) ([]string, error) {
	var ids []string
	for id := range m.challenges {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memRepo) ListUnlockedChallengeIDs(context.Context) ([]string, error) {
	var ids []string
	for id, c := range m.challenges {
		if !c.IsLocked {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memRepo) CountParticipants(_ context.Context, id string) (int, error) {
	if err := m.countErr[id]; err != nil {
		return 0, err
	}
	if _, ok := m.challenges[id]; !ok {
		return 0, engine.ErrChallengeNotFound
	}
	n := 0
	for _, p := range m.participants {
		if p.ChallengeID == id {
			n++
		}
	}
	m.counts[id] = n
	return n, nil
}

func (m *memRepo) ParticipantNames(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if n, ok := m.names[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (m *memRepo) FetchStarTierTable(context.Context) ([]byte, error) {
	return m.tiers, nil
}

func (m *memRepo) SaveStarTierTable(_ context.Context, raw []byte) error {
	m.tiers = append([]byte(nil), raw...)
	return nil
}

func (m *memRepo) GetRace(_ context.Context, id string) (*engine.Race, error) {
	r, ok := m.races[id]
	if !ok {
		return nil, engine.ErrRaceNotFound
	}
	return r, nil
}

func (m *memRepo) FetchRaceResults(_ context.Context, raceID string) ([]engine.RaceResult, error) {
	return m.results[raceID], nil
}

func (m *memRepo) FetchActiveMilestoneDefinitions(_ context.Context, rt engine.RaceCategory) ([]engine.MilestoneDefinition, error) {
	var out []engine.MilestoneDefinition
	for _, d := range m.milestones {
		if d.RaceType == rt && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memRepo) FetchPodiumConfig(_ context.Context, id string) (*engine.PodiumConfig, error) {
	return m.podiums[id], nil
}

func (m *memRepo) HasRewardAward(_ context.Context, resultID string, kind engine.RewardKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.awards {
		if a.RaceResultID == resultID && a.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) CreateLedgerEntry(_ context.Context, e engine.LedgerEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = append(m.ledger, e)
	return fmt.Sprintf("txn-%d", len(m.ledger)), nil
}

func (m *memRepo) CreateRewardAward(_ context.Context, a engine.RewardAward) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awards = append(m.awards, a)
	return fmt.Sprintf("award-%d", len(m.awards)), nil
}

func (m *memRepo) RaceRewards(_ context.Context, raceID string) ([]models.MemberMilestoneReward, []models.MemberPodiumReward, error) {
	var ms []models.MemberMilestoneReward
	var ps []models.MemberPodiumReward
	for _, a := range m.awards {
		if a.RaceID != raceID {
			continue
		}
		if a.Kind == engine.RewardMilestone {
			ms = append(ms, models.MemberMilestoneReward{MemberID: a.MemberID, RaceID: a.RaceID, RaceResultID: a.RaceResultID, MilestoneID: a.SourceID, CashAmount: a.CashAmount})
		} else {
			ps = append(ps, models.MemberPodiumReward{MemberID: a.MemberID, RaceID: a.RaceID, RaceResultID: a.RaceResultID, PodiumConfigID: a.SourceID, CashAmount: a.CashAmount})
		}
	}
	return ms, ps, nil
}

func (m *memRepo) SaveBatchRun(_ context.Context, run *models.BatchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *memRepo) GetBatchRun(_ context.Context, id string) (*models.BatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", id, engine.ErrNotFound)
	}
	return run, nil
}

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
