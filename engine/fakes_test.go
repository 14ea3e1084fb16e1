package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type fakeChallengeStore struct {
	mu           sync.Mutex
	challenges   map[string]*Challenge
	participants []Participant
	activities   map[string][]ActivityRecord
	activityErr  error
	updateErr    map[string]error
	updates      map[string]ParticipantUpdate
	stars        map[string]int
	granted      map[string]bool
	grantCalls   int
}

func newFakeChallengeStore() *fakeChallengeStore {
	return &fakeChallengeStore{
		challenges: map[string]*Challenge{},
		activities: map[string][]ActivityRecord{},
		updateErr:  map[string]error{},
		updates:    map[string]ParticipantUpdate{},
		stars:      map[string]int{},
		granted:    map[string]bool{},
	}
}

func (f *fakeChallengeStore) GetChallenge(_ context.Context, id string) (*Challenge, error) {
	c, ok := f.challenges[id]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	return c, nil
}

func (f *fakeChallengeStore) FetchParticipants(_ context.Context, challengeID, participantID string) ([]Participant, error) {
	var out []Participant
	for _, p := range f.participants {
		if p.ChallengeID != challengeID {
			continue
		}
		if participantID != "" && p.ID != participantID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeChallengeStore) FetchActivities(_ context.Context, ids []string) (map[string][]ActivityRecord, error) {
	if f.activityErr != nil {
		return nil, f.activityErr
	}
	out := make(map[string][]ActivityRecord, len(ids))
	for _, id := range ids {
		out[id] = f.activities[id]
	}
	return out, nil
}

func (f *fakeChallengeStore) UpdateParticipant(_ context.Context, id string, u ParticipantUpdate) error {
	if err := f.updateErr[id]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[id] = u
	for i := range f.participants {
		if f.participants[i].ID == id {
			p := &f.participants[i]
			p.TotalKm = u.TotalKm
			p.AvgPaceSeconds = u.AvgPaceSeconds
			p.ActivityCount = u.ActivityCount
			p.CompletionRate = u.CompletionRate
			p.Completed = u.Completed
			t := u.LastSyncedAt
			p.LastSyncedAt = &t
		}
	}
	return nil
}

func (f *fakeChallengeStore) IncrementMemberStars(_ context.Context, g StarGrant) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grantCalls++
	if f.granted[g.ParticipantID] {
		return 0, ErrStarsAlreadyGranted
	}
	f.granted[g.ParticipantID] = true
	f.stars[g.UserID] += g.Stars
	return f.stars[g.UserID], nil
}

type fakeSettings struct {
	raw []byte
	err error
}

func (f fakeSettings) FetchStarTierTable(context.Context) ([]byte, error) {
	return f.raw, f.err
}

type fakeRaceStore struct {
	races      map[string]*Race
	results    map[string][]RaceResult
	milestones []MilestoneDefinition
	podiums    map[string]*PodiumConfig
	podiumErr  error
	awards     map[string]bool
	defFetches map[RaceCategory]int
}

func newFakeRaceStore() *fakeRaceStore {
	return &fakeRaceStore{
		races:      map[string]*Race{},
		results:    map[string][]RaceResult{},
		podiums:    map[string]*PodiumConfig{},
		awards:     map[string]bool{},
		defFetches: map[RaceCategory]int{},
	}
}

func (f *fakeRaceStore) GetRace(_ context.Context, id string) (*Race, error) {
	r, ok := f.races[id]
	if !ok {
		return nil, ErrRaceNotFound
	}
	return r, nil
}

func (f *fakeRaceStore) FetchRaceResults(_ context.Context, raceID string) ([]RaceResult, error) {
	return f.results[raceID], nil
}

func (f *fakeRaceStore) FetchActiveMilestoneDefinitions(_ context.Context, raceType RaceCategory) ([]MilestoneDefinition, error) {
	f.defFetches[raceType]++
	var out []MilestoneDefinition
	for _, d := range f.milestones {
		if d.RaceType == raceType && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRaceStore) FetchPodiumConfig(_ context.Context, id string) (*PodiumConfig, error) {
	if f.podiumErr != nil {
		return nil, f.podiumErr
	}
	return f.podiums[id], nil
}

func (f *fakeRaceStore) HasRewardAward(_ context.Context, resultID string, kind RewardKind) (bool, error) {
	return f.awards[awardKey(resultID, kind)], nil
}

func awardKey(resultID string, kind RewardKind) string {
	return string(kind) + ":" + resultID
}

type fakeLedgerStore struct {
	entries  []LedgerEntry
	awards   []RewardAward
	entryErr error
	awardErr error

	// marks written awards on the race store so re-runs see them
	races *fakeRaceStore
}

func (f *fakeLedgerStore) CreateLedgerEntry(_ context.Context, e LedgerEntry) (string, error) {
	if f.entryErr != nil {
		return "", f.entryErr
	}
	f.entries = append(f.entries, e)
	return fmt.Sprintf("txn-%d", len(f.entries)), nil
}

func (f *fakeLedgerStore) CreateRewardAward(_ context.Context, a RewardAward) (string, error) {
	if f.awardErr != nil {
		return "", f.awardErr
	}
	f.awards = append(f.awards, a)
	if f.races != nil {
		f.races.awards[awardKey(a.RaceResultID, a.Kind)] = true
	}
	return fmt.Sprintf("award-%d", len(f.awards)), nil
}

var errBoom = errors.New("boom")

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
