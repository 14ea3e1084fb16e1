package engine

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrChallengeNotFound   = fmt.Errorf("challenge %w", ErrNotFound)
	ErrRaceNotFound        = fmt.Errorf("race %w", ErrNotFound)
	ErrStarsAlreadyGranted = errors.New("stars already granted for participant")
)

// ChallengeStore is everything the recompute batch reads and writes.
type ChallengeStore interface {
	GetChallenge(ctx context.Context, id string) (*Challenge, error)
	// participantID may be empty to fetch every participant of the challenge.
	FetchParticipants(ctx context.Context, challengeID, participantID string) ([]Participant, error)
	FetchActivities(ctx context.Context, participantIDs []string) (map[string][]ActivityRecord, error)
	UpdateParticipant(ctx context.Context, id string, fields ParticipantUpdate) error
	// IncrementMemberStars must be atomic per member and return ErrStarsAlreadyGranted
	// when the participant already has a grant recorded.
	IncrementMemberStars(ctx context.Context, grant StarGrant) (int, error)
}

// SettingsStore exposes the raw star tier configuration. Nil bytes mean "not configured".
type SettingsStore interface {
	FetchStarTierTable(ctx context.Context) ([]byte, error)
}

// RaceStore is everything the race reward batch reads.
type RaceStore interface {
	GetRace(ctx context.Context, id string) (*Race, error)
	FetchRaceResults(ctx context.Context, raceID string) ([]RaceResult, error)
	FetchActiveMilestoneDefinitions(ctx context.Context, raceType RaceCategory) ([]MilestoneDefinition, error)
	// FetchPodiumConfig returns (nil, nil) when the config does not exist.
	FetchPodiumConfig(ctx context.Context, id string) (*PodiumConfig, error)
	HasRewardAward(ctx context.Context, raceResultID string, kind RewardKind) (bool, error)
}

// LedgerStore creates the two writes a granted reward produces.
type LedgerStore interface {
	CreateLedgerEntry(ctx context.Context, entry LedgerEntry) (string, error)
	CreateRewardAward(ctx context.Context, award RewardAward) (string, error)
}

// OrphanLedgerError reports a ledger entry left behind when its award could not be written.
type OrphanLedgerError struct {
	LedgerEntryID string
	Err           error
}

func (e *OrphanLedgerError) Error() string {
	return fmt.Sprintf("reward award not recorded, ledger entry %s left for reconciliation: %v", e.LedgerEntryID, e.Err)
}

func (e *OrphanLedgerError) Unwrap() error {
	return e.Err
}
