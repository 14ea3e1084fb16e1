package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Challenge is the subset of a challenge row the recompute batch needs.
type Challenge struct {
	ID       string
	Title    string
	IsLocked bool
}

// Participant is a member's enrollment in one challenge with its cached progress.
type Participant struct {
	ID             string
	UserID         string
	ChallengeID    string
	TargetKm       float64
	TotalKm        float64
	AvgPaceSeconds *int
	ActivityCount  int
	CompletionRate float64
	Completed      bool
	LastSyncedAt   *time.Time
}

// ActivityRecord is one completed exercise session attributed to a participant.
type ActivityRecord struct {
	ParticipantID     string
	DistanceMeters    float64
	MovingTimeSeconds float64
}

// ParticipantUpdate is the set of fields a recompute persists onto a participant.
type ParticipantUpdate struct {
	TotalKm        float64
	AvgPaceSeconds *int
	ActivityCount  int
	CompletionRate float64
	Completed      bool
	LastSyncedAt   time.Time
}

// StarGrant is the write intent produced by a completion transition.
type StarGrant struct {
	ParticipantID string
	UserID        string
	ChallengeID   string
	Stars         int
	TierVersion   string
}

// RaceCategory is the milestone race type derived from a result's distance label.
type RaceCategory string

const (
	CategoryUnknown      RaceCategory = ""
	CategoryHalfMarathon RaceCategory = "HM"
	CategoryFullMarathon RaceCategory = "FM"
)

// Gender as used for milestone partitioning.
type Gender string

const (
	GenderUnknown Gender = ""
	GenderAny     Gender = "any"
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"

	// GenderOther is an unrecognized label. It matches no athlete.
	GenderOther Gender = "other"
)

// Race is the subset of a race row the reward batch needs.
type Race struct {
	ID   string
	Name string
	Date *time.Time
}

// RaceResult is one athlete's entry in a race.
type RaceResult struct {
	ID             string
	RaceID         string
	UserID         string
	Distance       string
	FinishSeconds  int
	Gender         Gender
	PodiumConfigID *string
}

// MilestoneDefinition is a time-threshold reward rule.
type MilestoneDefinition struct {
	ID          string
	RaceType    RaceCategory
	Gender      Gender
	Name        string
	TimeSeconds *int
	CashAmount  decimal.Decimal
	Description string
	Priority    int
	Active      bool
}

// PodiumConfig is a static reward keyed by podium type and rank.
type PodiumConfig struct {
	ID          string
	PodiumType  string
	Rank        int
	CashAmount  decimal.Decimal
	Description string
	Active      bool
}

// RewardKind distinguishes the two award variants.
type RewardKind string

const (
	RewardMilestone RewardKind = "milestone"
	RewardPodium    RewardKind = "podium"
)

// AwardStatus of a reward award or ledger entry.
type AwardStatus string

const (
	StatusPending AwardStatus = "pending"
	StatusPaid    AwardStatus = "paid"
)

// RewardSource unifies a matched milestone definition or podium config.
type RewardSource struct {
	Kind        RewardKind
	ID          string
	Description string
	CashAmount  decimal.Decimal
	PodiumType  string
	Rank        int
}

// MilestoneSource adapts a matched definition for the ledger writer.
func MilestoneSource(d MilestoneDefinition) RewardSource {
	return RewardSource{
		Kind:        RewardMilestone,
		ID:          d.ID,
		Description: d.Description,
		CashAmount:  d.CashAmount,
	}
}

// PodiumSource adapts a resolved podium config for the ledger writer.
func PodiumSource(p PodiumConfig) RewardSource {
	return RewardSource{
		Kind:        RewardPodium,
		ID:          p.ID,
		Description: p.Description,
		CashAmount:  p.CashAmount,
		PodiumType:  p.PodiumType,
		Rank:        p.Rank,
	}
}

// LedgerEntry is a pending financial record owed to a member.
type LedgerEntry struct {
	UserID      string
	Type        string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Status      AwardStatus
	Metadata    map[string]string
}

// RewardAward links a race result to the reward it earned.
type RewardAward struct {
	ID              string
	Kind            RewardKind
	MemberID        string
	RaceID          string
	RaceResultID    string
	SourceID        string
	AchievedSeconds int
	PodiumType      string
	Rank            int
	Description     string
	CashAmount      decimal.Decimal
	Status          AwardStatus
	LedgerEntryID   *string

	// LedgerPending is set when cash was owed but the ledger entry could not be created.
	LedgerPending bool
}
