package models

import (
	"github.com/shopspring/decimal"
)

// RaceType of a milestone definition
const (
	RaceTypeHalfMarathon = "HM"
	RaceTypeFullMarathon = "FM"
)

// RewardStatus of a member award
const (
	RewardStatusPending   = "pending"
	RewardStatusDelivered = "delivered"
)

// RewardMilestone is a time-threshold reward rule (e.g. SUB400: FM under 4 hours)
type RewardMilestone struct {
	ID                string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RaceType          string          `gorm:"type:varchar(8);not null;index" json:"race_type"` // HM | FM
	Gender            *string         `gorm:"type:varchar(16)" json:"gender,omitempty"`        // nil = any
	MilestoneName     string          `gorm:"not null" json:"milestone_name"`
	TimeSeconds       *int            `json:"time_seconds,omitempty"`
	CashAmount        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cash_amount"`
	RewardDescription string          `gorm:"type:text" json:"reward_description"`
	Priority          int             `gorm:"not null;default:0" json:"priority"` // higher = evaluated first
	IsActive          bool            `gorm:"not null;default:true" json:"is_active"`

	Timestamps
}

// RewardPodiumConfig is a static reward for a podium type and rank
type RewardPodiumConfig struct {
	ID                string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PodiumType        string          `gorm:"type:varchar(32);not null" json:"podium_type"` // overall | age_group
	Rank              int             `gorm:"not null" json:"rank"`
	RewardDescription string          `gorm:"type:text" json:"reward_description"`
	CashAmount        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cash_amount"`
	IsActive          bool            `gorm:"not null;default:true" json:"is_active"`

	Timestamps
}

func (RewardPodiumConfig) TableName() string {
	return "reward_podium_config"
}

// MemberMilestoneReward: awarded milestone, at most one per race result
type MemberMilestoneReward struct {
	ID                   string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MemberID             string          `gorm:"type:uuid;index;not null" json:"member_id"`
	RaceID               string          `gorm:"type:uuid;index;not null" json:"race_id"`
	RaceResultID         string          `gorm:"type:uuid;uniqueIndex;not null" json:"race_result_id"`
	MilestoneID          string          `gorm:"type:uuid;not null" json:"milestone_id"`
	AchievedTimeSeconds  int             `json:"achieved_time_seconds"`
	RewardDescription    string          `gorm:"type:text" json:"reward_description"`
	CashAmount           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cash_amount"`
	Status               string          `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	RelatedTransactionID *string         `gorm:"type:uuid" json:"related_transaction_id,omitempty"`

	Timestamps
}

// MemberPodiumReward: awarded podium placement
type MemberPodiumReward struct {
	ID                   string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MemberID             string          `gorm:"type:uuid;index;not null" json:"member_id"`
	RaceID               string          `gorm:"type:uuid;index;not null" json:"race_id"`
	RaceResultID         string          `gorm:"type:uuid;not null;uniqueIndex:idx_podium_reward_result_config" json:"race_result_id"`
	PodiumConfigID       string          `gorm:"type:uuid;not null;uniqueIndex:idx_podium_reward_result_config" json:"podium_config_id"`
	PodiumType           string          `gorm:"type:varchar(32)" json:"podium_type"`
	Rank                 int             `json:"rank"`
	RewardDescription    string          `gorm:"type:text" json:"reward_description"`
	CashAmount           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cash_amount"`
	Status               string          `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	RelatedTransactionID *string         `gorm:"type:uuid" json:"related_transaction_id,omitempty"`

	Timestamps
}
