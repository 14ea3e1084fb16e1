package models

import "time"

// MemberStarAward is the one-time star grant for completing a challenge.
// The unique participant id is what makes the grant idempotent.
type MemberStarAward struct {
	ID                     string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID                 string    `gorm:"type:uuid;index;not null" json:"user_id"`
	ChallengeID            string    `gorm:"type:uuid;index;not null" json:"challenge_id"`
	ChallengeParticipantID string    `gorm:"type:uuid;uniqueIndex;not null" json:"challenge_participant_id"`
	StarsAwarded           int       `gorm:"not null" json:"stars_awarded"`
	TierVersion            string    `gorm:"type:varchar(64)" json:"tier_version,omitempty"`
	AwardedAt              time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}
