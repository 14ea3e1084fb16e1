package models

import "time"

const (
	ParticipantStatusRegistered = "registered"
	ParticipantStatusCompleted  = "completed"
)

// Challenge is a time-boxed distance challenge members enroll in
type Challenge struct {
	ID               string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title            string    `gorm:"not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description,omitempty"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	IsLocked         bool      `gorm:"not null;default:false;index" json:"is_locked"` // locked = final, no more recomputes
	ParticipantCount int       `gorm:"not null;default:0" json:"participant_count"`

	Participants []ChallengeParticipant `json:"participants,omitempty" gorm:"foreignKey:ChallengeID"`

	Timestamps
}

// ChallengeParticipant = enrollment + cached progress (denormalized for the leaderboard)
type ChallengeParticipant struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ChallengeID string `gorm:"type:uuid;not null;uniqueIndex:idx_participant_challenge_user" json:"challenge_id"`
	UserID      string `gorm:"type:uuid;not null;uniqueIndex:idx_participant_challenge_user;index" json:"user_id"`

	TargetKm float64 `gorm:"not null;default:0" json:"target_km"`

	// Recomputed from activities
	ActualKm        float64    `gorm:"not null;default:0" json:"actual_km"`
	AvgPaceSeconds  *int       `json:"avg_pace_seconds"`
	TotalActivities int        `gorm:"not null;default:0" json:"total_activities"`
	CompletionRate  float64    `gorm:"not null;default:0" json:"completion_rate"`
	Completed       bool       `gorm:"not null;default:false" json:"completed"`
	Status          string     `gorm:"type:varchar(16);default:'registered'" json:"status"` // registered → completed
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`

	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID"`

	Timestamps
}
