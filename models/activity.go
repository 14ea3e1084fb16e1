package models

import "time"

// Activity records a single synced exercise session attributed to a challenge enrollment
type Activity struct {
	ID                     string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID                 string  `gorm:"type:uuid;index;not null" json:"user_id"`
	ChallengeParticipantID *string `gorm:"type:uuid;index" json:"challenge_participant_id,omitempty"` // nil = not counted toward a challenge
	ExternalID             string  `gorm:"index" json:"external_id,omitempty"`                        // e.g. Strava activity id

	Name       string    `json:"name"`
	Distance   float64   `json:"distance" gorm:"not null;default:0"`    // meters
	MovingTime float64   `json:"moving_time" gorm:"not null;default:0"` // seconds
	StartDate  time.Time `json:"start_date"`

	Timestamps
}
