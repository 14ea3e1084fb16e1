package models

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// All returns every model for AutoMigrate, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Challenge{},
		&ChallengeParticipant{},
		&Activity{},
		&MemberStarAward{},
		&SystemSetting{},
		&Race{},
		&RewardMilestone{},
		&RewardPodiumConfig{},
		&RaceResult{},
		&Transaction{},
		&MemberMilestoneReward{},
		&MemberPodiumReward{},
		&BatchRun{},
	}
}
