package models

import "time"

// SettingStarTiers is the key holding the challenge completion star tiers (JSON).
const SettingStarTiers = "challenge_star_tiers"

// SystemSetting is a key/value admin setting
type SystemSetting struct {
	Key         string    `gorm:"primaryKey;type:varchar(128)" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
