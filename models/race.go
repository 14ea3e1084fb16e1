package models

import "time"

// Race is a club-tracked race event
type Race struct {
	ID       string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name     string     `gorm:"not null" json:"name"`
	Date     *time.Time `gorm:"type:date;index" json:"date,omitempty"`
	Location string     `json:"location,omitempty"`

	Results []RaceResult `json:"results,omitempty" gorm:"foreignKey:RaceID"`

	Timestamps
}

// RaceResult is one member's official result in a race
type RaceResult struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RaceID   string `gorm:"type:uuid;index;not null" json:"race_id"`
	UserID   string `gorm:"type:uuid;index;not null" json:"user_id"`
	Distance string `gorm:"type:varchar(32)" json:"distance"` // free-form label: "21km", "Half Marathon", "42.195"

	ChipTimeSeconds *int `json:"chip_time_seconds,omitempty"`
	OfficialRank    *int `json:"official_rank,omitempty"`
	AgeGroupRank    *int `json:"age_group_rank,omitempty"`

	// Set by an admin when the result earned a podium reward
	PodiumConfigID *string `gorm:"type:uuid;index" json:"podium_config_id,omitempty"`

	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID"`

	Timestamps
}
