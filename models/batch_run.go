package models

import (
	"time"

	"gorm.io/datatypes"
)

// BatchRun is the persisted report of one recompute or reward batch
type BatchRun struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"` // batch id, assigned by the runner
	Kind        string         `gorm:"type:varchar(32);not null;index" json:"kind"`
	TargetID    string         `gorm:"type:uuid;index;not null" json:"target_id"`
	TargetTitle string         `json:"target_title,omitempty"`
	Skipped     bool           `gorm:"not null;default:false" json:"skipped"`
	Incomplete  bool           `gorm:"not null;default:false" json:"incomplete"`
	Succeeded   int            `gorm:"not null;default:0" json:"succeeded"`
	Failed      int            `gorm:"not null;default:0" json:"failed"`
	Summary     datatypes.JSON `gorm:"type:jsonb" json:"summary"`
	ReportKey   *string        `json:"report_key,omitempty"`
	ReportURL   *string        `json:"report_url,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
