package models

// Profile is a club member. Owned by the membership service; this service only
// reads gender and maintains the star counter.
type Profile struct {
	ID         string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FullName   string  `gorm:"not null" json:"full_name"`
	Email      string  `gorm:"index" json:"email,omitempty"`
	Gender     *string `gorm:"type:varchar(16)" json:"gender,omitempty"` // male | female (Nam / Nữ in the UI)
	TotalStars int     `gorm:"not null;default:0" json:"total_stars"`

	Timestamps
}
