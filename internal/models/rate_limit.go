package models

import "time"

// RateLimit is a per-tier rule for one sanitized path. At most one rule
// exists per (tier_id, path).
type RateLimit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TierID    uint      `gorm:"not null;uniqueIndex:idx_rate_limit_tier_path" json:"tier_id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Path      string    `gorm:"not null;uniqueIndex:idx_rate_limit_tier_path" json:"path"`
	Limit     int       `gorm:"column:limit;not null" json:"limit"`
	Period    int       `gorm:"not null" json:"period"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tier *Tier `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (RateLimit) TableName() string {
	return "rate_limits"
}
