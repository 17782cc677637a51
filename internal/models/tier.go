package models

import "time"

// Tier is a named policy bucket users are assigned to.
type Tier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tier) TableName() string {
	return "tiers"
}
