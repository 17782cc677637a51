package models

import "time"

// TokenBlacklist rows revoke a bearer token until it would have expired anyway.
type TokenBlacklist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

func (TokenBlacklist) TableName() string {
	return "token_blacklist"
}
