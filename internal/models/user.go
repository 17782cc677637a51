package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultProfileImageURL = "https://profileimageurl.com"

type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:30;not null" json:"name"`
	Username        string     `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email           string     `gorm:"size:50;uniqueIndex;not null" json:"email"`
	HashedPassword  string     `gorm:"not null" json:"-"`
	ProfileImageURL string     `gorm:"not null" json:"profile_image_url"`
	UUID            uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"-"`
	CreatedAt       time.Time  `json:"-"`
	UpdatedAt       time.Time  `json:"-"`
	DeletedAt       *time.Time `json:"-"`
	IsDeleted       bool       `gorm:"index;not null;default:false" json:"-"`
	IsSuperuser     bool       `gorm:"not null;default:false" json:"-"`
	TierID          *uint      `gorm:"index" json:"tier_id"`

	Tier *Tier `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.ProfileImageURL == "" {
		u.ProfileImageURL = DefaultProfileImageURL
	}

	return nil
}

func (User) TableName() string {
	return "users"
}

// UserTier is a user joined with its tier.
type UserTier struct {
	User
	TierName      string    `json:"tier_name"`
	TierCreatedAt time.Time `json:"tier_created_at"`
}

// UserRateLimits is a user with every rule of its tier.
type UserRateLimits struct {
	User
	TierRateLimits []RateLimit `json:"tier_rate_limits"`
}
