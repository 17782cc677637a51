package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CreatedByUserID uint       `gorm:"index;not null" json:"created_by_user_id"`
	Title           string     `gorm:"size:30;not null" json:"title"`
	Text            string     `gorm:"size:63206;not null" json:"text"`
	UUID            uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"-"`
	MediaURL        *string    `json:"media_url"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"-"`
	DeletedAt       *time.Time `json:"-"`
	IsDeleted       bool       `gorm:"index;not null;default:false" json:"-"`

	CreatedBy *User `gorm:"foreignKey:CreatedByUserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}

	return nil
}

func (Post) TableName() string {
	return "posts"
}
