package repository

import (
	"context"
	"time"

	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/storage"
	"gorm.io/gorm/clause"
)

type BlacklistRepository struct {
	db  *storage.Postgres
	now func() time.Time
}

func NewBlacklistRepository(db *storage.Postgres) *BlacklistRepository {
	return &BlacklistRepository{db: db, now: time.Now}
}

// Add revokes token until expiresAt. Revoking twice is a no-op.
func (r *BlacklistRepository) Add(ctx context.Context, token string, expiresAt time.Time) error {
	entry := models.TokenBlacklist{Token: token, ExpiresAt: expiresAt.UTC()}
	return r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&entry).Error
}

func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.TokenBlacklist{}).
		Where("token = ? AND expires_at > ?", token, r.now().UTC()).
		Count(&count).Error

	return count > 0, err
}

// PurgeExpired deletes rows whose token has expired on its own.
func (r *BlacklistRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("expires_at <= ?", r.now().UTC()).
		Delete(&models.TokenBlacklist{})

	return result.RowsAffected, result.Error
}
