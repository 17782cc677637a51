package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/storage"
	"gorm.io/gorm"
)

type UserRepository struct {
	*Repository[models.User]
	db *storage.Postgres
}

func NewUserRepository(db *storage.Postgres) *UserRepository {
	return &UserRepository{
		Repository: New[models.User](db, WithSoftDelete()),
		db:         db,
	}
}

// FindBySubject resolves a token subject: an email when it contains "@",
// otherwise a username. Soft-deleted users never match.
func (r *UserRepository) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	if strings.Contains(subject, "@") {
		return r.Get(ctx, Filter{"email": subject})
	}
	return r.Get(ctx, Filter{"username": subject})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.Get(ctx, Filter{"username": username})
}

// GetWithTier joins the user's tier. Returns nil when the user or the
// tier is missing.
func (r *UserRepository) GetWithTier(ctx context.Context, username string) (*models.UserTier, error) {
	var joined models.UserTier
	err := r.db.DB.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*, tiers.name AS tier_name, tiers.created_at AS tier_created_at").
		Joins("JOIN tiers ON tiers.id = users.tier_id").
		Where("users.username = ? AND users.is_deleted = ?", username, false).
		Take(&joined).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &joined, nil
}
