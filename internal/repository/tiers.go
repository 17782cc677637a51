package repository

import (
	"context"

	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/storage"
)

type TierRepository struct {
	*Repository[models.Tier]
}

func NewTierRepository(db *storage.Postgres) *TierRepository {
	return &TierRepository{Repository: New[models.Tier](db)}
}

func (r *TierRepository) GetByID(ctx context.Context, id uint) (*models.Tier, error) {
	return r.Get(ctx, Filter{"id": id})
}

func (r *TierRepository) GetByName(ctx context.Context, name string) (*models.Tier, error) {
	return r.Get(ctx, Filter{"name": name})
}
