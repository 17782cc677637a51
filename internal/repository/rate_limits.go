package repository

import (
	"context"

	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/storage"
)

type RateLimitRepository struct {
	*Repository[models.RateLimit]
}

func NewRateLimitRepository(db *storage.Postgres) *RateLimitRepository {
	return &RateLimitRepository{Repository: New[models.RateLimit](db)}
}

// FindRule returns the rule for a tier and an already sanitized path.
func (r *RateLimitRepository) FindRule(ctx context.Context, tierID uint, path string) (*models.RateLimit, error) {
	return r.Get(ctx, Filter{"tier_id": tierID, "path": path})
}

// PolicySource answers tier resolution lookups straight from the database
// so rule changes apply to the very next request.
type PolicySource struct {
	tiers *TierRepository
	rules *RateLimitRepository
}

func NewPolicySource(tiers *TierRepository, rules *RateLimitRepository) *PolicySource {
	return &PolicySource{tiers: tiers, rules: rules}
}

func (s *PolicySource) GetTier(ctx context.Context, id uint) (*models.Tier, error) {
	return s.tiers.GetByID(ctx, id)
}

func (s *PolicySource) FindRule(ctx context.Context, tierID uint, path string) (*models.RateLimit, error) {
	return s.rules.FindRule(ctx, tierID, path)
}
