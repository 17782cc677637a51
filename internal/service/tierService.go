package service

import (
	"context"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/repository"
)

type TierService struct {
	tiers TierStore
}

func NewTierService(tiers TierStore) *TierService {
	return &TierService{tiers: tiers}
}

func (s *TierService) Create(ctx context.Context, name string) (*models.Tier, error) {
	taken, err := s.tiers.Exists(ctx, repository.Filter{"name": name})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Duplicate("Tier Name not available")
	}

	tier := &models.Tier{Name: name}
	if err := s.tiers.Create(ctx, tier); err != nil {
		return nil, err
	}
	return tier, nil
}

func (s *TierService) List(ctx context.Context, params models.PageParams) (models.Page[models.Tier], error) {
	tiers, total, err := s.tiers.GetMulti(ctx, repository.Filter{}, params.Offset(), params.ItemsPerPage)
	if err != nil {
		return models.Page[models.Tier]{}, err
	}
	return models.NewPage(tiers, total, params), nil
}

func (s *TierService) Get(ctx context.Context, name string) (*models.Tier, error) {
	tier, err := s.tiers.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, apperrors.NotFound("Tier not found")
	}
	return tier, nil
}

func (s *TierService) Update(ctx context.Context, name string, newName *string) error {
	tier, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if newName == nil || *newName == tier.Name {
		return nil
	}

	taken, err := s.tiers.Exists(ctx, repository.Filter{"name": *newName})
	if err != nil {
		return err
	}
	if taken {
		return apperrors.Duplicate("Tier Name not available")
	}

	return s.tiers.Update(ctx, repository.Filter{"id": tier.ID}, map[string]any{"name": *newName})
}

// Delete removes the tier and, by cascade, its rules. Users on the tier
// fall back to the default rate limit.
func (s *TierService) Delete(ctx context.Context, name string) error {
	tier, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	return s.tiers.HardDelete(ctx, repository.Filter{"id": tier.ID})
}
