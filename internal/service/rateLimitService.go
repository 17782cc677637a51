package service

import (
	"context"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/ratelimit"
	"github.com/aman-churiwal/blog-api/internal/repository"
)

type RateLimitService struct {
	rules RuleStore
	tiers *TierService
}

func NewRateLimitService(rules RuleStore, tiers *TierService) *RateLimitService {
	return &RateLimitService{rules: rules, tiers: tiers}
}

type RateLimitCreate struct {
	Name   string
	Path   string
	Limit  int
	Period int
}

type RateLimitUpdate struct {
	Name   *string
	Path   *string
	Limit  *int
	Period *int
}

func validatePolicy(limit, period int) error {
	if err := (ratelimit.Policy{Limit: limit, Period: period}).Validate(); err != nil {
		return apperrors.Validation([]string{err.Error()})
	}
	return nil
}

func (s *RateLimitService) Create(ctx context.Context, tierName string, in RateLimitCreate) (*models.RateLimit, error) {
	tier, err := s.tiers.Get(ctx, tierName)
	if err != nil {
		return nil, err
	}
	if err := validatePolicy(in.Limit, in.Period); err != nil {
		return nil, err
	}

	path := ratelimit.SanitizePath(in.Path)

	taken, err := s.rules.Exists(ctx, repository.Filter{"name": in.Name})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Duplicate("Rate Limit Name not available")
	}

	taken, err = s.rules.Exists(ctx, repository.Filter{"tier_id": tier.ID, "path": path})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Duplicate("There is already a rate limit for this path")
	}

	rule := &models.RateLimit{
		TierID: tier.ID,
		Name:   in.Name,
		Path:   path,
		Limit:  in.Limit,
		Period: in.Period,
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *RateLimitService) List(ctx context.Context, tierName string, params models.PageParams) (models.Page[models.RateLimit], error) {
	tier, err := s.tiers.Get(ctx, tierName)
	if err != nil {
		return models.Page[models.RateLimit]{}, err
	}

	rules, total, err := s.rules.GetMulti(ctx, repository.Filter{"tier_id": tier.ID}, params.Offset(), params.ItemsPerPage)
	if err != nil {
		return models.Page[models.RateLimit]{}, err
	}
	return models.NewPage(rules, total, params), nil
}

func (s *RateLimitService) Get(ctx context.Context, tierName string, id uint) (*models.RateLimit, error) {
	tier, err := s.tiers.Get(ctx, tierName)
	if err != nil {
		return nil, err
	}

	rule, err := s.rules.Get(ctx, repository.Filter{"id": id, "tier_id": tier.ID})
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, apperrors.NotFound("Rate Limit not found")
	}
	return rule, nil
}

func (s *RateLimitService) Update(ctx context.Context, tierName string, id uint, in RateLimitUpdate) error {
	rule, err := s.Get(ctx, tierName, id)
	if err != nil {
		return err
	}

	values := make(map[string]any)

	if in.Path != nil {
		path := ratelimit.SanitizePath(*in.Path)
		if path != rule.Path {
			other, err := s.rules.FindRule(ctx, rule.TierID, path)
			if err != nil {
				return err
			}
			if other != nil {
				return apperrors.Duplicate("There is already a rate limit for this path")
			}
			values["path"] = path
		}
	}

	if in.Name != nil && *in.Name != rule.Name {
		taken, err := s.rules.Exists(ctx, repository.Filter{"name": *in.Name})
		if err != nil {
			return err
		}
		if taken {
			return apperrors.Duplicate("There is already a rate limit with this name")
		}
		values["name"] = *in.Name
	}

	limit, period := rule.Limit, rule.Period
	if in.Limit != nil {
		limit = *in.Limit
		values["limit"] = limit
	}
	if in.Period != nil {
		period = *in.Period
		values["period"] = period
	}
	if err := validatePolicy(limit, period); err != nil {
		return err
	}

	return s.rules.Update(ctx, repository.Filter{"id": rule.ID}, values)
}

// Delete takes effect on the next rate-limited request; rules are never cached.
func (s *RateLimitService) Delete(ctx context.Context, tierName string, id uint) error {
	rule, err := s.Get(ctx, tierName, id)
	if err != nil {
		return err
	}
	return s.rules.HardDelete(ctx, repository.Filter{"id": rule.ID})
}
