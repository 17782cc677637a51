package tier

import (
	"context"
	"fmt"

	"github.com/aman-churiwal/blog-api/internal/auth"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/ratelimit"
	"github.com/rs/zerolog/log"
)

// RuleSource reads tiers and their rules. Lookups are not cached, so a rule
// change or delete applies to the next request.
type RuleSource interface {
	GetTier(ctx context.Context, id uint) (*models.Tier, error)
	FindRule(ctx context.Context, tierID uint, path string) (*models.RateLimit, error)
}

type Resolver struct {
	source   RuleSource
	defaults ratelimit.Policy
}

func NewResolver(source RuleSource, defaults ratelimit.Policy) *Resolver {
	return &Resolver{source: source, defaults: defaults}
}

func (r *Resolver) Defaults() ratelimit.Policy {
	return r.defaults
}

// Resolve picks the policy for identity on path. Anonymous callers, users
// without a tier and tiers without a rule for path all get the defaults.
// Lookup failures are returned.
func (r *Resolver) Resolve(ctx context.Context, identity auth.Identity, path string) (ratelimit.Policy, error) {
	if identity.IsAnonymous() {
		return r.defaults, nil
	}

	user := identity.User
	sanitized := ratelimit.SanitizePath(path)
	logger := log.With().Uint("user_id", user.ID).Str("path", sanitized).Logger()

	if user.TierID == nil {
		logger.Warn().Msg("user has no assigned tier, applying default rate limit")
		return r.defaults, nil
	}

	t, err := r.source.GetTier(ctx, *user.TierID)
	if err != nil {
		return ratelimit.Policy{}, fmt.Errorf("get tier %d: %w", *user.TierID, err)
	}
	if t == nil {
		logger.Warn().Uint("tier_id", *user.TierID).Msg("assigned tier not found, applying default rate limit")
		return r.defaults, nil
	}

	rule, err := r.source.FindRule(ctx, t.ID, sanitized)
	if err != nil {
		return ratelimit.Policy{}, fmt.Errorf("find rule for tier %q: %w", t.Name, err)
	}
	if rule == nil {
		logger.Warn().Str("tier", t.Name).Msg("tier has no rate limit for path, applying default rate limit")
		return r.defaults, nil
	}

	policy := ratelimit.Policy{Limit: rule.Limit, Period: rule.Period}
	if err := policy.Validate(); err != nil {
		logger.Warn().Err(err).Str("tier", t.Name).Str("rule", rule.Name).Msg("invalid rate limit rule, applying default rate limit")
		return r.defaults, nil
	}

	return policy, nil
}
