package service

import (
	"context"
	"time"

	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/repository"
)

// Store is the generic CRUD surface of repository.Repository the services use.
type Store[T any] interface {
	Get(ctx context.Context, filter repository.Filter) (*T, error)
	GetUnscoped(ctx context.Context, filter repository.Filter) (*T, error)
	GetMulti(ctx context.Context, filter repository.Filter, offset, limit int) ([]T, int64, error)
	Exists(ctx context.Context, filter repository.Filter) (bool, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, filter repository.Filter, values map[string]any) error
	Delete(ctx context.Context, filter repository.Filter) error
	HardDelete(ctx context.Context, filter repository.Filter) error
}

type UserStore interface {
	Store[models.User]
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	GetWithTier(ctx context.Context, username string) (*models.UserTier, error)
}

type TierStore interface {
	Store[models.Tier]
	GetByID(ctx context.Context, id uint) (*models.Tier, error)
	GetByName(ctx context.Context, name string) (*models.Tier, error)
}

type RuleStore interface {
	Store[models.RateLimit]
	FindRule(ctx context.Context, tierID uint, path string) (*models.RateLimit, error)
}

type PostStore interface {
	Store[models.Post]
}

// TokenRevoker records revoked tokens until they expire.
type TokenRevoker interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
}

var (
	_ UserStore    = (*repository.UserRepository)(nil)
	_ TierStore    = (*repository.TierRepository)(nil)
	_ RuleStore    = (*repository.RateLimitRepository)(nil)
	_ PostStore    = (*repository.PostRepository)(nil)
	_ TokenRevoker = (*repository.BlacklistRepository)(nil)
)
