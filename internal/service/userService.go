package service

import (
	"context"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/auth"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/repository"
)

type UserService struct {
	users UserStore
	tiers TierStore
	rules RuleStore
	auth  *AuthService
}

func NewUserService(users UserStore, tiers TierStore, rules RuleStore, authService *AuthService) *UserService {
	return &UserService{
		users: users,
		tiers: tiers,
		rules: rules,
		auth:  authService,
	}
}

type UserCreate struct {
	Name     string
	Username string
	Email    string
	Password string
}

type UserUpdate struct {
	Name            *string
	Username        *string
	Email           *string
	ProfileImageURL *string
}

func (s *UserService) Create(ctx context.Context, in UserCreate) (*models.User, error) {
	if err := s.checkEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}
	if err := s.checkUsernameFree(ctx, in.Username); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:           in.Name,
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) List(ctx context.Context, params models.PageParams) (models.Page[models.User], error) {
	users, total, err := s.users.GetMulti(ctx, repository.Filter{}, params.Offset(), params.ItemsPerPage)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(users, total, params), nil
}

func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("User not found")
	}
	return user, nil
}

// getOwned loads username and checks that current is that user.
func (s *UserService) getOwned(ctx context.Context, current *models.User, username string) (*models.User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if current == nil || current.ID != user.ID {
		return nil, apperrors.Forbidden("")
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, current *models.User, username string, in UserUpdate) error {
	user, err := s.getOwned(ctx, current, username)
	if err != nil {
		return err
	}

	values := make(map[string]any)
	if in.Name != nil {
		values["name"] = *in.Name
	}
	if in.Username != nil && *in.Username != user.Username {
		if err := s.checkUsernameFree(ctx, *in.Username); err != nil {
			return err
		}
		values["username"] = *in.Username
	}
	if in.Email != nil && *in.Email != user.Email {
		if err := s.checkEmailFree(ctx, *in.Email); err != nil {
			return err
		}
		values["email"] = *in.Email
	}
	if in.ProfileImageURL != nil {
		values["profile_image_url"] = *in.ProfileImageURL
	}

	return s.users.Update(ctx, repository.Filter{"id": user.ID}, values)
}

// Delete soft-deletes the caller's own account and revokes the token it used.
func (s *UserService) Delete(ctx context.Context, current *models.User, username, token string) error {
	user, err := s.getOwned(ctx, current, username)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, repository.Filter{"id": user.ID}); err != nil {
		return err
	}
	return s.auth.Revoke(ctx, token)
}

// HardDelete removes the row, soft-deleted or not, and revokes the caller's token.
func (s *UserService) HardDelete(ctx context.Context, username, token string) error {
	user, err := s.users.GetUnscoped(ctx, repository.Filter{"username": username})
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("User not found")
	}

	if err := s.users.HardDelete(ctx, repository.Filter{"id": user.ID}); err != nil {
		return err
	}
	return s.auth.Revoke(ctx, token)
}

func (s *UserService) RateLimits(ctx context.Context, username string) (*models.UserRateLimits, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	out := &models.UserRateLimits{User: *user, TierRateLimits: []models.RateLimit{}}
	if user.TierID == nil {
		return out, nil
	}

	tier, err := s.tiers.GetByID(ctx, *user.TierID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, apperrors.NotFound("Tier not found")
	}

	rules, _, err := s.rules.GetMulti(ctx, repository.Filter{"tier_id": tier.ID}, 0, 0)
	if err != nil {
		return nil, err
	}
	out.TierRateLimits = rules

	return out, nil
}

func (s *UserService) Tier(ctx context.Context, username string) (*models.UserTier, error) {
	if _, err := s.Get(ctx, username); err != nil {
		return nil, err
	}

	joined, err := s.users.GetWithTier(ctx, username)
	if err != nil {
		return nil, err
	}
	if joined == nil {
		return nil, apperrors.NotFound("Tier not found")
	}
	return joined, nil
}

func (s *UserService) SetTier(ctx context.Context, username string, tierID uint) (*models.User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	tier, err := s.tiers.GetByID(ctx, tierID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, apperrors.NotFound("Tier not found")
	}

	if err := s.users.Update(ctx, repository.Filter{"id": user.ID}, map[string]any{"tier_id": tier.ID}); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) checkEmailFree(ctx context.Context, email string) error {
	taken, err := s.users.Exists(ctx, repository.Filter{"email": email})
	if err != nil {
		return err
	}
	if taken {
		return apperrors.Duplicate("Email is already registered")
	}
	return nil
}

func (s *UserService) checkUsernameFree(ctx context.Context, username string) error {
	taken, err := s.users.Exists(ctx, repository.Filter{"username": username})
	if err != nil {
		return err
	}
	if taken {
		return apperrors.Duplicate("Username not available")
	}
	return nil
}
