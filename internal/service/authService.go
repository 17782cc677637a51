package service

import (
	"context"
	"errors"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/auth"
)

type AuthService struct {
	users     UserStore
	blacklist TokenRevoker
	tokens    *auth.TokenManager
}

func NewAuthService(users UserStore, blacklist TokenRevoker, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		users:     users,
		blacklist: blacklist,
		tokens:    tokens,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Authenticates by username or email and issues an access/refresh pair
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (*TokenPair, error) {
	user, err := s.users.FindBySubject(ctx, usernameOrEmail)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.HashedPassword, password) {
		return nil, apperrors.Unauthorized("Wrong username, email or password.")
	}

	access, err := s.tokens.Issue(user.Username, auth.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(user.Username, auth.RefreshToken)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Exchanges a refresh token for a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.Unauthorized("Refresh token missing.")
	}

	claims, err := s.tokens.Verify(ctx, refreshToken, auth.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenRevoked) {
			return "", apperrors.Unauthorized("Invalid refresh token.")
		}
		return "", err
	}

	user, err := s.users.FindBySubject(ctx, claims.Subject)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperrors.Unauthorized("Invalid refresh token.")
	}

	return s.tokens.Issue(user.Username, auth.AccessToken)
}

// Revoke blacklists token until it would have expired on its own.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	expiresAt, err := s.tokens.ExpiresAt(token)
	if err != nil {
		return apperrors.Unauthorized("Invalid token.")
	}

	return s.blacklist.Add(ctx, token, expiresAt)
}

func (s *AuthService) RefreshTokenMaxAge() int {
	return int(s.tokens.RefreshTTL().Seconds())
}
