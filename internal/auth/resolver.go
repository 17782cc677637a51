package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/rs/zerolog/log"
)

const notAuthenticated = "User not authenticated."

// UserLookup finds a live (not soft-deleted) user by username or email.
type UserLookup interface {
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
}

type Resolver struct {
	tokens *TokenManager
	users  UserLookup
}

func NewResolver(tokens *TokenManager, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// BearerToken extracts the credentials from an Authorization header.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves a bearer header to a user. Every auth failure is
// an Unauthorized error; anything else (a store fault) is returned unchanged.
func (r *Resolver) Authenticate(ctx context.Context, header string) (*models.User, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, apperrors.Unauthorized(notAuthenticated)
	}

	claims, err := r.tokens.Verify(ctx, token, AccessToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenRevoked) {
			return nil, apperrors.Unauthorized(notAuthenticated)
		}
		return nil, err
	}

	user, err := r.users.FindBySubject(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Unauthorized(notAuthenticated)
	}

	return user, nil
}

// Required returns the caller's identity or fails.
func (r *Resolver) Required(ctx context.Context, header, clientAddress string) (Identity, error) {
	user, err := r.Authenticate(ctx, header)
	if err != nil {
		return Identity{}, err
	}
	return FromUser(user, clientAddress), nil
}

// Optional never fails: a missing or invalid token resolves to an anonymous
// identity. Non-auth errors are logged and also resolve to anonymous.
func (r *Resolver) Optional(ctx context.Context, header, clientAddress string) Identity {
	if header == "" {
		return Anonymous(clientAddress)
	}

	user, err := r.Authenticate(ctx, header)
	if err != nil {
		if !apperrors.IsKind(err, apperrors.KindUnauthorized) {
			log.Error().Err(err).Str("client_ip", clientAddress).Msg("unexpected error resolving optional user")
		}
		return Anonymous(clientAddress)
	}

	return FromUser(user, clientAddress)
}
