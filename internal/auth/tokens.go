package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims is the JWT payload. Subject holds the username.
type Claims struct {
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Blacklist reports whether a raw token has been revoked.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	blacklist  Blacklist
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, blacklist Blacklist) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		blacklist:  blacklist,
		now:        time.Now,
	}
}

func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// Issue signs a token of the given type for subject.
func (m *TokenManager) Issue(subject string, kind TokenType) (string, error) {
	ttl := m.accessTTL
	if kind == RefreshToken {
		ttl = m.refreshTTL
	}

	now := m.now()
	claims := Claims{
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// Parse checks signature, expiry and token type. It does not consult the blacklist.
func (m *TokenManager) Parse(token string, kind TokenType) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if kind != "" && claims.TokenType != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.TokenType)
	}

	return claims, nil
}

// Verify rejects blacklisted tokens before checking the token itself.
// Blacklist lookup failures are returned as they are, not as ErrInvalidToken.
func (m *TokenManager) Verify(ctx context.Context, token string, kind TokenType) (*Claims, error) {
	if m.blacklist != nil {
		revoked, err := m.blacklist.IsBlacklisted(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("blacklist lookup: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return m.Parse(token, kind)
}

// ExpiresAt returns when a valid token of any type expires, for revocation.
func (m *TokenManager) ExpiresAt(token string) (time.Time, error) {
	claims, err := m.Parse(token, "")
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}
