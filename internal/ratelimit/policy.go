package ratelimit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPeriod = errors.New("rate limit period must be positive")
	ErrInvalidLimit  = errors.New("rate limit must not be negative")
)

// Policy allows Limit requests per Period seconds. Limit 0 blocks everything.
type Policy struct {
	Limit  int
	Period int
}

func (p Policy) Validate() error {
	if p.Period <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPeriod, p.Period)
	}
	if p.Limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, p.Limit)
	}
	return nil
}

// SanitizePath normalizes equivalent routes to one key segment:
// "/users/", "/users" and "users" all become "users", and "/api/v1/users"
// becomes "api_v1_users".
func SanitizePath(path string) string {
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", "_")
}
