package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/metrics"
)

// Counter increments a window key and arms its expiry in one atomic step,
// so a counted key can never be left without a TTL.
type Counter interface {
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Count     int64
	ResetAt   time.Time
}

// FixedWindow counts requests per identity and path in epoch-aligned
// windows of Policy.Period seconds. The count resets at each boundary,
// so up to 2*Limit requests can straddle one.
type FixedWindow struct {
	store   Counter
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*FixedWindow)

func WithClock(now func() time.Time) Option {
	return func(f *FixedWindow) { f.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *FixedWindow) { f.metrics = m }
}

func NewFixedWindow(store Counter, opts ...Option) *FixedWindow {
	f := &FixedWindow{store: store, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WindowKey is ratelimit:{identity}:{sanitized_path}:{window_start}.
func WindowKey(identity, path string, windowStart int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", identity, SanitizePath(path), windowStart)
}

// Check counts one request and reports whether it fits in the current window.
// Store faults are returned as StoreUnavailable and the request is not allowed.
func (f *FixedWindow) Check(ctx context.Context, identity, path string, policy Policy) (Decision, error) {
	if err := policy.Validate(); err != nil {
		return Decision{}, err
	}

	now := f.now().Unix()
	period := int64(policy.Period)
	windowStart := now - now%period
	key := WindowKey(identity, path, windowStart)

	count, err := f.store.IncrWindow(ctx, key, time.Duration(policy.Period)*time.Second)
	if err != nil {
		f.metrics.RateLimitDecision(metrics.DecisionError)
		return Decision{}, apperrors.StoreUnavailable("Rate limit store unavailable", err)
	}

	d := Decision{
		Allowed:   count <= int64(policy.Limit),
		Limit:     policy.Limit,
		Remaining: max(policy.Limit-int(count), 0),
		Count:     count,
		ResetAt:   time.Unix(windowStart+period, 0),
	}

	if d.Allowed {
		f.metrics.RateLimitDecision(metrics.DecisionAllowed)
	} else {
		f.metrics.RateLimitDecision(metrics.DecisionDenied)
	}

	return d, nil
}
