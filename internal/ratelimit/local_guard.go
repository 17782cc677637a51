package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalGuard is an in-process token bucket per key. It throttles bursts
// (login attempts per client IP) without a store round-trip.
type LocalGuard struct {
	mu      sync.Mutex
	entries map[string]*guardEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type guardEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLocalGuard(rps float64, burst int) *LocalGuard {
	if burst <= 0 {
		burst = 1
	}
	return &LocalGuard{
		entries: make(map[string]*guardEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
		now:     time.Now,
	}
}

func (g *LocalGuard) Allow(key string) bool {
	now := g.now()

	g.mu.Lock()
	ent, ok := g.entries[key]
	if !ok {
		ent = &guardEntry{lim: rate.NewLimiter(g.rps, g.burst)}
		g.entries[key] = ent
	}
	ent.lastSeen = now
	g.mu.Unlock()

	return ent.lim.AllowN(now, 1)
}

// Cleanup drops keys idle for longer than the idle TTL.
func (g *LocalGuard) Cleanup() {
	cutoff := g.now().Add(-g.idleTTL)

	g.mu.Lock()
	defer g.mu.Unlock()

	for k, ent := range g.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(g.entries, k)
		}
	}
}

func (g *LocalGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// RunJanitor calls Cleanup every interval until ctx is done.
func (g *LocalGuard) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			g.Cleanup()
		}
	}
}
