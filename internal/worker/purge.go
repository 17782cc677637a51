package worker

import (
	"context"

	"github.com/aman-churiwal/blog-api/internal/metrics"
	"github.com/rs/zerolog/log"
)

type ExpiredTokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// BlacklistPurge drops revoked tokens that have expired anyway.
type BlacklistPurge struct {
	store   ExpiredTokenPurger
	metrics *metrics.Metrics
}

func NewBlacklistPurge(store ExpiredTokenPurger, m *metrics.Metrics) *BlacklistPurge {
	return &BlacklistPurge{store: store, metrics: m}
}

func (j *BlacklistPurge) Name() string { return "blacklist_purge" }

func (j *BlacklistPurge) Run(ctx context.Context) error {
	n, err := j.store.PurgeExpired(ctx)
	if err != nil {
		return err
	}

	j.metrics.BlacklistPurged(n)
	if n > 0 {
		log.Info().Int64("purged", n).Msg("expired blacklist entries removed")
	}
	return nil
}
