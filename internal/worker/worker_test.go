package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aman-churiwal/blog-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	n     int64
	err   error
	calls atomic.Int32
}

func (f *fakePurger) PurgeExpired(context.Context) (int64, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestBlacklistPurgeRecordsCount(t *testing.T) {
	m := metrics.New()
	job := NewBlacklistPurge(&fakePurger{n: 4}, m)

	require.NoError(t, job.Run(context.Background()))
	expected := `
# HELP blog_api_token_blacklist_purged_total Expired blacklist rows removed by the worker
# TYPE blog_api_token_blacklist_purged_total counter
blog_api_token_blacklist_purged_total 4
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "blog_api_token_blacklist_purged_total"))
}

func TestBlacklistPurgePropagatesErrors(t *testing.T) {
	job := NewBlacklistPurge(&fakePurger{err: errors.New("db down")}, nil)
	assert.EqualError(t, job.Run(context.Background()), "db down")
}

func TestSchedulerRunsJobs(t *testing.T) {
	p := &fakePurger{}
	s := NewScheduler(time.Second)
	require.NoError(t, s.Add("@every 1s", NewBlacklistPurge(p, nil)))

	s.Start()
	assert.Eventually(t, func() bool { return p.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(time.Second)
	err := s.Add("not a schedule", NewBlacklistPurge(&fakePurger{}, nil))
	assert.ErrorContains(t, err, "schedule blacklist_purge")
}
