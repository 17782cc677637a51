package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-churiwal/blog-api/internal/circuitbreaker"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// OpError is returned for any failed store round-trip other than a miss.
type OpError struct {
	Store string
	Op    string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("redis %s %s: %v", e.Store, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

type RedisOptions struct {
	Name     string
	Addr     string
	Password string
	DB       int

	// Per-call bound; zero disables it.
	Timeout time.Duration

	Breaker *circuitbreaker.Breaker
}

// RedisClient is the transient key/value store used for rate-limit windows
// and cached responses.
type RedisClient struct {
	client  *redis.Client
	name    string
	timeout time.Duration
	breaker *circuitbreaker.Breaker
}

func NewRedis(opts RedisOptions) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s at %s: %w", opts.Name, opts.Addr, err)
	}

	return &RedisClient{
		client:  client,
		name:    opts.Name,
		timeout: opts.Timeout,
		breaker: opts.Breaker,
	}, nil
}

// IsMiss reports whether err means the key does not exist.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (r *RedisClient) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	miss := false
	call := func() error {
		callCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		err := fn(callCtx)
		if IsMiss(err) {
			miss = true
			return nil
		}
		return err
	}

	var err error
	if r.breaker != nil {
		err = r.breaker.Execute(call)
	} else {
		err = call()
	}

	switch {
	case err != nil:
		return &OpError{Store: r.name, Op: op, Err: err}
	case miss:
		return redis.Nil
	default:
		return nil
	}
}

// incrWindow counts a hit and arms the window expiry in one atomic step.
// The TTL check also re-arms a key that somehow lost its expiry.
var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 or redis.call('TTL', KEYS[1]) == -1 then
	redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// IncrWindow increments key and makes sure it expires within ttl.
func (r *RedisClient) IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	seconds := max(int64(ttl/time.Second), 1)

	var n int64
	err := r.do(ctx, "incr_window", func(ctx context.Context) error {
		var err error
		n, err = incrWindow.Run(ctx, r.client, []string{key}, seconds).Int64()
		return err
	})
	return n, err
}

// Get returns redis.Nil (see IsMiss) when the key is absent.
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	var val []byte
	err := r.do(ctx, "get", func(ctx context.Context) error {
		var err error
		val, err = r.client.Get(ctx, key).Bytes()
		return err
	})
	return val, err
}

func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.do(ctx, "set", func(ctx context.Context) error {
		return r.client.Set(ctx, key, value, ttl).Err()
	})
}

// Del removes keys and returns how many existed. Absent keys are not an error.
func (r *RedisClient) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	var n int64
	err := r.do(ctx, "del", func(ctx context.Context) error {
		var err error
		n, err = r.client.Del(ctx, keys...).Result()
		return err
	})
	return n, err
}

// Scan collects every key matching a glob pattern using SCAN, never KEYS.
func (r *RedisClient) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := r.do(ctx, "scan", func(ctx context.Context) error {
		var cursor uint64
		for {
			batch, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
			if err != nil {
				return err
			}
			keys = append(keys, batch...)
			if next == 0 {
				return nil
			}
			cursor = next
		}
	})
	return keys, err
}

// DeleteMatching removes every key matching pattern.
func (r *RedisClient) DeleteMatching(ctx context.Context, pattern string) (int64, error) {
	keys, err := r.Scan(ctx, pattern)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		n, err := r.Del(ctx, keys[start:end]...)
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

func (r *RedisClient) Ping(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Name() string {
	return r.name
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
