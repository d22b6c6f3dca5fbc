// Package lock provides the per-proposal mutex used to queue competing
// approvals across server instances.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

// Locker acquires a named lock. The returned release func is always safe to call.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Noop is the Locker used when no Redis is configured.
type Noop struct{}

// Acquire always succeeds immediately.
func (Noop) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// Options tunes the Redis mutex.
type Options struct {
	Expiry      time.Duration
	Tries       int
	RetryDelay  time.Duration
	DriftFactor float64
}

// DefaultOptions returns sensible defaults for short critical sections.
func DefaultOptions() Options {
	return Options{
		Expiry:      10 * time.Second,
		Tries:       32,
		RetryDelay:  100 * time.Millisecond,
		DriftFactor: 0.01,
	}
}

// RedisLocker is a Locker backed by redsync.
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   Options
	logger *slog.Logger
}

// NewRedis creates a RedisLocker over an existing client.
func NewRedis(client goredislib.UniversalClient, opts Options) *RedisLocker {
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: slog.Default(),
	}
}

// Acquire blocks until key is held, the retries run out, or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
		redsync.WithDriftFactor(l.opts.DriftFactor),
	)

	l.logger.Debug("Acquiring lock", "key", key)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	return func() {
		// The request context may already be cancelled; unlock regardless.
		ok, err := mutex.UnlockContext(context.WithoutCancel(ctx))
		if !ok || err != nil {
			l.logger.Warn("Failed to release lock", "key", key, "ok", ok, "error", err)
			return
		}
		l.logger.Debug("Lock released", "key", key)
	}, nil
}

// Dial connects to Redis at addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*goredislib.Client, error) {
	client := goredislib.NewClient(&goredislib.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
