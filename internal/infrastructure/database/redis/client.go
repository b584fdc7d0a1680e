// Package redis wraps the go-redis client behind the small cache surface the
// gateway needs for reference data.  The gateway runs fine without it; redis
// is an optional warm-start layer, not a dependency of the hot path.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/pkg/errors"
)

var (
	// ErrClientClosed is returned for operations on a closed client.
	ErrClientClosed = errors.New(errors.ErrCodeInternal, "redis client is closed")
	// ErrConnectionFailed wraps the initial connectivity probe failure.
	ErrConnectionFailed = errors.New(errors.ErrCodeServiceUnavailable, "redis connection failed")
)

// Client is a thin wrapper over redis.UniversalClient that owns lifecycle and
// logging.  Only standalone mode is supported.
type Client struct {
	rdb    redis.UniversalClient
	logger logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewClient connects to redis using the gateway configuration and verifies
// connectivity with a bounded ping before returning.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err).WithDetail(cfg.Addr)
	}

	log.Info("redis connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return &Client{rdb: rdb, logger: log}, nil
}

// Underlying exposes the raw go-redis client for the cache layer.
func (c *Client) Underlying() redis.UniversalClient {
	return c.rdb
}

// Ping checks liveness.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.  Safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rdb.Close()
}
