// Package cache keeps finished extractions in redis keyed by the hash of
// their source text.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

const keyPrefix = "Extraction:"

type Config struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// ResultCache stores extractions under Extraction:<version>:<hash>. A
// ResultCache without a client is a no-op that always misses.
type ResultCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	version string
	logger  *slog.Logger
}

// New wraps an existing client. rdb may be nil.
func New(rdb *redis.Client, ttl time.Duration, version string, logger *slog.Logger) *ResultCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultCache{rdb: rdb, ttl: ttl, version: version, logger: logger}
}

// Connect dials redis when cfg.Address is set and pings it once. An empty
// address yields a disabled cache.
func Connect(ctx context.Context, cfg Config, version string, logger *slog.Logger) (*ResultCache, error) {
	if cfg.Address == "" {
		return New(nil, cfg.TTL, version, logger), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	c := New(rdb, cfg.TTL, version, logger)
	c.logger.Info("connected to redis", "addr", cfg.Address, "db", cfg.DB)
	return c, nil
}

// Enabled reports whether a redis client backs the cache.
func (c *ResultCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *ResultCache) key(hash string) string {
	return keyPrefix + c.version + ":" + hash
}

// Get returns the cached extraction for hash, or false on a miss.
func (c *ResultCache) Get(ctx context.Context, hash string) (*entity.Extraction, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	val, err := c.rdb.Get(ctx, c.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e entity.Extraction
	if err := json.Unmarshal(val, &e); err != nil {
		c.logger.Warn("dropping unreadable cache entry", "hash", hash, "err", err)
		_ = c.rdb.Del(ctx, c.key(hash)).Err()
		return nil, false, nil
	}
	return &e, true, nil
}

// Set stores e under hash for the configured TTL.
func (c *ResultCache) Set(ctx context.Context, hash string, e *entity.Extraction) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(hash), b, c.ttl).Err()
}

// Delete evicts hash.
func (c *ResultCache) Delete(ctx context.Context, hash string) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Del(ctx, c.key(hash)).Err()
}

func (c *ResultCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
