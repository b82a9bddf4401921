package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/types"
)

// ContextCache fronts the customer-context aggregate. Lookups and stores are
// best-effort: any backend trouble degrades to the database path. Purge is
// not best-effort; erasure correctness depends on it. Purge also leaves a
// short-lived tombstone that Set refuses to overwrite, so a read that was in
// flight when the erasure committed cannot resurrect the entry.
type ContextCache interface {
	Get(ctx context.Context, customerID uuid.UUID) (*types.CustomerContext, bool)
	Set(ctx context.Context, customerID uuid.UUID, aggregate *types.CustomerContext)
	Purge(ctx context.Context, customerID uuid.UUID) error
}

const (
	contextTombstone = "__erased__"
	// Long enough to outlive any read that started before the erasure
	// committed; entries self-expire after it.
	contextTombstoneTTL = 10 * time.Second
)

// Writes the aggregate unless the key currently holds a tombstone.
var setUnlessTombstone = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[2] then
	return 0
end
return redis.call("SET", KEYS[1], ARGV[1], "EX", tonumber(ARGV[3]))
`)

type redisContextCache struct {
	log *logger.Logger
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisContextCache(log *logger.Logger, addr, password string, ttl time.Duration) (ContextCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisContextCache{
		log: log.With("service", "RedisContextCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func contextCacheKey(customerID uuid.UUID) string {
	return "customer_context:" + customerID.String()
}

func (c *redisContextCache) Get(ctx context.Context, customerID uuid.UUID) (*types.CustomerContext, bool) {
	raw, err := c.rdb.Get(ctx, contextCacheKey(customerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("Context cache read failed, falling through to DB", "customer_id", customerID, "error", err)
		}
		return nil, false
	}
	if string(raw) == contextTombstone {
		return nil, false
	}
	var aggregate types.CustomerContext
	if err := json.Unmarshal(raw, &aggregate); err != nil {
		c.log.Warn("Context cache entry undecodable, dropping it", "customer_id", customerID, "error", err)
		_ = c.rdb.Del(ctx, contextCacheKey(customerID)).Err()
		return nil, false
	}
	return &aggregate, true
}

func (c *redisContextCache) Set(ctx context.Context, customerID uuid.UUID, aggregate *types.CustomerContext) {
	raw, err := json.Marshal(aggregate)
	if err != nil {
		c.log.Warn("Context cache encode failed", "customer_id", customerID, "error", err)
		return
	}
	ttlSecs := int(c.ttl / time.Second)
	if ttlSecs < 1 {
		ttlSecs = 1
	}
	err = setUnlessTombstone.Run(ctx, c.rdb,
		[]string{contextCacheKey(customerID)}, raw, contextTombstone, ttlSecs).Err()
	if err != nil && err != redis.Nil {
		c.log.Warn("Context cache write failed", "customer_id", customerID, "error", err)
	}
}

func (c *redisContextCache) Purge(ctx context.Context, customerID uuid.UUID) error {
	if err := c.rdb.Set(ctx, contextCacheKey(customerID), contextTombstone, contextTombstoneTTL).Err(); err != nil {
		return fmt.Errorf("purge context cache for %s: %w", customerID, err)
	}
	return nil
}

// noopContextCache is used when no redis address is configured.
type noopContextCache struct{}

func NewNoopContextCache() ContextCache {
	return noopContextCache{}
}

func (noopContextCache) Get(context.Context, uuid.UUID) (*types.CustomerContext, bool) {
	return nil, false
}

func (noopContextCache) Set(context.Context, uuid.UUID, *types.CustomerContext) {}

func (noopContextCache) Purge(context.Context, uuid.UUID) error { return nil }
