// Package cache provides an optional Redis-backed read-through cache for hot
// trait lookups. The database stays authoritative: every trait write goes to
// SQLite first and invalidates here second.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talgya/statecraft/internal/diplomacy"
)

// ErrMiss reports that a country has no cached trait vector.
var ErrMiss = errors.New("trait cache miss")

// TraitCache caches trait vectors keyed by country. A nil *TraitCache is a
// valid no-op cache, so callers never branch on whether caching is enabled.
type TraitCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects a trait cache to the Redis instance at addr. TTL bounds how
// stale a cached vector can get if an invalidation is lost.
func New(addr string, ttl time.Duration) *TraitCache {
	if addr == "" {
		return nil
	}
	return &TraitCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func traitKey(id diplomacy.CountryID) string {
	return fmt.Sprintf("traits:%d", id)
}

// Get returns the cached vector for a country, or ErrMiss.
func (c *TraitCache) Get(ctx context.Context, id diplomacy.CountryID) (diplomacy.PersonalityTraits, error) {
	var traits diplomacy.PersonalityTraits
	if c == nil {
		return traits, ErrMiss
	}

	raw, err := c.client.Get(ctx, traitKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return traits, ErrMiss
	}
	if err != nil {
		return traits, fmt.Errorf("cache get country %d: %w", id, err)
	}

	if err := json.Unmarshal([]byte(raw), &traits); err != nil {
		return traits, fmt.Errorf("cache decode country %d: %w", id, err)
	}
	return traits, nil
}

// Put stores a vector after a trait write.
func (c *TraitCache) Put(ctx context.Context, id diplomacy.CountryID, traits diplomacy.PersonalityTraits) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(traits)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, traitKey(id), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put country %d: %w", id, err)
	}
	return nil
}

// Invalidate drops a country's cached vector.
func (c *TraitCache) Invalidate(ctx context.Context, id diplomacy.CountryID) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, traitKey(id)).Err(); err != nil {
		return fmt.Errorf("cache invalidate country %d: %w", id, err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *TraitCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
