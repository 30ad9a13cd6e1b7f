package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DescriptorTTL bounds how stale a cached descriptor can get; lifecycle
// changes also invalidate explicitly.
const DescriptorTTL = 30 * time.Minute

// Cache is a redis-backed descriptor cache keyed by slug. It spares the
// system partition a lookup on every tenant-scoped request.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func cacheKey(slug string) string {
	return "complyd:tenant:" + slug
}

// Get returns the cached descriptor for slug. The second return is false on
// a miss. The password never enters the cache; callers needing credentials
// go through the registry.
func (c *Cache) Get(ctx context.Context, slug string) (Descriptor, bool, error) {
	payload, err := c.client.Get(ctx, cacheKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Descriptor{}, false, nil
	}
	if err != nil {
		return Descriptor{}, false, fmt.Errorf("descriptor cache get: %w", err)
	}

	var desc Descriptor
	if err := json.Unmarshal(payload, &desc); err != nil {
		return Descriptor{}, false, fmt.Errorf("descriptor cache decode: %w", err)
	}
	return desc, true, nil
}

// Put stores a descriptor under the standard TTL.
func (c *Cache) Put(ctx context.Context, desc Descriptor) error {
	payload, err := json.Marshal(desc)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, cacheKey(desc.Slug), payload, DescriptorTTL).Err(); err != nil {
		return fmt.Errorf("descriptor cache put: %w", err)
	}
	return nil
}

// Invalidate drops the cached descriptor for slug. Called on every tenant
// lifecycle change.
func (c *Cache) Invalidate(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, cacheKey(slug)).Err(); err != nil {
		return fmt.Errorf("descriptor cache invalidate: %w", err)
	}
	return nil
}
