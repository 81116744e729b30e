// Package cache stores computed dashboards in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/adityardiansyah/smart-agen/internal/domain"
)

const keyPrefix = "smart-agen:dashboard:"

// Dashboard caches per-area dashboards as JSON with a fixed TTL. Entries are
// never invalidated explicitly, so a dashboard may be up to one TTL stale.
// A nil *Dashboard is valid and always misses.
type Dashboard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient connects to the Redis server at url and pings it.
// Returns nil, nil when url is empty.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache.NewClient: parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache.NewClient: ping: %w", err)
	}
	return client, nil
}

// NewDashboard wraps client. Returns nil when client is nil.
func NewDashboard(client *redis.Client, ttl time.Duration) *Dashboard {
	if client == nil {
		return nil
	}
	return &Dashboard{client: client, ttl: ttl}
}

// Get returns the cached dashboard of an area. The bool is false on a miss.
func (c *Dashboard) Get(ctx context.Context, areaID uuid.UUID) (domain.Dashboard, bool, error) {
	if c == nil {
		return domain.Dashboard{}, false, nil
	}
	raw, err := c.client.Get(ctx, key(areaID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Dashboard{}, false, nil
	}
	if err != nil {
		return domain.Dashboard{}, false, fmt.Errorf("cache.Dashboard.Get: %w", err)
	}
	var d domain.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.Dashboard{}, false, fmt.Errorf("cache.Dashboard.Get: decode: %w", err)
	}
	return d, true, nil
}

// Set stores the dashboard of an area for the configured TTL.
func (c *Dashboard) Set(ctx context.Context, areaID uuid.UUID, d domain.Dashboard) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("cache.Dashboard.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, key(areaID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache.Dashboard.Set: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable. A nil cache is always healthy.
func (c *Dashboard) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func key(areaID uuid.UUID) string {
	return keyPrefix + areaID.String()
}
