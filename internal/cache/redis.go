// File: internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProfilePrefix namespaces personality profile keys.
const ProfilePrefix = "chatrelay:personality"

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// ProfileCache keeps scored personality traits per handle, so a handle that
// starts a new conversation is not rescored until the entry expires.
type ProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProfileCache wraps rdb. A zero ttl keeps entries forever.
func NewProfileCache(rdb *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{rdb: rdb, ttl: ttl}
}

func profileKey(handle string) string {
	return ProfilePrefix + ":" + strings.ToLower(strings.TrimPrefix(handle, "@"))
}

// Get returns the cached traits of handle and whether there were any.
func (c *ProfileCache) Get(ctx context.Context, handle string) (map[string]float64, bool, error) {
	raw, err := c.rdb.Get(ctx, profileKey(handle)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var traits map[string]float64
	if err := json.Unmarshal(raw, &traits); err != nil {
		return nil, false, fmt.Errorf("decode cached profile: %w", err)
	}
	return traits, true, nil
}

// Set stores the traits of handle.
func (c *ProfileCache) Set(ctx context.Context, handle string, traits map[string]float64) error {
	raw, err := json.Marshal(traits)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, profileKey(handle), raw, c.ttl).Err()
}

// Ping reports whether Redis is reachable.
func (c *ProfileCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
