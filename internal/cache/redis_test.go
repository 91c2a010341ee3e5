// File: internal/cache/redis_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ProfileCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	return NewProfileCache(rdb, ttl), mr
}

func TestProfileCache(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		traits, ok, err := cache.Get(ctx, "adele")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || traits != nil {
			t.Errorf("expected a miss, got %v", traits)
		}
	})

	t.Run("Hit is case and prefix insensitive", func(t *testing.T) {
		err := cache.Set(ctx, "@Adele", map[string]float64{"Conscientiousness": 0.64})
		if err != nil {
			t.Fatalf("Failed to set: %v", err)
		}

		traits, ok, err := cache.Get(ctx, "adele")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok || traits["Conscientiousness"] != 0.64 {
			t.Errorf("expected cached traits, got %v (ok=%v)", traits, ok)
		}
		if !mr.Exists(ProfilePrefix + ":adele") {
			t.Error("expected the normalised key to exist")
		}
	})

	t.Run("Entries expire", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)

		_, ok, err := cache.Get(ctx, "adele")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected the entry to have expired")
		}
	})

	t.Run("Corrupt entry", func(t *testing.T) {
		mr.Set(ProfilePrefix+":broken", "not json")

		_, _, err := cache.Get(ctx, "broken")
		if err == nil {
			t.Error("expected a decode error")
		}
	})
}
