package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/timecapsule/pkg/config"
)

// newTestConfig returns a config pointing to REDIS_URL env var, falling back to localhost.
func newTestConfig(url string) *config.Config {
	return &config.Config{
		RedisURL: url,
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(newTestConfig("not-a-valid-url"))
	if err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestNewRedisClient_UnreachableHost(t *testing.T) {
	_, err := NewRedisClient(newTestConfig("redis://localhost:19999"))
	if err == nil {
		t.Fatal("expected error when Redis is unreachable, got nil")
	}
}

// Integration tests: skipped unless REDIS_URL is set.
func TestRedisIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	t.Run("NewRedisClient_Success", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close() //nolint:errcheck
	})

	t.Run("Ping_Success", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close() //nolint:errcheck

		if err := rc.Ping(context.Background()); err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
	})

	t.Run("Close_Idempotent", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := rc.Close(); err != nil {
			t.Fatalf("first Close failed: %v", err)
		}
	})

	t.Run("Client_NotNil", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close() //nolint:errcheck

		if rc.Client() == nil {
			t.Fatal("expected non-nil underlying client")
		}
	})

	t.Run("CapsuleCache_RoundTrip", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close() //nolint:errcheck

		c := NewCapsuleCache(rc)
		ctx := context.Background()
		want := &CachedCapsule{
			ID:              uuid.New(),
			Name:            "Cached",
			CreatorID:       uuid.New(),
			ScheduledOpenAt: time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond),
			AuctionEnabled:  true,
			Status:          "LOCKED",
			FloorBid:        "0.1",
			CurrentBid:      "0.25",
			Network:         "ETH",
			PaymentTxID:     "0xfeed",
			Version:         3,
			CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
			UpdatedAt:       time.Now().UTC().Truncate(time.Millisecond),
		}
		if ok, err := c.Set(ctx, want); err != nil || !ok {
			t.Fatalf("Set = %v, %v; want true, nil", ok, err)
		}
		got, err := c.Get(ctx, want.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.CurrentBid != "0.25" || got.Version != 3 || !got.ScheduledOpenAt.Equal(want.ScheduledOpenAt) {
			t.Fatalf("unexpected cached capsule: %+v", got)
		}

		if err := c.Delete(ctx, want.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := c.Get(ctx, want.ID); !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil after delete, got %v", err)
		}
	})

	t.Run("CapsuleCache_StaleWriteAfterInvalidate", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close() //nolint:errcheck

		c := NewCapsuleCache(rc)
		ctx := context.Background()
		id := uuid.New()
		now := time.Now().UTC().Truncate(time.Millisecond)
		view := func(status string, version int64) *CachedCapsule {
			return &CachedCapsule{
				ID: id, Name: "Fenced", CreatorID: uuid.New(), ScheduledOpenAt: now.Add(time.Hour),
				Status: status, FloorBid: "0.1", CurrentBid: "0.2", Network: "BNB",
				PaymentTxID: "0xfence", Version: version, CreatedAt: now, UpdatedAt: now,
			}
		}

		// A reader loaded version 2, then a writer committed version 3.
		if err := c.Invalidate(ctx, id, 3); err != nil {
			t.Fatalf("Invalidate failed: %v", err)
		}
		if ok, err := c.Set(ctx, view("LOCKED", 2)); err != nil || ok {
			t.Fatalf("stale Set = %v, %v; want false, nil", ok, err)
		}
		if _, err := c.Get(ctx, id); !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil after refused write, got %v", err)
		}

		if ok, err := c.Set(ctx, view("OPEN", 3)); err != nil || !ok {
			t.Fatalf("fresh Set = %v, %v; want true, nil", ok, err)
		}
		if ok, err := c.Set(ctx, view("LOCKED", 2)); err != nil || ok {
			t.Fatalf("older Set over newer entry = %v, %v; want false, nil", ok, err)
		}
		got, err := c.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Status != "OPEN" || got.Version != 3 {
			t.Fatalf("cached view = %s v%d, want OPEN v3", got.Status, got.Version)
		}
	})

	t.Run("ReconcileQueue_PushPop", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close() //nolint:errcheck

		q := NewReconcileQueue(rc)
		ctx := context.Background()
		orphan := &OrphanedCapsule{
			Capsule:    CachedCapsule{ID: uuid.New(), PaymentTxID: "0xorphan"},
			LastError:  "connection refused",
			EnqueuedAt: time.Now().UTC(),
		}
		if err := q.Push(ctx, orphan); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
		got, err := q.Pop(ctx, time.Second)
		if err != nil {
			t.Fatalf("Pop failed: %v", err)
		}
		if got.Capsule.PaymentTxID != "0xorphan" {
			t.Fatalf("unexpected orphan: %+v", got)
		}
		if _, err := q.Pop(ctx, 100*time.Millisecond); !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil on empty queue, got %v", err)
		}
	})
}
