package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CapsuleCacheTTL is the time-to-live for cached capsule views.
	CapsuleCacheTTL = 24 * time.Hour

	capsuleCacheKeyPrefix = "capsule"
)

// CachedCapsule is the denormalized read model stored in Redis.
// Amounts are decimal strings; optional fields are empty strings when unset.
type CachedCapsule struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	CreatorID       uuid.UUID `json:"creator_id"`
	ContentRef      string    `json:"content_ref"`
	ScheduledOpenAt time.Time `json:"scheduled_open_at"`
	ActualOpenAt    string    `json:"actual_open_at"`
	AuctionEnabled  bool      `json:"auction_enabled"`
	Status          string    `json:"status"`
	FloorBid        string    `json:"floor_bid"`
	CurrentBid      string    `json:"current_bid"`
	HighestBidderID string    `json:"highest_bidder_id"`
	Network         string    `json:"network"`
	PaymentTxID     string    `json:"payment_tx_id"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CapsuleCache provides structured read/write operations for capsule cache entries.
// Key format: "capsule:{capsuleID}", fence "capsule:{capsuleID}:fence"
type CapsuleCache struct {
	client *RedisClient
}

// NewCapsuleCache creates a new CapsuleCache backed by the given RedisClient.
func NewCapsuleCache(r *RedisClient) *CapsuleCache {
	return &CapsuleCache{client: r}
}

// Get retrieves a cached capsule.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *CapsuleCache) Get(ctx context.Context, id uuid.UUID) (*CachedCapsule, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}
	return decodeCapsule(vals)
}

// setIfNewerScript writes the hash unless the stored entry or the
// invalidation fence carries a higher version.
// KEYS[1] entry, KEYS[2] fence; ARGV[1] version, ARGV[2] ttl seconds, ARGV[3:] fields.
var setIfNewerScript = redis.NewScript(`
local v = tonumber(ARGV[1])
local fence = redis.call('GET', KEYS[2])
if fence and tonumber(fence) > v then return 0 end
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) > v then return 0 end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`)

// invalidateScript drops the entry and raises the fence to ARGV[1].
var invalidateScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
local fence = redis.call('GET', KEYS[2])
if not fence or tonumber(fence) < tonumber(ARGV[1]) then
  redis.call('SET', KEYS[2], ARGV[1], 'EX', ARGV[2])
end
return 1
`)

// Set writes a cached capsule as a Redis hash with a 24-hour TTL. The write is
// skipped when a newer version is cached or was invalidated since cc was read,
// so a slow reader cannot overwrite a fresher view. Reports whether it wrote.
func (c *CapsuleCache) Set(ctx context.Context, cc *CachedCapsule) (bool, error) {
	args := append([]any{cc.Version, int64(CapsuleCacheTTL / time.Second)}, encodeCapsule(cc)...)
	n, err := setIfNewerScript.Run(ctx, c.client.Client(), []string{c.key(cc.ID), c.fenceKey(cc.ID)}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return n == 1, nil
}

// Invalidate removes a cached capsule after a write that produced version.
// Views read before that write are refused by Set until the fence expires.
func (c *CapsuleCache) Invalidate(ctx context.Context, id uuid.UUID, version int64) error {
	err := invalidateScript.Run(ctx, c.client.Client(), []string{c.key(id), c.fenceKey(id)},
		version, int64(CapsuleCacheTTL/time.Second)).Err()
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Delete removes a cached capsule without fencing. Used by event subscribers
// that do not know the version.
func (c *CapsuleCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Client().Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *CapsuleCache) key(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", capsuleCacheKeyPrefix, id)
}

func (c *CapsuleCache) fenceKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:fence", capsuleCacheKeyPrefix, id)
}

func encodeCapsule(cc *CachedCapsule) []any {
	return []any{
		"id", cc.ID.String(),
		"name", cc.Name,
		"creator_id", cc.CreatorID.String(),
		"content_ref", cc.ContentRef,
		"scheduled_open_at", cc.ScheduledOpenAt.UTC().Format(time.RFC3339Nano),
		"actual_open_at", cc.ActualOpenAt,
		"auction_enabled", strconv.FormatBool(cc.AuctionEnabled),
		"status", cc.Status,
		"floor_bid", cc.FloorBid,
		"current_bid", cc.CurrentBid,
		"highest_bidder_id", cc.HighestBidderID,
		"network", cc.Network,
		"payment_tx_id", cc.PaymentTxID,
		"version", strconv.FormatInt(cc.Version, 10),
		"created_at", cc.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at", cc.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeCapsule(vals map[string]string) (*CachedCapsule, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	creatorID, err := uuid.Parse(vals["creator_id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse creator_id: %w", err)
	}
	scheduled, err := time.Parse(time.RFC3339Nano, vals["scheduled_open_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse scheduled_open_at: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}
	auction, err := strconv.ParseBool(vals["auction_enabled"])
	if err != nil {
		return nil, fmt.Errorf("cache parse auction_enabled: %w", err)
	}
	version, err := strconv.ParseInt(vals["version"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache parse version: %w", err)
	}

	return &CachedCapsule{
		ID:              id,
		Name:            vals["name"],
		CreatorID:       creatorID,
		ContentRef:      vals["content_ref"],
		ScheduledOpenAt: scheduled,
		ActualOpenAt:    vals["actual_open_at"],
		AuctionEnabled:  auction,
		Status:          vals["status"],
		FloorBid:        vals["floor_bid"],
		CurrentBid:      vals["current_bid"],
		HighestBidderID: vals["highest_bidder_id"],
		Network:         vals["network"],
		PaymentTxID:     vals["payment_tx_id"],
		Version:         version,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}
