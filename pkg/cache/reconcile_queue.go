package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const reconcileQueueKey = "capsule:reconcile"

// OrphanedCapsule is a capsule whose creation fee was paid but whose insert failed.
// It holds everything needed to retry the insert without charging again.
type OrphanedCapsule struct {
	Capsule    CachedCapsule `json:"capsule"`
	Attempts   int           `json:"attempts"`
	LastError  string        `json:"last_error"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// ReconcileQueue is a Redis list of orphaned capsules drained by the worker.
type ReconcileQueue struct {
	client *RedisClient
}

func NewReconcileQueue(r *RedisClient) *ReconcileQueue {
	return &ReconcileQueue{client: r}
}

// Push appends an orphan to the tail of the queue.
func (q *ReconcileQueue) Push(ctx context.Context, o *OrphanedCapsule) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("reconcile marshal: %w", err)
	}
	if err := q.client.Client().RPush(ctx, reconcileQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("reconcile push: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for the next orphan. Returns redis.Nil when the queue stayed empty.
func (q *ReconcileQueue) Pop(ctx context.Context, timeout time.Duration) (*OrphanedCapsule, error) {
	res, err := q.client.Client().BLPop(ctx, timeout, reconcileQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("reconcile pop: %w", err)
	}
	// BLPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("reconcile pop: unexpected reply length %d", len(res))
	}
	var o OrphanedCapsule
	if err := json.Unmarshal([]byte(res[1]), &o); err != nil {
		return nil, fmt.Errorf("reconcile unmarshal: %w", err)
	}
	return &o, nil
}

// Len reports how many orphans are waiting.
func (q *ReconcileQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.Client().LLen(ctx, reconcileQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("reconcile len: %w", err)
	}
	return n, nil
}
