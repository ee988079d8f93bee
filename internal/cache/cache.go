// Package cache publishes per-session action records to a Redis queue for
// out-of-band history consumers. Publishing is best effort: when no Redis
// address is configured the historian is disabled and every publish is a
// no-op.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// actionQueueKey is the list the historian consumer drains.
const actionQueueKey = "pwtp:session_actions"

// ActionRecord is one applied session operation, in the order it was
// applied.
type ActionRecord struct {
	SessionID   string         `json:"session_id"`
	ActionIndex int            `json:"action_index"`
	ActionType  string         `json:"action_type"`
	Payload     map[string]any `json:"payload"`
	Timestamp   int64          `json:"timestamp"`
}

// Historian pushes action records onto the Redis queue.
type Historian struct {
	rdb *redis.Client
}

// NewHistorian connects to Redis at addr. An empty addr returns a disabled
// historian rather than an error, so local play needs no Redis.
func NewHistorian(ctx context.Context, addr string) (*Historian, error) {
	if addr == "" {
		return &Historian{}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: ping redis at %s: %w", addr, err)
	}
	return &Historian{rdb: rdb}, nil
}

// Enabled reports whether records actually reach Redis.
func (h *Historian) Enabled() bool { return h != nil && h.rdb != nil }

// PublishAction enqueues one record. Callers should use a short timeout; a
// slow historian must never stall gameplay.
func (h *Historian) PublishAction(ctx context.Context, rec ActionRecord) error {
	if !h.Enabled() {
		return nil
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache: marshal action record: %w", err)
	}
	if err := h.rdb.LPush(ctx, actionQueueKey, data).Err(); err != nil {
		return fmt.Errorf("cache: publish action: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (h *Historian) Close() error {
	if h == nil || h.rdb == nil {
		return nil
	}
	return h.rdb.Close()
}
