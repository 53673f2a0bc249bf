// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "uno_actions"

// ActionRecord holds the minimal info needed by the historian to archive one action.
type ActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	Actor         string                 `json:"actor"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Queue pushes and pops ActionRecords on a Redis list.
type Queue struct {
	rdb  *redis.Client
	name string
}

// NewQueue wraps an existing client. An empty name selects DefaultQueueName.
func NewQueue(rdb *redis.Client, name string) *Queue {
	if name == "" {
		name = DefaultQueueName
	}
	return &Queue{rdb: rdb, name: name}
}

// Connect creates a client for cfg and pings it with a 5 second timeout.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Queue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return NewQueue(rdb, cfg.QueueName), nil
}

// Name returns the Redis list name.
func (q *Queue) Name() string { return q.name }

// PublishGameAction serializes the record to JSON and pushes it to the tail of the queue.
func (q *Queue) PublishGameAction(ctx context.Context, record ActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns false when the wait timed out.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (ActionRecord, bool, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return ActionRecord{}, false, nil
	}
	if err != nil {
		return ActionRecord{}, false, fmt.Errorf("BLPop %s: %w", q.name, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return ActionRecord{}, false, nil
	}
	rec, err := DecodeActionRecord([]byte(res[1]))
	if err != nil {
		return ActionRecord{}, false, err
	}
	return rec, true, nil
}

// Close releases the Redis connection pool.
func (q *Queue) Close() error {
	if q == nil || q.rdb == nil {
		return nil
	}
	return q.rdb.Close()
}

// DecodeActionRecord parses one queued payload.
func DecodeActionRecord(data []byte) (ActionRecord, error) {
	var rec ActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ActionRecord{}, fmt.Errorf("invalid action record: %w", err)
	}
	if rec.GameID == uuid.Nil {
		return ActionRecord{}, fmt.Errorf("invalid action record: missing game_id")
	}
	return rec, nil
}
