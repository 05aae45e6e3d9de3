package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHistory stores chat history as one Redis list per room, expiring the
// whole room after the configured TTL of inactivity.
type RedisHistory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisHistory(addr, password string, db int, ttl time.Duration) *RedisHistory {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisHistory{client: rdb, ttl: ttl}
}

// Ping verifies the Redis connection.
func (h *RedisHistory) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

func (h *RedisHistory) buildRoomKey(roomName string) string {
	return fmt.Sprintf("chat:room:%s", roomName)
}

func (h *RedisHistory) Append(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %v", err)
	}

	key := h.buildRoomKey(msg.RoomName)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat message: %v", err)
	}
	return nil
}

func (h *RedisHistory) Messages(ctx context.Context, roomName string) ([]Message, error) {
	raw, err := h.client.LRange(ctx, h.buildRoomKey(roomName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %v", err)
	}

	out := make([]Message, 0, len(raw))
	for _, entry := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat message: %v", err)
		}
		out = append(out, msg)
	}
	return out, nil
}
