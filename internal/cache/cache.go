// Package cache publishes accepted game commands to Redis for the historian.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the shared Redis client. Nil when Redis is not configured; callers
// must check before publishing.
var Rdb *redis.Client

// CommandRecord is one accepted command, ordered by Index within a game.
type CommandRecord struct {
	GameID    uuid.UUID      `json:"gameId"`
	Index     int            `json:"index"`
	PlayerID  uuid.UUID      `json:"playerId"`
	CommandID string         `json:"commandId"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Connect initializes Rdb and verifies the connection with a ping.
func Connect(ctx context.Context, addr, password string) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	Rdb = client
	return nil
}

// PublishCommand appends rec to the game's command stream list. Delivery is
// best effort; the in-memory command log remains authoritative.
func PublishCommand(ctx context.Context, rec CommandRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal command record: %w", err)
	}
	key := fmt.Sprintf("game:%s:commands", rec.GameID)
	if err := Rdb.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}
