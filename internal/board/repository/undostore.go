package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pipeline_board_backend/internal/board/engine"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const undoKeyPrefix = "board:undo:"

// RedisUndoStore keeps at most one pending move per organization in Redis,
// relying on key TTL for the undo window: an expired record simply reads as
// absent.
type RedisUndoStore struct {
	client *redis.Client
}

// NewRedisUndoStore creates an undo store over an existing Redis client.
func NewRedisUndoStore(client *redis.Client) *RedisUndoStore {
	return &RedisUndoStore{client: client}
}

func undoKey(orgID uuid.UUID) string {
	return undoKeyPrefix + orgID.String()
}

// Put stores the move under the organization's key, replacing any previous
// record and restarting the TTL.
func (s *RedisUndoStore) Put(ctx context.Context, move engine.PendingMove, ttl time.Duration) error {
	data, err := json.Marshal(move)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, undoKey(move.OrganizationID), data, ttl).Err()
}

// Take atomically reads and deletes the record via GETDEL.
func (s *RedisUndoStore) Take(ctx context.Context, orgID uuid.UUID) (engine.PendingMove, bool, error) {
	data, err := s.client.GetDel(ctx, undoKey(orgID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return engine.PendingMove{}, false, nil
		}
		return engine.PendingMove{}, false, err
	}

	var move engine.PendingMove
	if err := json.Unmarshal(data, &move); err != nil {
		return engine.PendingMove{}, false, err
	}
	return move, true, nil
}

// Exists reports whether a non-expired record is present.
func (s *RedisUndoStore) Exists(ctx context.Context, orgID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, undoKey(orgID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ engine.UndoStore = (*RedisUndoStore)(nil)
