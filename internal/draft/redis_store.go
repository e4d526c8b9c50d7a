package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const draftTTL = 24 * time.Hour

// RedisStore keeps the draft slot in Redis so a session can recover its
// unsent answer across server instances.
type RedisStore struct {
	rdb *redis.Client
}

var _ Store = &RedisStore{}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func draftKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("interview:draft:%s", sessionID)
}

func (s *RedisStore) Save(ctx context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	return s.rdb.Set(ctx, draftKey(d.SessionId), data, draftTTL).Err()
}

func (s *RedisStore) Get(ctx context.Context, sessionID uuid.UUID) (*Draft, error) {
	data, err := s.rdb.Get(ctx, draftKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	return &d, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	return s.rdb.Del(ctx, draftKey(sessionID)).Err()
}
