package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/pkg/logger"
	"github.com/wonny/aegis-signal/pkg/redis"
)

// RedisStore keeps the last evaluation per instrument in Redis, one JSON value per key.
// A disabled client degrades to "no history" (momentum 0), never an error.
type RedisStore struct {
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisStore creates a Redis-backed history store
func NewRedisStore(cache *redis.Cache, ttl time.Duration, log *logger.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = redis.TTLWeekly
	}
	return &RedisStore{
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// Load fetches prior evaluations with one MGET
func (s *RedisStore) Load(ctx context.Context, instruments []string) (contracts.HistorySnapshot, error) {
	snap := make(contracts.HistorySnapshot, len(instruments))
	if !s.cache.Enabled() {
		return snap, nil
	}

	keys := make([]string, len(instruments))
	byKey := make(map[string]string, len(instruments))
	for i, id := range instruments {
		keys[i] = redis.HistoryKey(id)
		byKey[keys[i]] = id
	}

	err := s.cache.GetMany(ctx, keys, func(key string, data []byte) error {
		var ev contracts.Evaluation
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		snap[byKey[key]] = ev
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"requested": len(instruments),
		"found":     len(snap),
	}).Debug("Loaded evaluation history")

	return snap, nil
}

// Save writes every evaluation in one pipeline round-trip
func (s *RedisStore) Save(ctx context.Context, evaluations []contracts.Evaluation) error {
	if !s.cache.Enabled() || len(evaluations) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(evaluations))
	for _, ev := range evaluations {
		values[redis.HistoryKey(ev.Instrument)] = ev
	}
	if err := s.cache.SetMany(ctx, values, s.ttl); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

var _ contracts.HistoryStore = (*RedisStore)(nil)
