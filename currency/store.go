package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store keeps the last successfully fetched table per base currency.
type Store interface {
	Load(ctx context.Context, base string) (RateTable, bool, error)
	Save(ctx context.Context, table RateTable) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]RateTable
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]RateTable)}
}

func (s *MemoryStore) Load(_ context.Context, base string) (RateTable, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[base]
	return t, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, table RateTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table.Base] = table
	return nil
}

const redisKeyPrefix = "currency:rates:"

// RedisStore shares the rate table between service instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, base string) (RateTable, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+base).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return RateTable{}, false, nil
		}
		return RateTable{}, false, fmt.Errorf("failed to load rates for %s from redis: %w", base, err)
	}
	var t RateTable
	if err := json.Unmarshal(data, &t); err != nil {
		return RateTable{}, false, fmt.Errorf("failed to decode cached rates for %s: %w", base, err)
	}
	return t, true, nil
}

func (s *RedisStore) Save(ctx context.Context, table RateTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode rates for %s: %w", table.Base, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+table.Base, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store rates for %s in redis: %w", table.Base, err)
	}
	return nil
}
