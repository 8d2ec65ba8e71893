// Package memory provides the shared key-value mirror of workflow state,
// scoped by the original query string. Each stage writes its own fields and
// later stages may read them back when the in-flight state is incomplete.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const namespace = "swarm"

// Store is the contract shared by both backends. Write serializes value as
// JSON under a composite (scope, field) key; Read deserializes into out and
// reports whether the entry existed; Clear drops every entry for a scope.
type Store interface {
	Write(ctx context.Context, scope, field string, value any) error
	Read(ctx context.Context, scope, field string, out any) (bool, error)
	Clear(ctx context.Context, scope string) error
	Close() error
}

// New picks a backend: Redis when addr is set, otherwise the in-process map.
// A Redis connection failure is a configuration error raised here, before
// any stage runs.
func New(addr string, logger *zap.Logger) (Store, error) {
	if addr == "" {
		logger.Debug("memory store using in-process backend")
		return NewMapStore(), nil
	}
	return NewRedisStore(addr, logger)
}

// composeKey derives the storage key from the scope (the query, hashed for
// identity rather than content) and the field name.
func composeKey(scope, field string) string {
	h := fnv.New64a()
	h.Write([]byte(scope))
	return fmt.Sprintf("%s:%d:%s", namespace, h.Sum64(), field)
}

func scopePrefix(scope string) string {
	h := fnv.New64a()
	h.Write([]byte(scope))
	return fmt.Sprintf("%s:%d:", namespace, h.Sum64())
}

// RedisStore persists entries in Redis so intermediate results survive the
// process for inspection across runs.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr string, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Write(ctx context.Context, scope, field string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal memory entry %q: %w", field, err)
	}
	if err := s.client.Set(ctx, composeKey(scope, field), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write memory entry %q: %w", field, err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context, scope, field string, out any) (bool, error) {
	data, err := s.client.Get(ctx, composeKey(scope, field)).Bytes()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to read memory entry %q: %w", field, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal memory entry %q: %w", field, err)
	}
	return true, nil
}

func (s *RedisStore) Clear(ctx context.Context, scope string) error {
	pattern := scopePrefix(scope) + "*"
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan memory scope: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear memory scope: %w", err)
	}
	s.logger.Debug("cleared memory scope", zap.Int("entries", len(keys)))
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MapStore is the in-process fallback with semantics identical to the Redis
// backend. Writes during dispatch land on disjoint fields, but the mutex
// keeps the map safe regardless.
type MapStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMapStore() *MapStore {
	return &MapStore{entries: make(map[string][]byte)}
}

func (s *MapStore) Write(_ context.Context, scope, field string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal memory entry %q: %w", field, err)
	}
	s.mu.Lock()
	s.entries[composeKey(scope, field)] = payload
	s.mu.Unlock()
	return nil
}

func (s *MapStore) Read(_ context.Context, scope, field string, out any) (bool, error) {
	s.mu.RLock()
	payload, ok := s.entries[composeKey(scope, field)]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal memory entry %q: %w", field, err)
	}
	return true, nil
}

func (s *MapStore) Clear(_ context.Context, scope string) error {
	prefix := scopePrefix(scope)
	s.mu.Lock()
	for key := range s.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *MapStore) Close() error { return nil }
