// Package session holds the only piece of session-scoped mutable state in
// the coordinator: the resolved role selection. Persistence is behind an
// explicit Store interface instead of ambient storage.
package session

import (
	"context"
	"sync"
	"time"

	"engagement-coordinator/internal/common/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is session-scoped key/value persistence. Values live for the
// remainder of the session only, never across sessions.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Clear(ctx context.Context, sessionID string) error
}

// NewSessionID issues an opaque session identifier for the host to carry.
func NewSessionID() string {
	return uuid.NewString()
}

// ==========================
// Redis-backed store
// ==========================

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Store backed by Redis. Every key carries the
// session TTL so selections expire with the session.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) storageKey(sessionID, key string) string {
	return "session:" + sessionID + ":" + key
}

func (s *redisStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.storageKey(sessionID, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewSessionStoreError("get", err)
	}
	return val, true, nil
}

func (s *redisStore) Set(ctx context.Context, sessionID, key, value string) error {
	if err := s.client.Set(ctx, s.storageKey(sessionID, key), value, s.ttl).Err(); err != nil {
		return errors.NewSessionStoreError("set", err)
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context, sessionID string) error {
	iter := s.client.Scan(ctx, 0, "session:"+sessionID+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.NewSessionStoreError("clear", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return errors.NewSessionStoreError("clear", err)
	}
	return nil
}

// ==========================
// In-memory store
// ==========================

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryStore creates a process-local Store for tests and single-process
// hosts.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kv, ok := s.data[sessionID]
	if !ok {
		return "", false, nil
	}
	val, ok := kv[key]
	return val, ok, nil
}

func (s *memoryStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[sessionID] == nil {
		s.data[sessionID] = make(map[string]string)
	}
	s.data[sessionID][key] = value
	return nil
}

func (s *memoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}
