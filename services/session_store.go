package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ride-booking/internal/status"
	"ride-booking/models"
)

// SessionStore persists wizard sessions. Entries carry a TTL so abandoned
// sessions disappear on their own.
type SessionStore interface {
	Put(ctx context.Context, session *models.BookingSession, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.BookingSession, error)
	Delete(ctx context.Context, id string) error
}

type memorySessionEntry struct {
	session   models.BookingSession
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process. Fresh instances per test
// keep workflow tests independent.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySessionEntry
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySessionEntry),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Put(ctx context.Context, session *models.BookingSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = memorySessionEntry{
		session:   *session,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*models.BookingSession, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return nil, status.ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// RedisSessionStore stores each session as a JSON value under a TTL key.
type RedisSessionStore struct {
	redis redis.UniversalClient
}

func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{redis: client}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisSessionStore) Put(ctx context.Context, session *models.BookingSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.BookingSession, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, status.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.BookingSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, sessionKey(id)).Err()
}
