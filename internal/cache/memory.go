package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	token   string
	expires time.Time
}

// MemoryStore implements Locker and Revoker in process. It is used when
// Redis is not configured; state is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// setIfAbsent stores key with token until now+ttl unless a live entry exists
func (s *MemoryStore) setIfAbsent(key, token string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expires) {
		return false
	}
	s.entries[key] = entry{token: token, expires: now.Add(ttl)}
	s.sweep(now)
	return true
}

// sweep drops expired entries; caller holds mu
func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
}

func (s *MemoryStore) live(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return ok && s.now().Before(e.expires)
}

// TryLock implements Locker
func (s *MemoryStore) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	if !s.setIfAbsent(Key(lockPrefix, key), token, ttl) {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock implements Locker
func (s *MemoryStore) Unlock(_ context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := Key(lockPrefix, key)
	e, ok := s.entries[k]
	if !ok || e.token != token || !s.now().Before(e.expires) {
		return ErrLockNotHeld
	}
	delete(s.entries, k)
	return nil
}

// Revoke implements Revoker
func (s *MemoryStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key(revokedPrefix, tokenID)] = entry{expires: s.now().Add(ttl)}
	return nil
}

// IsRevoked implements Revoker
func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return s.live(Key(revokedPrefix, tokenID)), nil
}
