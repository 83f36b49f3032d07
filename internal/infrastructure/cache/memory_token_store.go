package cache

import (
	"context"
	"sync"
	"time"
)

type memoryToken struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenStore keeps access tokens in process memory.
// Tokens are not shared between instances.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]memoryToken
	now    func() time.Time
}

// MemoryTokenStoreOption configures a MemoryTokenStore
type MemoryTokenStoreOption func(*MemoryTokenStore)

// WithClock replaces time.Now
func WithClock(now func() time.Time) MemoryTokenStoreOption {
	return func(s *MemoryTokenStore) {
		s.now = now
	}
}

// NewMemoryTokenStore creates an empty in-memory token store
func NewMemoryTokenStore(opts ...MemoryTokenStoreOption) *MemoryTokenStore {
	s := &MemoryTokenStore{
		tokens: make(map[string]memoryToken),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached token, or ok=false when absent or expired
func (s *MemoryTokenStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.tokens[key]
	if !ok || !s.now().Before(tok.expiresAt) {
		return "", false, nil
	}
	return tok.value, true, nil
}

// Set stores a token for ttl
func (s *MemoryTokenStore) Set(_ context.Context, key, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[key] = memoryToken{value: token, expiresAt: s.now().Add(ttl)}
	return nil
}
