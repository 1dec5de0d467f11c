package store

import (
	"context"
	"sync"
	"time"

	"reattach/core/bridge"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps descriptors in process. Entries are copied through JSON so
// callers never share state with the store.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an in-process store. A zero ttl keeps entries until deleted.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Put(ctx context.Context, d *bridge.CollectionDescriptor) (string, error) {
	data, err := encode(d)
	if err != nil {
		return "", err
	}
	entry := memoryEntry{data: data}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}

	token := newToken()
	s.mu.Lock()
	s.entries[token] = entry
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*bridge.CollectionDescriptor, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entry, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expires.IsZero() && s.now().After(entry.expires) {
		s.mu.Lock()
		delete(s.entries, token)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return decode(entry.data)
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
