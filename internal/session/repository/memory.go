package repository

import (
	"context"
	"sync"
	"time"

	"church-portal/internal/session/domain"
)

// MemoryStore is an in-process Store used when no Redis address is configured.
// Sessions do not survive a restart and are not shared across replicas.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]domain.Session
	nowF func() time.Time
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]domain.Session),
		nowF: time.Now,
	}
}

// Create stores a copy of s.
func (m *MemoryStore) Create(ctx context.Context, s *domain.Session) error {
	return m.put(s)
}

// Get returns a copy of the session for id, or nil if missing or expired.
func (m *MemoryStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	s, ok := m.m[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.Expired(m.nowF()) {
		m.mu.Lock()
		delete(m.m, id)
		m.mu.Unlock()
		return nil, nil
	}
	return &s, nil
}

// Update replaces the stored copy of s. An expired record is deleted instead.
func (m *MemoryStore) Update(ctx context.Context, s *domain.Session) error {
	if s != nil && s.ID != "" && s.Expired(m.nowF()) {
		return m.Delete(ctx, s.ID)
	}
	return m.put(s)
}

// Delete removes the session for id.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.m, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) put(s *domain.Session) error {
	if s == nil || s.ID == "" || s.UserID == "" || s.Expired(m.nowF()) {
		return ErrInvalidSession
	}
	m.mu.Lock()
	m.m[s.ID] = *s
	m.mu.Unlock()
	return nil
}
