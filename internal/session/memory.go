package session

import (
	"context"
	"sync"

	"github.com/spec-kit/paydesk/internal/domain"
)

// MemoryStore keeps the session in process.
type MemoryStore struct {
	mu      sync.RWMutex
	current *domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Start(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &s
	return nil
}

func (m *MemoryStore) End(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}

func (m *MemoryStore) Current(_ context.Context) (domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return domain.Session{}, ErrNoSession
	}
	return *m.current, nil
}
