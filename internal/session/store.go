package session

import (
	"context"
	"sync"
	"time"

	"accounting/internal/models"
)

// Store persists session bindings. GetSession must return
// models.ErrNotFound for unknown or expired tokens.
type Store interface {
	CreateSession(ctx context.Context, s models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	RenewSession(ctx context.Context, token string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
	CleanExpiredSessions(ctx context.Context) (int, error)
}

// MemoryStore keeps sessions in process memory. Bindings are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.Session)}
}

func (m *MemoryStore) CreateSession(_ context.Context, s models.Session) error {
	if s.LastActivity.IsZero() {
		s.LastActivity = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !time.Now().Before(s.ExpiresAt) {
		delete(m.sessions, token)
		return nil, models.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) RenewSession(_ context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[token]; ok {
		s.ExpiresAt = expiresAt
		s.LastActivity = time.Now()
		m.sessions[token] = s
	}
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MemoryStore) CleanExpiredSessions(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for token, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
