package connection

import (
	"context"
	"sync"
)

// Store persists session snapshots so a restarted bridge can report the
// last known pairing state.
type Store interface {
	Save(ctx context.Context, session Session) error
	Load(ctx context.Context, settingID string) (Session, bool, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SettingID] = session
	return nil
}

func (s *MemoryStore) Load(_ context.Context, settingID string) (Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[settingID]
	return session, ok, nil
}
