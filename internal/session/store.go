package session

import (
	"context"
	"sync"
)

// State is what survives between requests of one browsing session.
// PatientID is set by the login hand-off; ChatID is owned by the Controller.
type State struct {
	PatientID string `json:"patient_id"`
	ChatID    string `json:"chat_id"`
}

// Store persists State per session key.  Loading an unknown key returns the
// zero State and no error.
type Store interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, st State) error
	Clear(ctx context.Context, key string) error
}

// MemoryStore keeps sessions in process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[key], nil
}

func (m *MemoryStore) Save(_ context.Context, key string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = st
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}
