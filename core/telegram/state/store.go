package state

import "sync"

// Store keeps sessions keyed by chat id.
type Store interface {
	Get(chatID int64) (*Session, bool)
	Put(chatID int64, s *Session)
	Delete(chatID int64)
}

// MemoryStore is an in-process Store. Get and Put copy sessions, so callers
// must Put a modified session back for the change to be visible.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

func (m *MemoryStore) Get(chatID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	return s.Clone(), ok
}

func (m *MemoryStore) Put(chatID int64, s *Session) {
	if s == nil {
		m.Delete(chatID)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = s.Clone()
}

func (m *MemoryStore) Delete(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// Len returns the number of active sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
