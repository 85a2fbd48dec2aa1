package storage

import (
	"sync"
	"time"
)

type MemoryStorage struct {
	sessions map[int64]*Session
	mutex    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[int64]*Session),
	}
}

func (m *MemoryStorage) GetSession(userId int64) (*Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if s, ok := m.sessions[userId]; ok {
		cc := *s
		return &cc, nil
	}
	return nil, nil
}

func (m *MemoryStorage) SaveSession(session *Session) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	session.UpdatedAt = time.Now()
	cc := *session
	m.sessions[session.UserId] = &cc
	return nil
}

func (m *MemoryStorage) ClearSession(userId int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, userId)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
