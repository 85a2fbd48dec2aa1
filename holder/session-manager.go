package holder

import (
	"QwenBot/storage"
	"fmt"
	"sync"
)

// Session is an alias for storage.Session
type Session = storage.Session

// SessionManager applies default values on top of a SessionStorage and
// serializes mutations per user.
type SessionManager struct {
	storage      storage.SessionStorage
	defaultModel string
	locks        sync.Map // map[int64]*sync.Mutex
}

func NewSessionManager(store storage.SessionStorage, defaultModel string) *SessionManager {
	return &SessionManager{
		storage:      store,
		defaultModel: defaultModel,
	}
}

func (sm *SessionManager) DefaultModel() string {
	return sm.defaultModel
}

func (sm *SessionManager) lock(userId int64) func() {
	l, _ := sm.locks.LoadOrStore(userId, &sync.Mutex{})
	mu := l.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Get returns the user's session or the default one; reading never creates
// a stored session.
func (sm *SessionManager) Get(userId int64) (Session, error) {
	s, err := sm.storage.GetSession(userId)
	if err != nil {
		return Session{}, fmt.Errorf("getting session: %w", err)
	}
	return sm.withDefaults(userId, s), nil
}

// Update loads the session, applies fn and saves the result while holding
// the user's lock. Nothing is saved when fn returns an error.
func (sm *SessionManager) Update(userId int64, fn func(s *Session) error) error {
	unlock := sm.lock(userId)
	defer unlock()

	stored, err := sm.storage.GetSession(userId)
	if err != nil {
		return fmt.Errorf("getting session: %w", err)
	}
	s := sm.withDefaults(userId, stored)
	if err = fn(&s); err != nil {
		return err
	}
	if s.Model == "" {
		s.Model = sm.defaultModel
	}
	if err = sm.storage.SaveSession(&s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (sm *SessionManager) Clear(userId int64) error {
	unlock := sm.lock(userId)
	defer unlock()

	if err := sm.storage.ClearSession(userId); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (sm *SessionManager) Close() error {
	return sm.storage.Close()
}

func (sm *SessionManager) withDefaults(userId int64, s *Session) Session {
	if s == nil {
		return Session{UserId: userId, Model: sm.defaultModel}
	}
	out := *s
	if out.Model == "" {
		out.Model = sm.defaultModel
	}
	return out
}
