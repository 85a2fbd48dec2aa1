package storage

import "time"

// Session is the per-user state kept between updates
type Session struct {
	UserId         int64     `bson:"user_id"`
	Model          string    `bson:"model"`
	ConversationId string    `bson:"conversation_id"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (s *Session) HasConversation() bool {
	return s.ConversationId != ""
}

// SessionStorage persists sessions keyed by user id.
// GetSession returns nil, nil when the user has no stored session.
type SessionStorage interface {
	GetSession(userId int64) (*Session, error)
	SaveSession(session *Session) error
	ClearSession(userId int64) error
	Close() error
}
