package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	user_id         INTEGER PRIMARY KEY,
	model           TEXT NOT NULL,
	conversation_id TEXT NOT NULL DEFAULT '',
	updated_at      INTEGER NOT NULL
)`

// SqliteStorage keeps sessions in a local SQLite file
type SqliteStorage struct {
	db *sql.DB
}

// NewSqliteStorage opens (or creates) the database at path, creating the
// parent directory when needed.
func NewSqliteStorage(path string) (*SqliteStorage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging db at %s: %w", path, err)
	}
	if _, err := db.Exec(sessionsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SqliteStorage{db: db}, nil
}

func (s *SqliteStorage) GetSession(userId int64) (*Session, error) {
	var session Session
	var updated int64
	err := s.db.QueryRow(
		`SELECT user_id, model, conversation_id, updated_at FROM sessions WHERE user_id = ?`, userId,
	).Scan(&session.UserId, &session.Model, &session.ConversationId, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	session.UpdatedAt = time.UnixMilli(updated)
	return &session, nil
}

func (s *SqliteStorage) SaveSession(session *Session) error {
	session.UpdatedAt = time.Now()
	_, err := s.db.Exec(`
		INSERT INTO sessions (user_id, model, conversation_id, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			model = excluded.model,
			conversation_id = excluded.conversation_id,
			updated_at = excluded.updated_at`,
		session.UserId, session.Model, session.ConversationId, session.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SqliteStorage) ClearSession(userId int64) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userId); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *SqliteStorage) Close() error {
	return s.db.Close()
}
