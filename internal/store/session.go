package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session is a logged-in browser session. ExpiresAt is kept to the millisecond.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has lapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionRepository provides operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID, sess.CreatedAt, sess.ExpiresAt.UnixMilli(),
	)
	return err
}

// Get retrieves a session by token.
func (r *SessionRepository) Get(token string) (*Session, error) {
	sess := &Session{}
	var expires int64
	err := r.db.QueryRow(
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`,
		token,
	).Scan(&sess.Token, &sess.UserID, &sess.CreatedAt, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sess.ExpiresAt = time.UnixMilli(expires)
	return sess, nil
}

// Delete removes a session by token.
func (r *SessionRepository) Delete(token string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteExpired removes every session that has lapsed at now and returns
// how many were removed.
func (r *SessionRepository) DeleteExpired(now time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
