package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// User is a local account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository provides CRUD operations for users.
type UserRepository struct {
	db *sql.DB
}

// Users returns the user repository for this store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{db: s.db}
}

// Create inserts a new user. A taken username yields ErrExists.
func (r *UserRepository) Create(u *User) error {
	u.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExists
		}
		return err
	}

	return nil
}

// GetByID retrieves a user by its ID.
func (r *UserRepository) GetByID(id string) (*User, error) {
	return r.get(`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(username string) (*User, error) {
	return r.get(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

func (r *UserRepository) get(query string, arg string) (*User, error) {
	u := &User{}
	err := r.db.QueryRow(query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Count returns the number of accounts.
func (r *UserRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes a user and, through the foreign key, its sessions.
func (r *UserRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = ?`, id)
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

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
