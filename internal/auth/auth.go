// Package auth manages local accounts and browser sessions.
package auth

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayusman/handbuilder/internal/store"
)

// Account rules.
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

var (
	// ErrInvalidCredentials is returned when a username or password does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTooShort is returned by Register for short usernames.
	ErrUsernameTooShort = fmt.Errorf("username must be at least %d characters", MinUsernameLength)
	// ErrPasswordTooShort is returned by Register for short passwords.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	// ErrUsernameTaken is returned by Register when the username exists.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidSession is returned for unknown or expired session tokens.
	ErrInvalidSession = errors.New("invalid or expired session")
)

// Gate answers whether the current request may open the editor.
type Gate interface {
	Authenticated() bool
	Username() string
}

// Identity is a resolved session. The zero value is an anonymous visitor.
type Identity struct {
	User    *store.User
	Session *store.Session
}

var _ Gate = Identity{}

// Authenticated reports whether the identity carries a live session.
func (i Identity) Authenticated() bool {
	return i.User != nil
}

// Username returns the logged-in username, or "" for anonymous visitors.
func (i Identity) Username() string {
	if i.User == nil {
		return ""
	}
	return i.User.Username
}

// Config controls session lifetime, hashing cost and seeding.
type Config struct {
	SessionTTL time.Duration
	BcryptCost int
	// SeedAccounts are created on first run when the user table is empty.
	SeedAccounts map[string]string
}

// DefaultConfig returns week-long sessions and the demo accounts.
func DefaultConfig() Config {
	return Config{
		SessionTTL: 7 * 24 * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
		SeedAccounts: map[string]string{
			"demo":  "demo123",
			"admin": "admin123",
		},
	}
}

// Manager registers users, logs them in and resolves session tokens.
type Manager struct {
	users    *store.UserRepository
	sessions *store.SessionRepository
	config   Config
	now      func() time.Time
}

// NewManager creates a Manager backed by s.
func NewManager(s *store.Store, config Config) *Manager {
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultConfig().SessionTTL
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Manager{
		users:    s.Users(),
		sessions: s.Sessions(),
		config:   config,
		now:      time.Now,
	}
}

// Seed creates the configured seed accounts if no account exists yet.
func (m *Manager) Seed() error {
	n, err := m.users.Count()
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	for username, password := range m.config.SeedAccounts {
		if _, err := m.Register(username, password); err != nil {
			return fmt.Errorf("seed %s: %w", username, err)
		}
		log.Printf("Seeded account %q", username)
	}
	return nil
}

// Register creates a new account.
func (m *Manager) Register(username, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < MinUsernameLength {
		return nil, ErrUsernameTooShort
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := m.users.Create(u); err != nil {
		if errors.Is(err, store.ErrExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// Login checks credentials and opens a new session.
func (m *Manager) Login(username, password string) (*store.Session, error) {
	u, err := m.users.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := m.now()
	sess := &store.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.SessionTTL),
	}
	if err := m.sessions.Create(sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return sess, nil
}

// Logout ends a session. Unknown tokens are not an error.
func (m *Manager) Logout(token string) error {
	if err := m.sessions.Delete(token); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Resolve maps a session token to its identity. Expired sessions are
// removed and reported as ErrInvalidSession.
func (m *Manager) Resolve(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidSession
	}

	sess, err := m.sessions.Get(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Identity{}, ErrInvalidSession
		}
		return Identity{}, fmt.Errorf("lookup session: %w", err)
	}

	if sess.Expired(m.now()) {
		_ = m.sessions.Delete(token)
		return Identity{}, ErrInvalidSession
	}

	u, err := m.users.GetByID(sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Identity{}, ErrInvalidSession
		}
		return Identity{}, fmt.Errorf("lookup user: %w", err)
	}

	return Identity{User: u, Session: sess}, nil
}

// Prune removes expired sessions.
func (m *Manager) Prune() (int64, error) {
	return m.sessions.DeleteExpired(m.now())
}
