// Package store provides storage backends for TriagePipe.
//
// Sessions live in memory only. The doctor directory and disease knowledge can
// additionally be served from SQLite or PostgreSQL.
package store

import (
	"errors"
	"log/slog"
	"time"

	"github.com/BTreeMap/TriagePipe/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultMaxSessions bounds the in-memory session table.
	DefaultMaxSessions = 10000
	// DefaultSessionTTL evicts sessions idle for this long.
	DefaultSessionTTL = 24 * time.Hour
)

// ErrSessionNotFound is returned when no session exists for a user id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps one session per user id. Implementations must be safe for
// concurrent use; serializing turns for the same user is the caller's job (see KeyedMutex).
type SessionStore interface {
	Get(userID string) (*models.Session, error)
	Create(userID string, featureKeys []string) (*models.Session, error)
	Replace(s *models.Session) error
	Len() int
}

// InMemorySessionStore is a bounded LRU of sessions with idle expiry.
// Records are copied on the way in and out so callers never share a session.
type InMemorySessionStore struct {
	sessions *expirable.LRU[string, *models.Session]
}

// NewInMemorySessionStore creates a session store from options.
func NewInMemorySessionStore(opts ...Option) *InMemorySessionStore {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	slog.Debug("InMemorySessionStore: created", "max_sessions", cfg.MaxSessions, "ttl", cfg.SessionTTL)
	onEvict := func(userID string, _ *models.Session) {
		slog.Debug("InMemorySessionStore: session evicted", "user_id", userID)
	}
	return &InMemorySessionStore{
		sessions: expirable.NewLRU[string, *models.Session](cfg.MaxSessions, onEvict, cfg.SessionTTL),
	}
}

// Get returns a copy of the stored session.
func (s *InMemorySessionStore) Get(userID string) (*models.Session, error) {
	sess, ok := s.sessions.Get(userID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Create stores and returns a fresh session, replacing any existing one.
func (s *InMemorySessionStore) Create(userID string, featureKeys []string) (*models.Session, error) {
	sess := models.NewSession(userID, featureKeys, "")
	s.sessions.Add(userID, sess.Clone())
	slog.Info("InMemorySessionStore.Create: new session", "user_id", userID)
	return sess, nil
}

// Replace overwrites the stored session for s.UserID.
func (s *InMemorySessionStore) Replace(sess *models.Session) error {
	if sess == nil || sess.UserID == "" {
		return errors.New("session must have a user id")
	}
	c := sess.Clone()
	c.UpdatedAt = time.Now()
	s.sessions.Add(sess.UserID, c)
	return nil
}

// Len returns the number of live sessions.
func (s *InMemorySessionStore) Len() int {
	return s.sessions.Len()
}
