// Package session keeps chat sessions between requests.
//
// Sessions are short-lived conversation state keyed by an opaque ID. A single
// instance can run on MemoryStore; multi-instance deployments use RedisStore
// so any replica can continue a conversation.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/monitoring"
)

// DefaultTTL is used when the store config leaves ttl unset.
const DefaultTTL = 24 * time.Hour

var (
	// ErrSessionNotFound is returned by Get for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreClosed is returned after Close.
	ErrStoreClosed = errors.New("session store closed")
)

// Turn is one user message and the reply it got.
type Turn struct {
	Message string    `json:"message"`
	Reply   string    `json:"reply"`
	At      time.Time `json:"at"`
}

// Session is the state carried between chat requests.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     []Turn    `json:"turns,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// New returns an empty session created now.
func New(id, userAgent string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now, UserAgent: userAgent}
}

// AddTurn appends a turn and bumps UpdatedAt.
func (s *Session) AddTurn(message, reply string) {
	now := time.Now().UTC()
	s.Turns = append(s.Turns, Turn{Message: message, Reply: reply, At: now})
	s.UpdatedAt = now
}

func (s *Session) clone() *Session {
	c := *s
	c.Turns = append([]Turn(nil), s.Turns...)
	return &c
}

// Store defines the interface for session storage.
type Store interface {
	// Get returns the session or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Save creates or replaces a session and refreshes its TTL.
	Save(ctx context.Context, s *Session) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Backend names the infrastructure behind the store.
	Backend() monitoring.Backend

	// Close releases resources.
	Close() error
}

// Open builds the store selected by cfg. The Redis client carries hook, which
// may be nil.
func Open(cfg config.StoreConfig, hook redis.Hook, metrics *monitoring.MetricsCollector) (Store, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch cfg.Type {
	case config.StoreRedis:
		return NewRedisStore(cfg.Redis, ttl, hook, metrics)
	default:
		return NewMemoryStore(ttl, metrics), nil
	}
}
