// Package chat handles chat messages: validation, session continuity and
// the call into a Responder.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/monitoring"
	"github.com/compresr/flightdesk/internal/session"
)

var (
	// ErrEmptyMessage is returned for empty or whitespace-only messages.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrMessageTooLong is returned when a message exceeds the rune limit.
	ErrMessageTooLong = errors.New("message too long")
	// ErrStoreUnavailable wraps session store failures.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrResponder wraps responder failures.
	ErrResponder = errors.New("failed to generate response")
)

// Request is an incoming chat message.
type Request struct {
	Message   string
	SessionID string // empty starts a new session
	UserAgent string
}

// Reply is what the caller gets back.
type Reply struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// Responder produces the assistant's reply for one message.
type Responder interface {
	Respond(ctx context.Context, sess *session.Session, message string) (string, error)
}

// Service ties the store, responder and monitoring together.
type Service struct {
	store     session.Store
	responder Responder
	sentry    *monitoring.Sentry
	logger    *monitoring.Logger
	maxLength int
}

// NewService creates a chat service. A nil responder uses the built-in
// FlightResponder; a nil sentry disables error reporting.
func NewService(cfg config.ChatConfig, store session.Store, responder Responder, sentry *monitoring.Sentry, logger *monitoring.Logger) *Service {
	if responder == nil {
		responder = FlightResponder{}
	}
	if logger == nil {
		logger = monitoring.Nop()
	}
	if sentry == nil {
		sentry, _ = monitoring.NewSentry(config.MonitoringConfig{}, monitoring.Nop())
	}
	maxLength := cfg.MaxMessageLength
	if maxLength <= 0 {
		maxLength = config.DefaultMaxMessageLength
	}
	return &Service{
		store:     store,
		responder: responder,
		sentry:    sentry,
		logger:    logger,
		maxLength: maxLength,
	}
}

// MaxMessageLength returns the configured limit in runes.
func (s *Service) MaxMessageLength() int { return s.maxLength }

// StoreBackend names the session store backend.
func (s *Service) StoreBackend() monitoring.Backend { return s.store.Backend() }

// Validate checks a message against the emptiness and length rules.
func (s *Service) Validate(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(message); n > s.maxLength {
		return fmt.Errorf("%w: %d characters, limit is %d", ErrMessageTooLong, n, s.maxLength)
	}
	return nil
}

// HandleMessage validates req, loads or creates its session, asks the
// responder for a reply and persists the turn.
func (s *Service) HandleMessage(ctx context.Context, req Request) (*Reply, error) {
	if err := s.Validate(req.Message); err != nil {
		return nil, err
	}

	sess, err := s.loadSession(ctx, req)
	if err != nil {
		return nil, s.storeFailure(ctx, req.SessionID, err)
	}
	s.sentry.SetUserContext(ctx, sess.ID, req.UserAgent)

	span := s.sentry.StartSpan(ctx, "chat.respond", "chat.respond")
	text, err := s.responder.Respond(span.Context(), sess, req.Message)
	span.Finish()
	if err != nil {
		s.sentry.CaptureException(ctx, err, map[string]string{"session_id": sess.ID})
		s.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("responder failed")
		return nil, fmt.Errorf("%w: %w", ErrResponder, err)
	}

	sess.AddTurn(req.Message, text)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, s.storeFailure(ctx, sess.ID, err)
	}

	s.logger.Debug().
		Str("session_id", sess.ID).
		Int("turns", len(sess.Turns)).
		Msg("chat message handled")

	return &Reply{Response: text, SessionID: sess.ID}, nil
}

// loadSession returns the requested session, or a fresh one when the id is
// empty or unknown.
func (s *Service) loadSession(ctx context.Context, req Request) (*session.Session, error) {
	if req.SessionID == "" {
		return session.New(uuid.NewString(), req.UserAgent), nil
	}

	sess, err := s.store.Get(ctx, req.SessionID)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, session.ErrSessionNotFound):
		return session.New(req.SessionID, req.UserAgent), nil
	default:
		return nil, err
	}
}

// storeFailure reports err and marks it as a store outage. Logging is left
// to the caller.
func (s *Service) storeFailure(ctx context.Context, sessionID string, err error) error {
	s.sentry.CaptureException(ctx, err, map[string]string{
		"session_id": sessionID,
		"backend":    string(s.store.Backend()),
	})
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
