package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/monitoring"
	"github.com/compresr/flightdesk/internal/session"
)

// failingStore fails every operation with err.
type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string) (*session.Session, error) { return nil, f.err }
func (f failingStore) Save(context.Context, *session.Session) error { return f.err }
func (f failingStore) Ping(context.Context) error { return f.err }
func (f failingStore) Backend() monitoring.Backend { return monitoring.BackendRedis }
func (f failingStore) Close() error { return nil }

type responderFunc func(ctx context.Context, sess *session.Session, message string) (string, error)

func (f responderFunc) Respond(ctx context.Context, sess *session.Session, message string) (string, error) {
	return f(ctx, sess, message)
}

func newService(t *testing.T, store session.Store, responder Responder) *Service {
	t.Helper()
	sentry, err := monitoring.NewSentry(config.MonitoringConfig{}, monitoring.Nop())
	require.NoError(t, err)
	return NewService(config.ChatConfig{MaxMessageLength: 2000}, store, responder, sentry, monitoring.Nop())
}

func memoryStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	s := session.NewMemoryStore(time.Hour, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestValidate(t *testing.T) {
	svc := newService(t, memoryStore(t), nil)

	tests := []struct {
		name    string
		message string
		wantErr error
	}{
		{"normal", "I want to fly from NYC to LAX", nil},
		{"empty", "", ErrEmptyMessage},
		{"whitespace", " \t\n", ErrEmptyMessage},
		{"at limit", strings.Repeat("a", 2000), nil},
		{"over limit", strings.Repeat("a", 2001), ErrMessageTooLong},
		{"multibyte at limit", strings.Repeat("é", 2000), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(tt.message)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewService_DefaultLimit(t *testing.T) {
	svc := NewService(config.ChatConfig{}, memoryStore(t), nil, nil, nil)
	assert.Equal(t, config.DefaultMaxMessageLength, svc.MaxMessageLength())
}

func TestHandleMessage_NewSession(t *testing.T) {
	store := memoryStore(t)
	svc := newService(t, store, nil)

	reply, err := svc.HandleMessage(context.Background(), Request{
		Message:   "I want to fly from NYC to LAX next week",
		UserAgent: "smoke/1.0",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Response)
	require.NotEmpty(t, reply.SessionID)

	sess, err := store.Get(context.Background(), reply.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.Turns, 1)
	assert.Equal(t, reply.Response, sess.Turns[0].Reply)
	assert.Equal(t, "smoke/1.0", sess.UserAgent)
}

func TestHandleMessage_ReusesSession(t *testing.T) {
	store := memoryStore(t)
	svc := newService(t, store, nil)
	ctx := context.Background()

	first, err := svc.HandleMessage(ctx, Request{Message: "Hello"})
	require.NoError(t, err)
	second, err := svc.HandleMessage(ctx, Request{Message: "JFK to SFO", SessionID: first.SessionID})
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	sess, err := store.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Turns, 2)
}

func TestHandleMessage_AdoptsUnknownSession(t *testing.T) {
	store := memoryStore(t)
	svc := newService(t, store, nil)

	reply, err := svc.HandleMessage(context.Background(), Request{Message: "Hello", SessionID: "client-chosen"})
	require.NoError(t, err)
	assert.Equal(t, "client-chosen", reply.SessionID)

	_, err = store.Get(context.Background(), "client-chosen")
	assert.NoError(t, err)
}

func TestHandleMessage_ValidationSkipsStore(t *testing.T) {
	svc := newService(t, failingStore{err: errors.New("unreachable")}, nil)

	_, err := svc.HandleMessage(context.Background(), Request{Message: ""})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestHandleMessage_StoreFailure(t *testing.T) {
	cause := monitoring.NewConnectivityError(monitoring.BackendRedis, errors.New("connection refused"))
	svc := newService(t, failingStore{err: cause}, nil)

	_, err := svc.HandleMessage(context.Background(), Request{Message: "Hi", SessionID: "abc"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.True(t, monitoring.IsConnectivityError(err, monitoring.BackendRedis))

	// New sessions only touch the store on save.
	_, err = svc.HandleMessage(context.Background(), Request{Message: "Hi"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestHandleMessage_ResponderFailure(t *testing.T) {
	store := memoryStore(t)
	svc := newService(t, store, responderFunc(func(context.Context, *session.Session, string) (string, error) {
		return "", errors.New("agent timed out")
	}))

	_, err := svc.HandleMessage(context.Background(), Request{Message: "Hi", SessionID: "abc"})
	assert.ErrorIs(t, err, ErrResponder)

	_, err = store.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestHandleMessage_ResponderSeesHistory(t *testing.T) {
	var seen []int
	svc := newService(t, memoryStore(t), responderFunc(func(_ context.Context, sess *session.Session, _ string) (string, error) {
		seen = append(seen, len(sess.Turns))
		return "ok", nil
	}))
	ctx := context.Background()

	first, err := svc.HandleMessage(ctx, Request{Message: "one"})
	require.NoError(t, err)
	_, err = svc.HandleMessage(ctx, Request{Message: "two", SessionID: first.SessionID})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, seen)
}

func TestFlightResponder(t *testing.T) {
	ctx := context.Background()
	fresh := session.New("s", "")

	reply, err := FlightResponder{}.Respond(ctx, fresh, "I want to fly from JFK to LAX")
	require.NoError(t, err)
	assert.Contains(t, reply, "JFK")
	assert.Contains(t, reply, "LAX")

	reply, err = FlightResponder{}.Respond(ctx, fresh, "leaving from SFO")
	require.NoError(t, err)
	assert.Contains(t, reply, "SFO")

	reply, err = FlightResponder{}.Respond(ctx, fresh, "I want to fly somewhere warm")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = FlightResponder{}.Respond(cancelled, fresh, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}
