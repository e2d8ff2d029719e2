package monitoring

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// CaptureException sends err with correlation tags and returns the event ID.
// Tags go on a cloned hub, so concurrent captures never see each other's tags.
// Returns "" when Sentry is disabled or the event was dropped.
func (s *Sentry) CaptureException(ctx context.Context, err error, tags map[string]string) string {
	if err == nil {
		return ""
	}

	hub := s.hubFor(ctx).Clone()
	scope := hub.Scope()
	if requestID := requestIDFrom(ctx); requestID != "" {
		scope.SetTag("request_id", requestID)
	}
	for k, v := range tags {
		scope.SetTag(k, v)
	}

	id := hub.CaptureException(err)
	if id == nil {
		return ""
	}
	return string(*id)
}

// SetUserContext attaches an anonymous session identity to later events
// from ctx. Never pass a real user identifier here.
//
// Only a request-scoped hub (as bound by InstrumentEndpoint) is changed.
// Without one the call does nothing, so the shared base hub never carries
// one session's user into other requests.
func (s *Sentry) SetUserContext(ctx context.Context, sessionID, userAgent string) {
	hub := requestHub(ctx)
	if hub == nil || hub == s.hub {
		return
	}
	user := sentry.User{ID: sessionID}
	if userAgent != "" {
		user.Data = map[string]string{"user_agent": userAgent}
	}
	hub.Scope().SetUser(user)
}

// StartSpan starts a named, typed performance span. Inside a running
// transaction it becomes a child span, otherwise it starts a transaction.
// The caller must Finish it.
func (s *Sentry) StartSpan(ctx context.Context, name, op string) *sentry.Span {
	ctx = s.bindHub(ctx)
	if sentry.TransactionFromContext(ctx) != nil {
		return sentry.StartSpan(ctx, op, sentry.WithDescription(name))
	}
	return sentry.StartTransaction(ctx, name, sentry.WithOpName(op))
}

func requestHub(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return nil
	}
	return sentry.GetHubFromContext(ctx)
}

func requestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return RequestIDFromContext(ctx)
}
