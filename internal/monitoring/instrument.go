// Package monitoring - instrument.go tracks inbound HTTP requests.
//
// DESIGN: Each route is wrapped with its logical endpoint name, so
// transactions group by endpoint ("chat.message") instead of raw URLs.
// Only 5xx responses become error events; 4xx are client mistakes.
package monitoring

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
)

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush implements http.Flusher when the underlying writer does.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// IsFailedStatus reports whether status is reported to Sentry as an error.
func IsFailedStatus(status int) bool {
	return status >= 500 && status <= 599
}

// InstrumentEndpoint wraps next with a request-scoped hub and a transaction
// named after the endpoint. Panics are reported and re-raised.
func (s *Sentry) InstrumentEndpoint(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := s.hub.Clone()
		hub.Scope().SetRequest(r)
		hub.Scope().SetTag("endpoint", endpoint)
		if requestID := RequestIDFromContext(r.Context()); requestID != "" {
			hub.Scope().SetTag("request_id", requestID)
		}
		ctx := sentry.SetHubOnContext(r.Context(), hub)

		tx := sentry.StartTransaction(ctx, endpoint,
			sentry.WithOpName("http.server"),
			sentry.WithTransactionSource(sentry.SourceRoute),
			sentry.ContinueFromRequest(r),
		)
		defer tx.Finish()

		defer func() {
			if err := recover(); err != nil {
				tx.Status = sentry.SpanStatusInternalError
				hub.RecoverWithContext(ctx, err)
				panic(err)
			}
		}()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(tx.Context()))

		tx.Status = spanStatus(sw.status)
		tx.SetData("http.response.status_code", sw.status)

		if IsFailedStatus(sw.status) {
			hub.Scope().SetTag("http.status_code", strconv.Itoa(sw.status))
			hub.Scope().SetLevel(sentry.LevelError)
			hub.CaptureMessage(fmt.Sprintf("%s %s responded %d", r.Method, endpoint, sw.status))
		}
	})
}

// spanStatus maps an HTTP status code to a span status.
func spanStatus(code int) sentry.SpanStatus {
	switch {
	case code < 400:
		return sentry.SpanStatusOK
	case code == http.StatusUnauthorized:
		return sentry.SpanStatusUnauthenticated
	case code == http.StatusForbidden:
		return sentry.SpanStatusPermissionDenied
	case code == http.StatusNotFound:
		return sentry.SpanStatusNotFound
	case code == http.StatusTooManyRequests:
		return sentry.SpanStatusResourceExhausted
	case code < 500:
		return sentry.SpanStatusInvalidArgument
	case code == http.StatusNotImplemented:
		return sentry.SpanStatusUnimplemented
	case code == http.StatusServiceUnavailable:
		return sentry.SpanStatusUnavailable
	case code == http.StatusGatewayTimeout:
		return sentry.SpanStatusDeadlineExceeded
	default:
		return sentry.SpanStatusInternalError
	}
}
