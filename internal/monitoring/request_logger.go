// Package monitoring - request_logger.go writes the per-request access log.
//
// Every request produces one "request" line at INFO when it completes. The
// arrival is also logged at DEBUG so slow or hung requests can be traced.
package monitoring

import (
	"net/http"
	"time"
)

// RequestLogger writes access log lines.
type RequestLogger struct {
	logger *Logger
}

// NewRequestLogger creates a request logger. A nil logger discards.
func NewRequestLogger(logger *Logger) *RequestLogger {
	if logger == nil {
		logger = Nop()
	}
	return &RequestLogger{logger: logger}
}

// RequestRecord tracks one in-flight request until Finish.
type RequestRecord struct {
	rl        *RequestLogger
	id        string
	method    string
	path      string
	clientIP  string
	userAgent string
	bodySize  int64
	start     time.Time
}

// Start logs the arrival of r and returns its record. clientIP is passed in
// because only the caller knows which proxy headers to trust.
func (rl *RequestLogger) Start(r *http.Request, requestID, clientIP string) *RequestRecord {
	rec := &RequestRecord{
		rl:        rl,
		id:        requestID,
		method:    r.Method,
		path:      r.URL.Path,
		clientIP:  clientIP,
		userAgent: r.UserAgent(),
		bodySize:  max(r.ContentLength, 0),
		start:     time.Now(),
	}
	rl.logger.Debug().
		Str("id", rec.id).
		Str("method", rec.method).
		Str("path", rec.path).
		Int64("body_size", rec.bodySize).
		Msg("incoming")
	return rec
}

// Finish writes the access log line and returns the request latency.
func (rec *RequestRecord) Finish(status int) time.Duration {
	latency := time.Since(rec.start)
	rec.rl.logger.Info().
		Str("id", rec.id).
		Str("method", rec.method).
		Str("path", rec.path).
		Int("status", status).
		Dur("duration", latency).
		Str("client_ip", rec.clientIP).
		Str("user_agent", rec.userAgent).
		Msg("request")
	return latency
}
