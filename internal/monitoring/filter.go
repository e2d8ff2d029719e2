// Package monitoring - filter.go decides what leaves the process.
//
// DESIGN: EventFilter runs as the Sentry BeforeSend hook:
//  1. Drop Redis connectivity errors outside production (dev noise)
//  2. Replace sensitive request headers with FilteredValue
//  3. Replace the whole request body with FilteredValue
//
// The filter only reads its arguments and the environment fixed at
// construction. A panic inside the filter is recovered and the event is
// passed on as-is from that point.
package monitoring

import (
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/compresr/flightdesk/internal/config"
)

// FilteredValue replaces redacted header values and request bodies.
const FilteredValue = "[Filtered]"

// sensitiveHeaders are matched against lowercased header names.
var sensitiveHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"x-api-key":     {},
}

// EventFilter drops noisy events and scrubs request data.
type EventFilter struct {
	dropRedisErrors bool
}

// NewEventFilter creates a filter for the given deployment environment.
func NewEventFilter(environment string) *EventFilter {
	return &EventFilter{dropRedisErrors: environment != config.EnvProduction}
}

// Apply returns the event to send, or nil to drop it.
func (f *EventFilter) Apply(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	out, _ := f.Decide(event, hint)
	return out
}

// Decide is Apply plus the decision taken, for metrics.
func (f *EventFilter) Decide(event *sentry.Event, hint *sentry.EventHint) (out *sentry.Event, decision FilterDecision) {
	defer func() {
		if recover() != nil {
			out, decision = event, DecisionPassed
		}
	}()

	if event == nil {
		return nil, DecisionDropped
	}

	if f.dropRedisErrors && isRedisConnectivityError(hintError(hint)) {
		return nil, DecisionDropped
	}

	if scrubRequest(event.Request) {
		return event, DecisionScrubbed
	}
	return event, DecisionPassed
}

// hintError extracts the captured error from the hint, if any.
func hintError(hint *sentry.EventHint) error {
	if hint == nil {
		return nil
	}
	if hint.OriginalException != nil {
		return hint.OriginalException
	}
	if err, ok := hint.RecoveredException.(error); ok {
		return err
	}
	return nil
}

func isRedisConnectivityError(err error) bool {
	if err == nil || !IsConnectivityError(err, BackendRedis) {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "redis")
}

// scrubRequest redacts headers and body in place. Reports whether the
// request carried anything to redact.
func scrubRequest(req *sentry.Request) bool {
	if req == nil {
		return false
	}

	scrubbed := false
	for name := range req.Headers {
		if _, ok := sensitiveHeaders[strings.ToLower(name)]; ok {
			req.Headers[name] = FilteredValue
			scrubbed = true
		}
	}

	if req.Data != "" {
		req.Data = FilteredValue
		scrubbed = true
	}
	return scrubbed
}
