package monitoring_test

import (
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/require"

	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/monitoring"
)

// eventRecorder keeps whatever survives the pre-send filter.
type eventRecorder struct {
	mu           sync.Mutex
	events       []*sentry.Event
	transactions []*sentry.Event
}

func (r *eventRecorder) Events() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.events...)
}

func (r *eventRecorder) Transactions() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.transactions...)
}

// newTestSentry builds an enabled handle that never leaves the process.
func newTestSentry(t *testing.T, environment string, mc *monitoring.MetricsCollector) (*monitoring.Sentry, *eventRecorder) {
	t.Helper()
	t.Setenv("SENTRY_DSN", "")

	rec := &eventRecorder{}
	cfg := config.MonitoringConfig{
		SentryDSN:   "https://public@sentry.example.com/1",
		Environment: environment,
		Release:     "test-release",
	}

	s, err := monitoring.NewSentry(cfg, monitoring.Nop(),
		monitoring.WithMetrics(mc),
		monitoring.WithClientOptions(func(o *sentry.ClientOptions) {
			// No DSN on the client means the SDK uses its no-op transport.
			o.Dsn = ""
			send, sendTx := o.BeforeSend, o.BeforeSendTransaction
			o.BeforeSend = func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
				out := send(event, hint)
				if out != nil {
					rec.mu.Lock()
					rec.events = append(rec.events, out)
					rec.mu.Unlock()
				}
				return out
			}
			o.BeforeSendTransaction = func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
				out := sendTx(event, hint)
				if out != nil {
					rec.mu.Lock()
					rec.transactions = append(rec.transactions, out)
					rec.mu.Unlock()
				}
				return out
			}
		}),
	)
	require.NoError(t, err)
	require.True(t, s.Enabled())
	return s, rec
}
