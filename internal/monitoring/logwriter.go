// Package monitoring - logwriter.go bridges zerolog records into Sentry.
//
// DESIGN: A zerolog.LevelWriter teed next to the normal log output:
//   - info and warn records become breadcrumbs (context for later events)
//   - error, fatal and panic records become Sentry events
//
// Records are JSON lines; fields are pulled out with gjson so the bridge
// never re-decodes into maps it does not need.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Levels at which the bridge starts keeping records.
const (
	BreadcrumbLevel = zerolog.InfoLevel
	EventLevel      = zerolog.ErrorLevel
)

const fatalFlushTimeout = 2 * time.Second

// logWriter implements zerolog.LevelWriter.
type logWriter struct {
	s *Sentry
}

// LogWriter returns the Sentry side of the log bridge. Tee it into the
// application logger with Logger.WithWriter.
func (s *Sentry) LogWriter() zerolog.LevelWriter {
	return &logWriter{s: s}
}

// Write handles records without a level; they are ignored.
func (w *logWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

// WriteLevel turns a record into a breadcrumb or an event.
func (w *logWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if !w.s.enabled || level < BreadcrumbLevel || level > zerolog.PanicLevel {
		return len(p), nil
	}

	record := gjson.ParseBytes(p)
	message := record.Get(zerolog.MessageFieldName).String()
	data := make(map[string]interface{})
	record.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case zerolog.MessageFieldName, zerolog.LevelFieldName, zerolog.TimestampFieldName:
		default:
			data[key.String()] = value.Value()
		}
		return true
	})

	if level < EventLevel {
		w.s.hub.AddBreadcrumb(&sentry.Breadcrumb{
			Type:      "default",
			Category:  "log",
			Message:   message,
			Level:     sentryLevel(level),
			Data:      data,
			Timestamp: time.Now(),
		}, nil)
		return len(p), nil
	}

	event := sentry.NewEvent()
	event.Level = sentryLevel(level)
	event.Message = message
	event.Logger = "zerolog"
	event.Extra = data
	w.s.hub.CaptureEvent(event)

	if level >= zerolog.FatalLevel {
		w.s.hub.Flush(fatalFlushTimeout)
	}
	return len(p), nil
}

func sentryLevel(level zerolog.Level) sentry.Level {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return sentry.LevelDebug
	case zerolog.InfoLevel:
		return sentry.LevelInfo
	case zerolog.WarnLevel:
		return sentry.LevelWarning
	case zerolog.ErrorLevel:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}
