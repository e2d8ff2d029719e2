// Package monitoring - redis.go instruments the session store client.
//
// DESIGN: A go-redis hook that
//   - wraps dial and network failures in ConnectivityError{BackendRedis}
//   - leaves a breadcrumb per command
//   - opens a child span per command when a transaction is running
package monitoring

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
)

// redisHook implements redis.Hook.
type redisHook struct {
	s *Sentry
}

// RedisHook returns a hook for redis.Client.AddHook.
func (s *Sentry) RedisHook() redis.Hook {
	return &redisHook{s: s}
}

func (h *redisHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			return nil, NewConnectivityError(BackendRedis, err)
		}
		return conn, nil
	}
}

func (h *redisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		span := h.startSpan(ctx, cmd.Name())
		h.breadcrumb(ctx, cmd.Name(), 1)

		err := next(ctx, cmd)
		if wrapped, ok := wrapRedisError(err); ok {
			cmd.SetErr(wrapped)
			err = wrapped
		}

		finishSpan(span, err)
		return err
	}
}

func (h *redisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
		}
		description := "pipeline " + strings.Join(names, " ")

		span := h.startSpan(ctx, description)
		h.breadcrumb(ctx, description, len(cmds))

		err := next(ctx, cmds)
		if wrapped, ok := wrapRedisError(err); ok {
			for _, cmd := range cmds {
				if cmdErr, ok := wrapRedisError(cmd.Err()); ok {
					cmd.SetErr(cmdErr)
				}
			}
			err = wrapped
		}

		finishSpan(span, err)
		return err
	}
}

// startSpan opens a db.redis child span, only inside a transaction.
func (h *redisHook) startSpan(ctx context.Context, description string) *sentry.Span {
	if !h.s.enabled || sentry.TransactionFromContext(ctx) == nil {
		return nil
	}
	span := sentry.StartSpan(ctx, "db.redis", sentry.WithDescription(description))
	span.SetData("db.system", "redis")
	return span
}

func (h *redisHook) breadcrumb(ctx context.Context, message string, commands int) {
	if !h.s.enabled {
		return
	}
	h.s.hubFor(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Type:     "default",
		Category: "redis",
		Message:  message,
		Level:    sentry.LevelInfo,
		Data:     map[string]interface{}{"commands": commands},
	}, nil)
}

func finishSpan(span *sentry.Span, err error) {
	if span == nil {
		return
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		span.Status = sentry.SpanStatusInternalError
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Finish()
}

// wrapRedisError tags network failures as Redis connectivity errors and
// reports whether it did. redis.Nil and server replies are left alone.
func wrapRedisError(err error) (error, bool) {
	if err == nil || errors.Is(err, redis.Nil) {
		return err, false
	}
	var ce *ConnectivityError
	if errors.As(err, &ce) {
		return err, false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewConnectivityError(BackendRedis, err), true
	}
	return err, false
}
