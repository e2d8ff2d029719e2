package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/flightdesk/internal/monitoring"
)

func newHookedClient(t *testing.T, addr string, s *monitoring.Sentry) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	client.AddHook(s.RedisHook())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisHook_PassesCommandsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	s, _ := newTestSentry(t, "development", nil)
	client := newHookedClient(t, mr.Addr(), s)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "session:abc", "payload", time.Minute).Err())
	got, err := client.Get(ctx, "session:abc").Result()
	require.NoError(t, err)
	assert.Equal(t, "payload", got)

	_, err = client.Get(ctx, "session:missing").Result()
	assert.ErrorIs(t, err, redis.Nil)
	assert.False(t, monitoring.IsConnectivityError(err, monitoring.BackendRedis))
}

func TestRedisHook_WrapsDialFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	s, _ := newTestSentry(t, "development", nil)
	client := newHookedClient(t, addr, s)

	err := client.Ping(context.Background()).Err()
	require.Error(t, err)
	assert.True(t, monitoring.IsConnectivityError(err, monitoring.BackendRedis), "got %T: %v", err, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestRedisHook_ConnectivityErrorsDroppedOutsideProduction(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	dev, devRec := newTestSentry(t, "development", nil)
	err := newHookedClient(t, addr, dev).Get(context.Background(), "k").Err()
	require.Error(t, err)
	dev.CaptureException(context.Background(), err, nil)
	assert.Empty(t, devRec.Events())

	prod, prodRec := newTestSentry(t, "production", nil)
	err = newHookedClient(t, addr, prod).Get(context.Background(), "k").Err()
	require.Error(t, err)
	prod.CaptureException(context.Background(), err, nil)
	assert.Len(t, prodRec.Events(), 1)
}

func TestRedisHook_SpansInsideTransaction(t *testing.T) {
	mr := miniredis.RunT(t)
	s, rec := newTestSentry(t, "development", nil)
	client := newHookedClient(t, mr.Addr(), s)

	tx := s.StartSpan(context.Background(), "chat.message", "http.server")
	ctx := tx.Context()
	require.NoError(t, client.Set(ctx, "a", "1", 0).Err())

	pipe := client.Pipeline()
	pipe.Get(ctx, "a")
	pipe.Expire(ctx, "a", time.Minute)
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)
	tx.Finish()

	transactions := rec.Transactions()
	require.Len(t, transactions, 1)

	var ops, descriptions []string
	for _, span := range transactions[0].Spans {
		ops = append(ops, span.Op)
		descriptions = append(descriptions, span.Description)
	}
	assert.Contains(t, ops, "db.redis")
	assert.Contains(t, descriptions, "set")
	assert.Contains(t, descriptions, "pipeline get expire")
}

func TestRedisHook_BreadcrumbsOnLaterEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	s, rec := newTestSentry(t, "development", nil)
	client := newHookedClient(t, mr.Addr(), s)

	require.NoError(t, client.Set(context.Background(), "a", "1", 0).Err())
	s.CaptureException(context.Background(), errors.New("later failure"), nil)

	events := rec.Events()
	require.Len(t, events, 1)

	var found bool
	for _, crumb := range events[0].Breadcrumbs {
		if crumb.Category == "redis" && crumb.Message == "set" {
			found = true
		}
	}
	assert.True(t, found, "expected a redis breadcrumb")
}
