package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/monitoring"
)

const keyPrefix = "session:"

// RedisStore keeps sessions as JSON strings under session:<id>.
// Reads slide the TTL so active conversations don't expire mid-flight.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *monitoring.MetricsCollector
}

// NewRedisStore parses cfg.URL and builds a client. No connection is made
// until the first command; readiness checks call Ping.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration, hook redis.Hook, metrics *monitoring.MetricsCollector) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)
	if hook != nil {
		client.AddHook(hook)
	}
	return &RedisStore{client: client, ttl: ttl, metrics: metrics}, nil
}

func key(id string) string { return keyPrefix + id }

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	var get *redis.StringCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, key(id))
		pipe.Expire(ctx, key(id), s.ttl)
		return nil
	})

	raw, getErr := get.Bytes()
	if errors.Is(getErr, redis.Nil) {
		s.metrics.RecordStoreOp(monitoring.BackendRedis, "get", nil)
		return nil, ErrSessionNotFound
	}
	if getErr == nil && err != nil && !errors.Is(err, redis.Nil) {
		getErr = err
	}
	s.metrics.RecordStoreOp(monitoring.BackendRedis, "get", getErr)
	if getErr != nil {
		return nil, fmt.Errorf("load session %s: %w", id, getErr)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}

	err = s.client.Set(ctx, key(sess.ID), raw, s.ttl).Err()
	s.metrics.RecordStoreOp(monitoring.BackendRedis, "save", err)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	err := s.client.Ping(ctx).Err()
	s.metrics.RecordStoreOp(monitoring.BackendRedis, "ping", err)
	return err
}

// Backend implements Store.
func (s *RedisStore) Backend() monitoring.Backend { return monitoring.BackendRedis }

// Close implements Store.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
