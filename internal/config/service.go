// Service configuration - session store, chat limits and smoke defaults.
package config

import (
	"fmt"
	"time"
)

// Store types.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Defaults for values that are rarely changed.
const (
	DefaultMaxMessageLength = 2000
	DefaultSmokeBaseURL     = "http://localhost:8000"
	DefaultSmokeTimeout     = 10 * time.Second
)

// StoreConfig contains session store settings.
type StoreConfig struct {
	Type  string        `yaml:"type"`  // memory or redis
	TTL   time.Duration `yaml:"ttl"`   // Session time-to-live
	Redis RedisConfig   `yaml:"redis"` // Used when type is redis
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	URL         string        `yaml:"url"`          // redis://[:password@]host:port/db
	DialTimeout time.Duration `yaml:"dial_timeout"` // Connection timeout
}

// Validate checks the store block.
func (s *StoreConfig) Validate() error {
	if s.Type == "" {
		return fmt.Errorf("store.type is required")
	}
	if s.TTL == 0 {
		return fmt.Errorf("store.ttl is required")
	}
	switch s.Type {
	case StoreMemory:
	case StoreRedis:
		if s.Redis.URL == "" {
			return fmt.Errorf("store.redis.url is required when store.type is redis")
		}
	default:
		return fmt.Errorf("invalid store.type: %q (must be memory or redis)", s.Type)
	}
	return nil
}

// ChatConfig contains chat endpoint limits.
type ChatConfig struct {
	MaxMessageLength int `yaml:"max_message_length"` // Longer messages are rejected with 422
}

// Validate checks the chat block.
func (c *ChatConfig) Validate() error {
	if c.MaxMessageLength < 1 {
		return fmt.Errorf("invalid chat.max_message_length: %d", c.MaxMessageLength)
	}
	return nil
}

// SmokeConfig contains defaults for the smoke command.
type SmokeConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Schedule string        `yaml:"schedule"` // Cron spec; empty runs once
}
