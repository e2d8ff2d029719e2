package session

import (
	"context"
	"sync"
	"time"

	"github.com/compresr/flightdesk/internal/monitoring"
)

const memoryCleanupInterval = 5 * time.Minute

// MemoryStore is an in-process Store with per-session TTL.
type MemoryStore struct {
	sessions map[string]entry
	mu       sync.RWMutex
	ttl      time.Duration
	metrics  *monitoring.MetricsCollector
	stopChan chan struct{}
	stopped  bool
}

type entry struct {
	session   *Session
	expiresAt time.Time
}

// NewMemoryStore creates a store and starts its cleanup goroutine.
func NewMemoryStore(ttl time.Duration, metrics *monitoring.MetricsCollector) *MemoryStore {
	return newMemoryStore(ttl, memoryCleanupInterval, metrics)
}

func newMemoryStore(ttl, cleanupEvery time.Duration, metrics *monitoring.MetricsCollector) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		metrics:  metrics,
		stopChan: make(chan struct{}),
	}
	go s.cleanup(cleanupEvery)
	return s
}

// Get returns a copy of the session if it exists and hasn't expired.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return nil, ErrStoreClosed
	}
	s.metrics.RecordStoreOp(monitoring.BackendMemory, "get", nil)

	e, ok := s.sessions[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, ErrSessionNotFound
	}
	return e.session.clone(), nil
}

// Save stores a copy of sess and restarts its TTL.
func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStoreClosed
	}
	s.metrics.RecordStoreOp(monitoring.BackendMemory, "save", nil)

	s.sessions[sess.ID] = entry{
		session:   sess.clone(),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Ping fails only after Close.
func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return ErrStoreClosed
	}
	return nil
}

// Backend implements Store.
func (s *MemoryStore) Backend() monitoring.Backend { return monitoring.BackendMemory }

// Len returns the number of stored sessions, expired ones included until the
// next cleanup.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup goroutine and clears data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		s.stopped = true
		close(s.stopChan)
		s.sessions = nil
	}
	return nil
}

func (s *MemoryStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.stopped {
				now := time.Now()
				for id, e := range s.sessions {
					if now.After(e.expiresAt) {
						delete(s.sessions, id)
					}
				}
			}
			s.mu.Unlock()
		}
	}
}

var _ Store = (*MemoryStore)(nil)
