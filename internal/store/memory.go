package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-quicklook/internal/session"
)

var (
	// ErrNotFound is returned when no session exists for an id.
	ErrNotFound = errors.New("session not found")
)

type entry struct {
	controller *session.Controller
	lastSeen   time.Time
}

// MemoryStore is a concurrency-safe in-memory registry of sessions.
type MemoryStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]*entry

	// retention configuration
	maxSessions int           // oldest idle session is evicted beyond this
	maxAge      time.Duration // sessions idle longer are pruned

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// Non-positive limits are treated as unlimited.
func NewMemoryStore(maxSessions int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:        make(map[string]*entry),
		maxSessions: maxSessions,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// Create registers a controller under a fresh id and enforces retention.
func (s *MemoryStore) Create(c *session.Controller) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	if s.maxSessions > 0 && len(s.data) >= s.maxSessions {
		s.evictOldestLocked()
	}
	s.data[id] = &entry{controller: c, lastSeen: s.now()}
	return id
}

// Get returns the session and marks it as seen.
func (s *MemoryStore) Get(id string) (*session.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[id]
	if !ok || s.expiredLocked(e) {
		return nil, ErrNotFound
	}
	e.lastSeen = s.now()
	return e.controller, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// All returns every live session keyed by id.
func (s *MemoryStore) All() map[string]*session.Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*session.Controller, len(s.data))
	for id, e := range s.data {
		if !s.expiredLocked(e) {
			out[id] = e.controller
		}
	}
	return out
}

// Prune drops expired sessions and reports how many were removed.
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked()
}

// Len returns the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expiredLocked(e *entry) bool {
	return s.maxAge > 0 && s.now().Sub(e.lastSeen) > s.maxAge
}

func (s *MemoryStore) pruneLocked() int {
	pruned := 0
	for id, e := range s.data {
		if s.expiredLocked(e) {
			delete(s.data, id)
			pruned++
		}
	}
	return pruned
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range s.data {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	if oldestID != "" {
		delete(s.data, oldestID)
	}
}
