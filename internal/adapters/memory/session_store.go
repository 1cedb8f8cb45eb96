package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/perimap/internal/core/domain"
	"github.com/samirrijal/perimap/internal/pkg/metrics"
)

const storeName = "memory"

type entry struct {
	session   *domain.Session
	expiresAt time.Time
}

// SessionStore implements ports.SessionStore in process. Every access
// extends the session's TTL; expired sessions are dropped by Sweep.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty store whose sessions live for ttl after last use.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	metrics.SessionStoreOps.WithLabelValues(storeName, "create").Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = &entry{session: sess.Clone(), expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	metrics.SessionStoreOps.WithLabelValues(storeName, "get").Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.session.Clone(), nil
}

// Update runs fn under the store lock on a copy of the session, so
// mutations of one session never interleave.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(sess *domain.Session) error) (*domain.Session, error) {
	metrics.SessionStoreOps.WithLabelValues(storeName, "update").Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	next := e.session.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	e.session = next
	return next.Clone(), nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	metrics.SessionStoreOps.WithLabelValues(storeName, "delete").Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(id); err != nil {
		return err
	}
	delete(s.sessions, id)
	return nil
}

// Count reports live sessions. Expired entries awaiting the sweeper are
// not counted.
func (s *SessionStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, e := range s.sessions {
		if !now.After(e.expiresAt) {
			n++
		}
	}
	return n, nil
}

// lookup returns a live entry and pushes its expiry out. Caller holds mu.
func (s *SessionStore) lookup(id string) (*entry, error) {
	e, ok := s.sessions[id]
	now := s.now()
	if !ok || now.After(e.expiresAt) {
		metrics.CacheMisses.WithLabelValues(storeName).Inc()
		return nil, domain.ErrSessionNotFound
	}
	e.expiresAt = now.Add(s.ttl)
	return e, nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
