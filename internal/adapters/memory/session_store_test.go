package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/perimap/internal/core/domain"
)

func newTestStore(ttl time.Duration) (*SessionStore, *time.Time) {
	now := time.Unix(1715003456, 0)
	s := NewSessionStore(ttl)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestSessionStore_CreateGet(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	ctx := context.Background()

	sess := domain.NewSession("s1", time.Now())
	sess.Markers.Add(domain.Coordinate{Lat: 1, Lng: 1})
	if err := s.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	sess.Markers.Clear()

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Markers.Len() != 1 {
		t.Errorf("store shares state with the caller's session")
	}
}

func TestSessionStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_UpdateErrorDiscardsChanges(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	ctx := context.Background()
	_ = s.Create(ctx, domain.NewSession("s1", time.Now()))

	_, err := s.Update(ctx, "s1", func(sess *domain.Session) error {
		sess.Markers.Add(domain.Coordinate{Lat: 1, Lng: 1})
		return domain.ErrTooManyMarkers
	})
	if !errors.Is(err, domain.ErrTooManyMarkers) {
		t.Fatalf("expected fn error, got %v", err)
	}
	got, _ := s.Get(ctx, "s1")
	if got.Markers.Len() != 0 {
		t.Errorf("failed update was saved")
	}
}

func TestSessionStore_ConcurrentUpdates(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	ctx := context.Background()
	_ = s.Create(ctx, domain.NewSession("s1", time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Update(ctx, "s1", func(sess *domain.Session) error {
				sess.Markers.Add(domain.Coordinate{Lat: float64(i % 90), Lng: 0})
				return nil
			})
		}(i)
	}
	wg.Wait()

	got, _ := s.Get(ctx, "s1")
	if got.Markers.Len() != 50 {
		t.Errorf("expected 50 markers, got %d", got.Markers.Len())
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	s, now := newTestStore(time.Minute)
	ctx := context.Background()
	_ = s.Create(ctx, domain.NewSession("s1", time.Now()))
	_ = s.Create(ctx, domain.NewSession("s2", time.Now()))

	*now = now.Add(45 * time.Second)
	if _, err := s.Get(ctx, "s1"); err != nil {
		t.Fatalf("s1 should still be alive: %v", err)
	}

	*now = now.Add(45 * time.Second)
	if _, err := s.Get(ctx, "s2"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("s2 should have expired, got %v", err)
	}
	if _, err := s.Get(ctx, "s1"); err != nil {
		t.Errorf("access should extend s1's TTL: %v", err)
	}

	if n := s.Sweep(); n != 1 {
		t.Errorf("expected 1 swept, got %d", n)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("expected 1 live session, got %d", n)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	ctx := context.Background()
	_ = s.Create(ctx, domain.NewSession("s1", time.Now()))

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestSessionStore_CountSkipsExpired(t *testing.T) {
	s, now := newTestStore(time.Minute)
	ctx := context.Background()

	s.Create(ctx, domain.NewSession("old", *now))
	*now = now.Add(45 * time.Second)
	s.Create(ctx, domain.NewSession("new", *now))
	*now = now.Add(30 * time.Second)

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 live session before the sweep, got %d", n)
	}
}
