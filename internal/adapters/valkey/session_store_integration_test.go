//go:build integration
// +build integration

package valkey_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/perimap/internal/adapters/valkey"
	"github.com/samirrijal/perimap/internal/core/domain"
	"github.com/samirrijal/perimap/internal/pkg/config"
)

func setupStore(t *testing.T) (*valkey.Cache, *valkey.SessionStore) {
	cfg, err := config.Load("perimap-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Valkey.Addr == "" {
		t.Skip("valkey address not configured")
	}
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		t.Skipf("valkey unavailable: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		cache.Close()
		t.Skipf("valkey unavailable: %v", err)
	}
	t.Cleanup(cache.Close)
	return cache, valkey.NewSessionStore(cache, time.Minute)
}

func newStoredSession(t *testing.T, store *valkey.SessionStore) *domain.Session {
	sess := domain.NewSession(uuid.NewString(), time.Now().UTC())
	if err := store.Create(context.Background(), sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _ = store.Delete(context.Background(), sess.ID) })
	return sess
}

func TestSessionStore_UpdateNotFound(t *testing.T) {
	_, store := setupStore(t)

	called := false
	_, err := store.Update(context.Background(), "missing-"+uuid.NewString(), func(*domain.Session) error {
		called = true
		return nil
	})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if called {
		t.Error("update func must not run for a missing session")
	}
}

func TestSessionStore_UpdateErrorSavesNothing(t *testing.T) {
	_, store := setupStore(t)
	sess := newStoredSession(t, store)
	ctx := context.Background()

	_, err := store.Update(ctx, sess.ID, func(s *domain.Session) error {
		s.Markers.Add(domain.Coordinate{Lat: 1, Lng: 1})
		return domain.ErrTooManyMarkers
	})
	if !errors.Is(err, domain.ErrTooManyMarkers) {
		t.Fatalf("expected ErrTooManyMarkers, got %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Markers.Len() != 0 {
		t.Errorf("expected nothing saved, got %d markers", got.Markers.Len())
	}

	// The connection must be usable again after UNWATCH.
	if _, err := store.Update(ctx, sess.ID, func(s *domain.Session) error {
		s.Markers.Add(domain.Coordinate{Lat: 2, Lng: 2})
		return nil
	}); err != nil {
		t.Fatalf("follow-up update: %v", err)
	}
}

func TestSessionStore_UpdateRetriesAfterConcurrentWrite(t *testing.T) {
	cache, store := setupStore(t)
	sess := newStoredSession(t, store)
	ctx := context.Background()

	concurrent := sess.Clone()
	concurrent.Markers.Add(domain.Coordinate{Lat: 5, Lng: 5})
	data, err := concurrent.MarshalJSON()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	attempts := 0
	out, err := store.Update(ctx, sess.ID, func(s *domain.Session) error {
		attempts++
		if attempts == 1 {
			// Another writer lands between WATCH and EXEC.
			if err := cache.Set(ctx, "perimap:session:"+sess.ID, data, time.Minute); err != nil {
				t.Fatalf("concurrent write: %v", err)
			}
		}
		s.Markers.Add(domain.Coordinate{Lat: 6, Lng: 6})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected one retry, got %d attempts", attempts)
	}

	want := []domain.Coordinate{{Lat: 5, Lng: 5}, {Lat: 6, Lng: 6}}
	got := out.Markers.List()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("marker %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSessionStore_Count(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	before, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	newStoredSession(t, store)
	after, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if after < before+1 {
		t.Errorf("expected count to grow, got %d -> %d", before, after)
	}
}
