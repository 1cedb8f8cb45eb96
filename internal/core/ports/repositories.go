package ports

import (
	"context"

	"github.com/samirrijal/perimap/internal/core/domain"
)

// SessionStore keeps map sessions for as long as their TTL allows.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	// Get returns a copy of the session or domain.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Update loads the session, applies fn and saves the result. When fn
	// returns an error nothing is saved.
	Update(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)
}
