package ports

import (
	"context"

	"github.com/samirrijal/perimap/internal/core/domain"
)

// EventPublisher publishes session events to a message broker.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event *domain.SessionEvent) error
}

// EventSubscriber delivers interaction events sent by map clients over the broker.
type EventSubscriber interface {
	SubscribeInteractions(ctx context.Context, handler func(ctx context.Context, in *domain.Interaction) error) error
}

// ContainmentChecker answers the containment predicate for a batch of
// points. The result is index-aligned with pts.
type ContainmentChecker interface {
	Name() string
	Contains(ctx context.Context, p domain.Perimeter, pts []domain.Coordinate) ([]bool, error)
}
