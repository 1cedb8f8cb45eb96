package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/perimap/internal/core/domain"
	"github.com/samirrijal/perimap/internal/core/ports"
	"github.com/samirrijal/perimap/internal/pkg/geospatial"
	"github.com/samirrijal/perimap/internal/pkg/logging"
	"github.com/samirrijal/perimap/internal/pkg/metrics"
	"github.com/samirrijal/perimap/internal/pkg/telemetry"
)

type originKey struct{}

// SessionService validates map interactions, applies them to a session and
// derives marker visibility.
type SessionService struct {
	store      ports.SessionStore
	checker    ports.ContainmentChecker
	publisher  ports.EventPublisher
	maxMarkers int
	tracer     trace.Tracer
	now        func() time.Time
}

// NewSessionService creates a new SessionService. checker and publisher may
// be nil; visibility is then computed in process and no events are sent.
// maxMarkers <= 0 disables the per-session marker limit.
func NewSessionService(
	store ports.SessionStore,
	checker ports.ContainmentChecker,
	publisher ports.EventPublisher,
	maxMarkers int,
) *SessionService {
	return &SessionService{
		store:      store,
		checker:    checker,
		publisher:  publisher,
		maxMarkers: maxMarkers,
		tracer:     telemetry.Tracer("perimap/usecases"),
		now:        time.Now,
	}
}

// Create starts an empty session.
func (s *SessionService) Create(ctx context.Context) (*domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Create")
	defer span.End()

	sess := domain.NewSession(uuid.NewString(), s.now().UTC())
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, spanErr(span, fmt.Errorf("create session: %w", err))
	}
	span.SetAttributes(telemetry.AttrSessionID.String(sess.ID))
	s.refreshActive(ctx)
	logging.FromContext(ctx).Debug("session created", "session_id", sess.ID)
	return sess, nil
}

// Get returns the session.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.Get(ctx, id)
}

// Delete ends the session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.Delete")
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id))

	if err := s.store.Delete(ctx, id); err != nil {
		return spanErr(span, err)
	}
	s.refreshActive(ctx)
	s.publish(ctx, &domain.SessionEvent{
		SessionID: id,
		Type:      domain.EventSessionDeleted,
		Perimeter: domain.EncodePerimeter(nil),
		Time:      s.now().Unix(),
	})
	return nil
}

// View returns the session's markers with their derived visibility.
func (s *SessionService) View(ctx context.Context, id string) (*domain.View, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.View")
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id))

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return s.view(ctx, sess), nil
}

// PlaceMarker adds a marker at c.
func (s *SessionService) PlaceMarker(ctx context.Context, id string, c domain.Coordinate) (*domain.View, error) {
	if err := c.Valid(); err != nil {
		return nil, err
	}
	v, err := s.mutate(ctx, "SessionService.PlaceMarker", id, func(sess *domain.Session) (*domain.SessionEvent, error) {
		if s.maxMarkers > 0 && sess.Markers.Len() >= s.maxMarkers {
			return nil, fmt.Errorf("%w: at most %d markers per session", domain.ErrTooManyMarkers, s.maxMarkers)
		}
		sess.Markers.Add(c)
		marker := c
		return &domain.SessionEvent{Type: domain.EventMarkerAdded, Marker: &marker}, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.MarkersPlaced.Inc()
	return v, nil
}

// RemoveMarker removes every marker equal to c and reports how many went.
// Removing a coordinate that is not present is a no-op.
func (s *SessionService) RemoveMarker(ctx context.Context, id string, c domain.Coordinate) (*domain.View, int, error) {
	var removed int
	v, err := s.mutate(ctx, "SessionService.RemoveMarker", id, func(sess *domain.Session) (*domain.SessionEvent, error) {
		removed = sess.Markers.RemoveAll(c)
		marker := c
		return &domain.SessionEvent{Type: domain.EventMarkersRemoved, Marker: &marker, Removed: removed}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	metrics.MarkersRemoved.Add(float64(removed))
	return v, removed, nil
}

// ClearMarkers removes all markers.
func (s *SessionService) ClearMarkers(ctx context.Context, id string) (*domain.View, error) {
	return s.mutate(ctx, "SessionService.ClearMarkers", id, func(sess *domain.Session) (*domain.SessionEvent, error) {
		n := sess.Markers.Len()
		sess.Markers.Clear()
		return &domain.SessionEvent{Type: domain.EventMarkersCleared, Removed: n}, nil
	})
}

// SetPolygon replaces the perimeter with a polygon. Fewer than 3 vertices
// is rejected and leaves the current perimeter untouched.
func (s *SessionService) SetPolygon(ctx context.Context, id string, vertices []domain.Coordinate) (*domain.View, error) {
	if len(vertices) < geospatial.MinRingVertices {
		return nil, fmt.Errorf("%w: got %d", domain.ErrDegeneratePolygon, len(vertices))
	}
	for i, v := range vertices {
		if err := v.Valid(); err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
	}
	v, err := s.mutate(ctx, "SessionService.SetPolygon", id, func(sess *domain.Session) (*domain.SessionEvent, error) {
		sess.Perimeter.SetPolygon(vertices)
		return &domain.SessionEvent{Type: domain.EventPerimeterSet}, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.PerimetersSet.WithLabelValues(string(domain.PerimeterPolygon)).Inc()
	return v, nil
}

// SetCircle replaces the perimeter with a circle of radius meters.
func (s *SessionService) SetCircle(ctx context.Context, id string, center domain.Coordinate, radius float64) (*domain.View, error) {
	if err := center.Valid(); err != nil {
		return nil, fmt.Errorf("center: %w", err)
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return nil, fmt.Errorf("%w: got %v", domain.ErrInvalidRadius, radius)
	}
	v, err := s.mutate(ctx, "SessionService.SetCircle", id, func(sess *domain.Session) (*domain.SessionEvent, error) {
		sess.Perimeter.SetCircle(center, radius)
		return &domain.SessionEvent{Type: domain.EventPerimeterSet}, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.PerimetersSet.WithLabelValues(string(domain.PerimeterCircle)).Inc()
	return v, nil
}

// SetPerimeter replaces the perimeter with p, or clears it when p is nil.
func (s *SessionService) SetPerimeter(ctx context.Context, id string, p domain.Perimeter) (*domain.View, error) {
	switch v := p.(type) {
	case nil:
		return s.ClearPerimeter(ctx, id)
	case domain.Polygon:
		return s.SetPolygon(ctx, id, v.Vertices)
	case domain.Circle:
		return s.SetCircle(ctx, id, v.Center, v.Radius)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedShape, p.Kind())
	}
}

// ClearPerimeter removes the perimeter; every marker becomes visible.
func (s *SessionService) ClearPerimeter(ctx context.Context, id string) (*domain.View, error) {
	return s.mutate(ctx, "SessionService.ClearPerimeter", id, func(sess *domain.Session) (*domain.SessionEvent, error) {
		sess.Perimeter.Clear()
		return &domain.SessionEvent{Type: domain.EventPerimeterCleared}, nil
	})
}

// CompleteShape dispatches a finished overlay from the drawing surface.
// Polylines are closed into polygons and rectangles are not supported.
func (s *SessionService) CompleteShape(ctx context.Context, id string, shape domain.Shape) (*domain.View, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.CompleteShape")
	defer span.End()
	span.SetAttributes(
		telemetry.AttrSessionID.String(id),
		telemetry.AttrShapeKind.String(string(shape.Kind)),
	)

	switch shape.Kind {
	case domain.ShapePolygon, domain.ShapePolyline:
		return s.SetPolygon(ctx, id, shape.Path)
	case domain.ShapeCircle:
		if shape.Center == nil {
			return nil, fmt.Errorf("%w: circle without center", domain.ErrInvalidCoordinate)
		}
		return s.SetCircle(ctx, id, *shape.Center, shape.Radius)
	case domain.ShapeMarker:
		if shape.Position == nil {
			return nil, fmt.Errorf("%w: marker without position", domain.ErrInvalidCoordinate)
		}
		return s.PlaceMarker(ctx, id, *shape.Position)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedShape, shape.Kind)
	}
}

// Apply routes a single interaction event to the matching operation.
// The interaction's Origin is stamped on the event it produces.
func (s *SessionService) Apply(ctx context.Context, in *domain.Interaction) (*domain.View, error) {
	if in.Origin != "" {
		ctx = context.WithValue(ctx, originKey{}, in.Origin)
	}
	switch in.Type {
	case domain.InteractionMapClick:
		if in.Coordinate == nil {
			return nil, fmt.Errorf("%w: map click without coordinate", domain.ErrInvalidCoordinate)
		}
		return s.PlaceMarker(ctx, in.SessionID, *in.Coordinate)
	case domain.InteractionMarkerClick:
		if in.Coordinate == nil {
			return nil, fmt.Errorf("%w: marker click without coordinate", domain.ErrInvalidCoordinate)
		}
		v, _, err := s.RemoveMarker(ctx, in.SessionID, *in.Coordinate)
		return v, err
	case domain.InteractionShapeComplete:
		if in.Shape == nil {
			return nil, fmt.Errorf("%w: shape event without shape", domain.ErrUnsupportedShape)
		}
		return s.CompleteShape(ctx, in.SessionID, *in.Shape)
	case domain.InteractionClearMarkers:
		return s.ClearMarkers(ctx, in.SessionID)
	case domain.InteractionClearPerimeter:
		return s.ClearPerimeter(ctx, in.SessionID)
	default:
		return nil, fmt.Errorf("unknown interaction %q", in.Type)
	}
}

// Contains answers the containment predicate for a single coordinate
// against the session's current perimeter.
func (s *SessionService) Contains(ctx context.Context, id string, c domain.Coordinate) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Contains")
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id))

	if err := c.Valid(); err != nil {
		return false, err
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return false, spanErr(span, err)
	}
	if !sess.Perimeter.Active() {
		return true, nil
	}
	inside := s.check(ctx, sess.Perimeter.Current(), []domain.Coordinate{c})
	return inside[0], nil
}

// mutate applies fn to the session atomically, then derives the new view
// and publishes the event fn returned.
func (s *SessionService) mutate(
	ctx context.Context,
	op, id string,
	fn func(sess *domain.Session) (*domain.SessionEvent, error),
) (*domain.View, error) {
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id))

	var event *domain.SessionEvent
	sess, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		ev, err := fn(sess)
		if err != nil {
			return err
		}
		event = ev
		sess.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	v := s.view(ctx, sess)
	span.SetAttributes(
		telemetry.AttrPerimeterKind.String(string(sess.Perimeter.Kind())),
		telemetry.AttrMarkerCount.Int(v.Total),
		telemetry.AttrVisibleCount.Int(v.Visible),
	)

	if event != nil {
		event.SessionID = id
		event.Perimeter = domain.EncodePerimeter(sess.Perimeter.Current())
		event.Visible = v.Visible
		event.Total = v.Total
		event.Time = sess.UpdatedAt.Unix()
		event.Origin, _ = ctx.Value(originKey{}).(string)
		s.publish(ctx, event)
	}
	return v, nil
}

func (s *SessionService) view(ctx context.Context, sess *domain.Session) *domain.View {
	if !sess.Perimeter.Active() || sess.Markers.Len() == 0 {
		return sess.View()
	}
	return domain.BuildView(sess, s.check(ctx, sess.Perimeter.Current(), sess.Markers.List()))
}

// check runs the configured engine and falls back to the in-process
// predicate when it fails.
func (s *SessionService) check(ctx context.Context, p domain.Perimeter, pts []domain.Coordinate) []bool {
	engine := "planar"
	var inside []bool
	start := time.Now()

	if s.checker != nil {
		engine = s.checker.Name()
		var err error
		inside, err = s.checker.Contains(ctx, p, pts)
		if err == nil && len(inside) != len(pts) {
			err = fmt.Errorf("engine returned %d results for %d points", len(inside), len(pts))
		}
		if err != nil {
			logging.FromContext(ctx).Warn("containment engine failed, using planar",
				"engine", engine, "error", err)
			metrics.ContainmentFallbacks.Inc()
			engine = "planar"
			inside = nil
		}
	}
	if inside == nil {
		inside = make([]bool, len(pts))
		for i, c := range pts {
			inside[i] = p.Contains(c)
		}
	}
	metrics.ContainmentDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrEngine.String(engine))

	for _, in := range inside {
		result := "outside"
		if in {
			result = "inside"
		}
		metrics.ContainmentChecks.WithLabelValues(engine, result).Inc()
	}
	return inside
}

func (s *SessionService) publish(ctx context.Context, event *domain.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish session event failed",
			"session_id", event.SessionID, "type", event.Type, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
}

func (s *SessionService) refreshActive(ctx context.Context) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return
	}
	metrics.ActiveSessions.Set(float64(n))
}

func spanErr(span trace.Span, err error) error {
	if !errors.Is(err, domain.ErrSessionNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
