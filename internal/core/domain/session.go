package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session is one user's map: the markers they placed and the perimeter
// they drew. A session is owned by a single client.
type Session struct {
	ID        string
	Markers   MarkerStore
	Perimeter PerimeterModel
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates an empty session.
func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	out := &Session{
		ID:        s.ID,
		Markers:   *NewMarkerStore(s.Markers.List()...),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	out.Perimeter.Set(s.Perimeter.Current())
	return out
}

// MarkerView is a marker together with its derived visibility.
type MarkerView struct {
	Coordinate
	Visible bool `json:"visible"`
}

// UnmarshalJSON keeps the promoted Coordinate decoder from swallowing Visible.
func (m *MarkerView) UnmarshalJSON(data []byte) error {
	if err := m.Coordinate.UnmarshalJSON(data); err != nil {
		return err
	}
	var v struct {
		Visible bool `json:"visible"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.Visible = v.Visible
	return nil
}

// View is what the presentation layer renders for a session.
type View struct {
	SessionID string       `json:"session_id"`
	Markers   []MarkerView `json:"markers"`
	Perimeter Perimeter    `json:"-"`
	Active    bool         `json:"active"`
	Visible   int          `json:"visible"`
	Total     int          `json:"total"`
}

// BuildView derives visibility for every marker from the flags in inside,
// which must be index-aligned with the marker list.
func BuildView(s *Session, inside []bool) *View {
	markers := s.Markers.List()
	v := &View{
		SessionID: s.ID,
		Markers:   make([]MarkerView, len(markers)),
		Perimeter: s.Perimeter.Current(),
		Active:    s.Perimeter.Active(),
		Total:     len(markers),
	}
	for i, m := range markers {
		visible := true
		if i < len(inside) {
			visible = inside[i]
		}
		v.Markers[i] = MarkerView{Coordinate: m, Visible: visible}
		if visible {
			v.Visible++
		}
	}
	return v
}

// View computes visibility with the in-process containment predicate.
func (s *Session) View() *View {
	markers := s.Markers.List()
	inside := make([]bool, len(markers))
	for i, m := range markers {
		inside[i] = s.Perimeter.Contains(m)
	}
	return BuildView(s, inside)
}

func (v View) MarshalJSON() ([]byte, error) {
	type alias View
	return json.Marshal(struct {
		*alias
		Perimeter PerimeterJSON `json:"perimeter"`
	}{alias: (*alias)(&v), Perimeter: EncodePerimeter(v.Perimeter)})
}

// PerimeterJSON is the tagged wire form of a Perimeter. Only the fields of
// the named variant are set.
type PerimeterJSON struct {
	Type     PerimeterKind `json:"type"`
	Vertices []Coordinate  `json:"vertices,omitempty"`
	Center   *Coordinate   `json:"center,omitempty"`
	Radius   *float64      `json:"radius,omitempty"`
}

// EncodePerimeter converts p to its wire form.
func EncodePerimeter(p Perimeter) PerimeterJSON {
	switch v := p.(type) {
	case Polygon:
		vs := v.Vertices
		if vs == nil {
			vs = []Coordinate{}
		}
		return PerimeterJSON{Type: PerimeterPolygon, Vertices: vs}
	case Circle:
		center, radius := v.Center, v.Radius
		return PerimeterJSON{Type: PerimeterCircle, Center: &center, Radius: &radius}
	default:
		return PerimeterJSON{Type: PerimeterNone}
	}
}

// Decode converts the wire form back into exactly one variant.
func (p PerimeterJSON) Decode() (Perimeter, error) {
	switch p.Type {
	case PerimeterNone, "":
		return nil, nil
	case PerimeterPolygon:
		return Polygon{Vertices: p.Vertices}, nil
	case PerimeterCircle:
		if p.Center == nil || p.Radius == nil {
			return nil, fmt.Errorf("circle perimeter needs center and radius")
		}
		return Circle{Center: *p.Center, Radius: *p.Radius}, nil
	default:
		return nil, fmt.Errorf("unknown perimeter type %q", p.Type)
	}
}

type sessionJSON struct {
	ID        string        `json:"id"`
	Markers   []Coordinate  `json:"markers"`
	Perimeter PerimeterJSON `json:"perimeter"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{
		ID:        s.ID,
		Markers:   s.Markers.List(),
		Perimeter: EncodePerimeter(s.Perimeter.Current()),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	})
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p, err := raw.Perimeter.Decode()
	if err != nil {
		return err
	}
	s.ID = raw.ID
	s.Markers = *NewMarkerStore(raw.Markers...)
	s.Perimeter.Set(p)
	s.CreatedAt = raw.CreatedAt
	s.UpdatedAt = raw.UpdatedAt
	return nil
}
