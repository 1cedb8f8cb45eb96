package domain

import (
	"github.com/paulmach/orb"

	"github.com/samirrijal/perimap/internal/pkg/geospatial"
)

// PerimeterKind names a perimeter variant on the wire.
type PerimeterKind string

const (
	PerimeterNone    PerimeterKind = "none"
	PerimeterPolygon PerimeterKind = "polygon"
	PerimeterCircle  PerimeterKind = "circle"
)

// Perimeter is a user-drawn region. It is either a Polygon or a Circle;
// the absence of a perimeter is a nil Perimeter.
type Perimeter interface {
	Kind() PerimeterKind
	// Contains reports whether c lies inside the region, boundary included.
	Contains(c Coordinate) bool
	Bounds() Bounds
	isPerimeter()
}

// Polygon is an ordered vertex list. The closing edge is implied.
type Polygon struct {
	Vertices []Coordinate `json:"vertices"`
}

func (Polygon) Kind() PerimeterKind { return PerimeterPolygon }
func (Polygon) isPerimeter()        {}

// Drawn reports whether the polygon has enough vertices to enclose an area.
func (p Polygon) Drawn() bool {
	return len(p.Vertices) >= geospatial.MinRingVertices
}

// Ring converts the vertices to an open orb ring.
func (p Polygon) Ring() orb.Ring {
	ring := make(orb.Ring, len(p.Vertices))
	for i, v := range p.Vertices {
		ring[i] = v.Point()
	}
	return ring
}

// Contains tests c against the polygon. A polygon that is not drawn yet
// behaves like no perimeter at all.
func (p Polygon) Contains(c Coordinate) bool {
	if !p.Drawn() {
		return true
	}
	if !p.Bounds().Contains(c) {
		return false
	}
	return geospatial.RingContains(p.Ring(), c.Point())
}

func (p Polygon) Bounds() Bounds {
	if len(p.Vertices) == 0 {
		return Bounds{}
	}
	b := p.Ring().Bound()
	return Bounds{MinLat: b.Min.Lat(), MinLng: b.Min.Lon(), MaxLat: b.Max.Lat(), MaxLng: b.Max.Lon()}
}

// Circle is a center with a radius in meters.
type Circle struct {
	Center Coordinate `json:"center"`
	Radius float64    `json:"radius"`
}

func (Circle) Kind() PerimeterKind { return PerimeterCircle }
func (Circle) isPerimeter()        {}

// Contains is true when the great-circle distance to the center is at most Radius.
func (c Circle) Contains(p Coordinate) bool {
	return geospatial.WithinRadius(c.Center.Point(), p.Point(), c.Radius)
}

func (c Circle) Bounds() Bounds {
	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(c.Center.Lat, c.Center.Lng, c.Radius)
	return Bounds{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}
}

// KindOf returns the kind of p, PerimeterNone for nil.
func KindOf(p Perimeter) PerimeterKind {
	if p == nil {
		return PerimeterNone
	}
	return p.Kind()
}

// PerimeterModel holds at most one active perimeter. Setting a new shape
// replaces the previous one entirely.
type PerimeterModel struct {
	current Perimeter
}

// SetPolygon replaces the current perimeter with a polygon over a copy of vertices.
func (m *PerimeterModel) SetPolygon(vertices []Coordinate) {
	vs := make([]Coordinate, len(vertices))
	copy(vs, vertices)
	m.current = Polygon{Vertices: vs}
}

// SetCircle replaces the current perimeter with a circle.
func (m *PerimeterModel) SetCircle(center Coordinate, radius float64) {
	m.current = Circle{Center: center, Radius: radius}
}

// Set replaces the current perimeter with p; nil clears it.
func (m *PerimeterModel) Set(p Perimeter) {
	switch v := p.(type) {
	case Polygon:
		m.SetPolygon(v.Vertices)
	case Circle:
		m.SetCircle(v.Center, v.Radius)
	default:
		m.current = nil
	}
}

// Clear resets the model to no perimeter.
func (m *PerimeterModel) Clear() {
	m.current = nil
}

// Current returns the stored perimeter, nil when none is set.
func (m *PerimeterModel) Current() Perimeter {
	return m.current
}

func (m *PerimeterModel) Kind() PerimeterKind {
	return KindOf(m.current)
}

// Active reports whether the stored perimeter filters anything. Polygons
// with fewer than 3 vertices are not active.
func (m *PerimeterModel) Active() bool {
	switch p := m.current.(type) {
	case nil:
		return false
	case Polygon:
		return p.Drawn()
	default:
		return true
	}
}

// Contains is the containment predicate. Everything is inside when no
// perimeter is active.
func (m *PerimeterModel) Contains(c Coordinate) bool {
	if !m.Active() {
		return true
	}
	return m.current.Contains(c)
}
