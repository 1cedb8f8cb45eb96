package domain

// ShapeKind is the kind of overlay the drawing surface completed.
type ShapeKind string

const (
	ShapePolygon   ShapeKind = "polygon"
	ShapePolyline  ShapeKind = "polyline"
	ShapeCircle    ShapeKind = "circle"
	ShapeRectangle ShapeKind = "rectangle"
	ShapeMarker    ShapeKind = "marker"
)

// Shape is a "shape completed" event from the drawing surface. Path is set
// for polygons and polylines, Center and Radius for circles, Position for
// markers.
type Shape struct {
	Kind     ShapeKind    `json:"kind"`
	Path     []Coordinate `json:"path,omitempty"`
	Center   *Coordinate  `json:"center,omitempty"`
	Radius   float64      `json:"radius,omitempty"`
	Position *Coordinate  `json:"position,omitempty"`
}

// EventType names a session event.
type EventType string

const (
	EventMarkerAdded      EventType = "marker_added"
	EventMarkersRemoved   EventType = "markers_removed"
	EventMarkersCleared   EventType = "markers_cleared"
	EventPerimeterSet     EventType = "perimeter_set"
	EventPerimeterCleared EventType = "perimeter_cleared"
	EventSessionDeleted   EventType = "session_deleted"
)

// SessionEvent is published after every session mutation.
type SessionEvent struct {
	SessionID string        `json:"session_id"`
	Type      EventType     `json:"type"`
	Marker    *Coordinate   `json:"marker,omitempty"`
	Removed   int           `json:"removed,omitempty"`
	Perimeter PerimeterJSON `json:"perimeter"`
	Visible   int           `json:"visible"`
	Total     int           `json:"total"`
	Time      int64         `json:"time"`
	Origin    string        `json:"origin,omitempty"`
}

// InteractionType names an input event coming from the map widget.
type InteractionType string

// A map click places a marker, a marker click removes every marker equal to
// the clicked one and a completed shape is dispatched by its kind.
const (
	InteractionMapClick       InteractionType = "map_click"
	InteractionMarkerClick    InteractionType = "marker_click"
	InteractionShapeComplete  InteractionType = "shape_complete"
	InteractionClearMarkers   InteractionType = "clear_markers"
	InteractionClearPerimeter InteractionType = "clear_perimeter"
)

// Interaction is a single user action against a session. Origin optionally
// names the client that sent it and is echoed on the resulting event.
type Interaction struct {
	SessionID  string          `json:"session_id"`
	Type       InteractionType `json:"type"`
	Coordinate *Coordinate     `json:"coordinate,omitempty"`
	Shape      *Shape          `json:"shape,omitempty"`
	Origin     string          `json:"origin,omitempty"`
}
