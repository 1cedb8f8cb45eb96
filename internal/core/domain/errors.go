package domain

import "errors"

// Sentinel errors returned by the session layer. The Marker Store and the
// Perimeter Model never return errors.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrDegeneratePolygon = errors.New("polygon needs at least 3 vertices")
	ErrInvalidRadius     = errors.New("radius must be a finite value >= 0")
	ErrUnsupportedShape  = errors.New("unsupported shape")
	ErrTooManyMarkers    = errors.New("marker limit reached")
)
