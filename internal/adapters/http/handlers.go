package http

import (
	"math"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/perimap/internal/core/domain"
)

// MapConfigResponse is what the map widget needs before it can render.
type MapConfigResponse struct {
	APIKey   string            `json:"api_key"`
	Center   domain.Coordinate `json:"center"`
	Zoom     int               `json:"zoom"`
	Landmark *Landmark         `json:"landmark,omitempty"`
}

// Landmark is a fixed reference marker. It is not part of any session and
// is never filtered by a perimeter.
type Landmark struct {
	Name     string            `json:"name"`
	Position domain.Coordinate `json:"position"`
}

// RemoveMarkerResponse reports how many markers a removal dropped.
type RemoveMarkerResponse struct {
	Removed int          `json:"removed"`
	Session *domain.View `json:"session"`
}

// ContainsResponse is the answer to a single containment query.
type ContainsResponse struct {
	Coordinate domain.Coordinate `json:"coordinate"`
	Inside     bool              `json:"inside"`
}

// MapConfigHandler returns the widget configuration.
func MapConfigHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center := domain.Coordinate{Lat: deps.Map.CenterLat, Lng: deps.Map.CenterLng}
		resp := MapConfigResponse{APIKey: deps.Map.APIKey, Center: center, Zoom: deps.Map.Zoom}
		if deps.Map.Landmark != "" {
			resp.Landmark = &Landmark{Name: deps.Map.Landmark, Position: center}
		}
		return c.JSON(resp)
	}
}

// CreateSessionHandler starts a new, empty session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Create(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/sessions/" + sess.ID)
		return c.Status(201).JSON(sess.View())
	}
}

// GetSessionHandler returns the session with derived marker visibility.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := deps.Sessions.View(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(v)
	}
}

// DeleteSessionHandler ends a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(204)
	}
}

// ListMarkersHandler pages through a session's markers in insertion order.
func ListMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := deps.Sessions.View(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}

		pg := parsePagination(c, len(v.Markers))
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page(v.Markers, pg), Pagination: pg})
	}
}

// PlaceMarkerHandler handles a map click: body is {"lat":..,"lng":..}.
func PlaceMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var coord domain.Coordinate
		if err := c.BodyParser(&coord); err != nil {
			return errBadRequest(c, "body must be a coordinate {lat, lng}")
		}
		v, err := deps.Sessions.PlaceMarker(c.UserContext(), c.Params("id"), coord)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(201).JSON(v)
	}
}

// RemoveMarkerHandler handles a marker click: every marker equal to the
// body coordinate is removed. Removing an absent coordinate is a no-op.
func RemoveMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var coord domain.Coordinate
		if err := c.BodyParser(&coord); err != nil {
			return errBadRequest(c, "body must be a coordinate {lat, lng}")
		}
		v, removed, err := deps.Sessions.RemoveMarker(c.UserContext(), c.Params("id"), coord)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(RemoveMarkerResponse{Removed: removed, Session: v})
	}
}

// ClearMarkersHandler removes every marker.
func ClearMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := deps.Sessions.ClearMarkers(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(v)
	}
}

// SetPerimeterHandler replaces the perimeter. The body uses the tagged
// perimeter encoding; {"type":"none"} clears it.
func SetPerimeterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pj domain.PerimeterJSON
		if err := c.BodyParser(&pj); err != nil {
			return errBadRequest(c, "invalid perimeter body")
		}
		p, err := pj.Decode()
		if err != nil {
			return errUnprocessable(c, err.Error())
		}
		v, err := deps.Sessions.SetPerimeter(c.UserContext(), c.Params("id"), p)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(v)
	}
}

// ClearPerimeterHandler removes the perimeter.
func ClearPerimeterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := deps.Sessions.ClearPerimeter(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(v)
	}
}

// CompleteShapeHandler accepts a "shape completed" event from the drawing surface.
func CompleteShapeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var shape domain.Shape
		if err := c.BodyParser(&shape); err != nil {
			return errBadRequest(c, "invalid shape body")
		}
		v, err := deps.Sessions.CompleteShape(c.UserContext(), c.Params("id"), shape)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(v)
	}
}

// ContainsHandler tests ?lat=&lng= against the session's perimeter.
func ContainsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", math.NaN())
		lng := c.QueryFloat("lng", math.NaN())
		if math.IsNaN(lat) || math.IsNaN(lng) {
			return errBadRequest(c, "lat and lng are required and must be numbers")
		}
		coord := domain.Coordinate{Lat: lat, Lng: lng}

		inside, err := deps.Sessions.Contains(c.UserContext(), c.Params("id"), coord)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(ContainsResponse{Coordinate: coord, Inside: inside})
	}
}
