package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/perimap/internal/core/domain"
	"github.com/samirrijal/perimap/internal/pkg/geospatial"
)

// ViewFeatureCollection renders a session view as GeoJSON. The perimeter
// comes first and sets the collection bbox; a circle is a Point with a
// radius property since GeoJSON has no circle geometry.
func ViewFeatureCollection(v *domain.View) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if v.Perimeter != nil {
		b := v.Perimeter.Bounds()
		fc.BBox = geojson.BBox{b.MinLng, b.MinLat, b.MaxLng, b.MaxLat}
	}

	switch p := v.Perimeter.(type) {
	case domain.Polygon:
		f := geojson.NewFeature(orb.Polygon{geospatial.ClosedRing(p.Ring())})
		f.Properties["role"] = "perimeter"
		f.Properties["kind"] = string(domain.PerimeterPolygon)
		f.Properties["active"] = v.Active
		fc.Append(f)
	case domain.Circle:
		f := geojson.NewFeature(p.Center.Point())
		f.Properties["role"] = "perimeter"
		f.Properties["kind"] = string(domain.PerimeterCircle)
		f.Properties["radius"] = p.Radius
		f.Properties["active"] = v.Active
		fc.Append(f)
	}

	for i, m := range v.Markers {
		f := geojson.NewFeature(m.Point())
		f.Properties["role"] = "marker"
		f.Properties["index"] = i
		f.Properties["visible"] = m.Visible
		fc.Append(f)
	}
	return fc
}

// GeoJSONHandler exports the session as a FeatureCollection.
func GeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := deps.Sessions.View(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		data, err := json.Marshal(ViewFeatureCollection(v))
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}
