package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadius is the sphere radius, in meters, used for every great-circle
// distance in this package (WGS 84 equatorial radius).
const EarthRadius = orb.EarthRadius

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// WithinRadius reports whether p is at most radiusMeters away from center.
func WithinRadius(center, p orb.Point, radiusMeters float64) bool {
	return Haversine(center.Lat(), center.Lon(), p.Lat(), p.Lon()) <= radiusMeters
}

// BoundingBox returns the lat/lon box holding every point within
// radiusMeters of (lat, lon). A box that reaches a pole or crosses the
// antimeridian spans the full longitude range, and latitudes are clamped
// to [-90, 90].
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	d := radiusMeters / EarthRadius
	latDelta := toDeg(d)
	minLat, maxLat = lat-latDelta, lat+latDelta
	if minLat <= -90 || maxLat >= 90 {
		return math.Max(minLat, -90), -180, math.Min(maxLat, 90), 180
	}

	lonDelta := toDeg(math.Asin(math.Sin(d) / math.Cos(toRad(lat))))
	minLon, maxLon = lon-lonDelta, lon+lonDelta
	if minLon < -180 || maxLon > 180 {
		return minLat, -180, maxLat, 180
	}
	return minLat, minLon, maxLat, maxLon
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
