package geospatial

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

func TestHaversine(t *testing.T) {
	// same point should be 0
	d := Haversine(43.4718, -80.5421, 43.4718, -80.5421)
	if d != 0 {
		t.Errorf("expected 0, got %f", d)
	}

	// one degree of latitude is roughly 111.3 km on this sphere
	d = Haversine(0, 0, 1, 0)
	want := EarthRadius * math.Pi / 180
	if math.Abs(d-want) > 1e-6 {
		t.Errorf("expected %f, got %f", want, d)
	}

	// symmetric
	a := Haversine(43.4834, -80.5312, 43.4718, -80.5421)
	b := Haversine(43.4718, -80.5421, 43.4834, -80.5312)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("expected symmetric distance, got %f and %f", a, b)
	}
	if a < 1400 || a > 1700 {
		t.Errorf("expected ~1.5km between the two Waterloo points, got %f", a)
	}
}

func TestWithinRadius(t *testing.T) {
	center := orb.Point{-80.5421, 43.4718}
	if !WithinRadius(center, center, 0) {
		t.Error("zero radius must contain its own center")
	}

	p := orb.Point{-80.5421, 43.4728} // ~111m north
	if WithinRadius(center, p, 100) {
		t.Error("point ~111m away must be outside a 100m radius")
	}
	if !WithinRadius(center, p, 120) {
		t.Error("point ~111m away must be inside a 120m radius")
	}
}

func TestBoundingBox(t *testing.T) {
	oneDegree := EarthRadius * math.Pi / 180
	minLat, minLon, maxLat, maxLon := BoundingBox(0, 0, oneDegree)
	if math.Abs(minLat+1) > 1e-9 || math.Abs(maxLat-1) > 1e-9 {
		t.Errorf("expected lat span [-1, 1], got [%f, %f]", minLat, maxLat)
	}
	if math.Abs(minLon+1) > 1e-9 || math.Abs(maxLon-1) > 1e-9 {
		t.Errorf("expected lon span [-1, 1], got [%f, %f]", minLon, maxLon)
	}
}

func TestBoundingBox_ContainsCircleEdge(t *testing.T) {
	lat, lon, r := 60.0, 10.0, 50000.0
	minLat, minLon, maxLat, maxLon := BoundingBox(lat, lon, r)

	// walk the circle edge at 1 degree bearings
	for b := 0.0; b < 360; b++ {
		p := geo.PointAtBearingAndDistance(orb.Point{lon, lat}, b, r*0.999999)
		if p.Lat() < minLat || p.Lat() > maxLat || p.Lon() < minLon || p.Lon() > maxLon {
			t.Fatalf("bearing %v: %v outside box [%f %f %f %f]", b, p, minLat, minLon, maxLat, maxLon)
		}
	}
}

func TestBoundingBox_Pole(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(90, 0, 1000)
	if maxLat != 90 || minLat >= 90 || minLat < 89.9 {
		t.Errorf("expected lat span [~89.99, 90], got [%f, %f]", minLat, maxLat)
	}
	if minLon != -180 || maxLon != 180 {
		t.Errorf("expected full lon span, got [%f, %f]", minLon, maxLon)
	}

	minLat, _, _, _ = BoundingBox(-89.999, 45, 5000)
	if minLat != -90 {
		t.Errorf("expected south pole clamp, got %f", minLat)
	}
}

func TestBoundingBox_Antimeridian(t *testing.T) {
	_, minLon, _, maxLon := BoundingBox(0, 179.99, 5000)
	if minLon != -180 || maxLon != 180 {
		t.Errorf("expected full lon span across the antimeridian, got [%f, %f]", minLon, maxLon)
	}
	_, minLon, _, maxLon = BoundingBox(0, -179.99, 5000)
	if minLon != -180 || maxLon != 180 {
		t.Errorf("expected full lon span across the antimeridian, got [%f, %f]", minLon, maxLon)
	}
}
