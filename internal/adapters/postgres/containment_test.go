package postgres

import (
	"testing"

	"github.com/samirrijal/perimap/internal/core/domain"
)

func TestPolygonWKT_ClosesRing(t *testing.T) {
	p := domain.Polygon{Vertices: []domain.Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 1},
	}}
	want := "POLYGON((0 0,1 0,1 1,0 0))"
	if got := PolygonWKT(p); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSplitCoordinates(t *testing.T) {
	lngs, lats := splitCoordinates([]domain.Coordinate{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}})
	if lngs[0] != 2 || lngs[1] != 4 || lats[0] != 1 || lats[1] != 3 {
		t.Errorf("unexpected split lngs=%v lats=%v", lngs, lats)
	}
}

func TestAllInside(t *testing.T) {
	for i, in := range allInside(3) {
		if !in {
			t.Errorf("index %d not inside", i)
		}
	}
}
