package geospatial

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestRingContains(t *testing.T) {
	// unit square, open ring, points are [lng, lat]
	square := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	tests := []struct {
		name string
		p    orb.Point
		want bool
	}{
		{"center", orb.Point{0.5, 0.5}, true},
		{"outside", orb.Point{2, 2}, false},
		{"left of square", orb.Point{-0.5, 0.5}, false},
		{"on bottom edge", orb.Point{0.5, 0}, true},
		{"on vertex", orb.Point{1, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RingContains(square, tt.p); got != tt.want {
				t.Errorf("RingContains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestRingContains_ClosedRingMatchesOpen(t *testing.T) {
	open := orb.Ring{{0, 0}, {4, 0}, {4, 4}, {2, 2}, {0, 4}}
	closed := ClosedRing(open)
	if len(closed) != len(open)+1 {
		t.Fatalf("expected closing point to be appended, got %d points", len(closed))
	}

	for _, p := range []orb.Point{{1, 1}, {2, 3}, {3, 1}, {5, 5}} {
		if RingContains(open, p) != RingContains(closed, p) {
			t.Errorf("open and closed ring disagree at %v", p)
		}
	}
	// notch of the concave ring
	if RingContains(open, orb.Point{2, 3}) {
		t.Error("point in the notch must be outside")
	}
}

func TestRingContains_TooFewVertices(t *testing.T) {
	if RingContains(orb.Ring{{0, 0}, {1, 1}}, orb.Point{0.5, 0.5}) {
		t.Error("a two-vertex ring encloses nothing")
	}
}

func TestClosedRing_AlreadyClosed(t *testing.T) {
	r := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	if got := ClosedRing(r); len(got) != len(r) {
		t.Errorf("expected %d points, got %d", len(r), len(got))
	}
}
