package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// MinRingVertices is the smallest vertex count that encloses an area.
const MinRingVertices = 3

// RingContains reports whether p lies inside the ring or on its boundary.
// The ring may be open or closed; the closing edge is implied. Edges are
// straight lines in lng/lat space.
func RingContains(ring orb.Ring, p orb.Point) bool {
	if len(ring) < MinRingVertices {
		return false
	}
	return planar.RingContains(ring, p)
}

// ClosedRing returns a copy of ring whose last point equals its first.
func ClosedRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, len(ring), len(ring)+1)
	copy(out, ring)
	if len(out) > 0 && !out[0].Equal(out[len(out)-1]) {
		out = append(out, out[0])
	}
	return out
}
