// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// triangle is one piece of a decomposed polygon, in arbitrary orientation.
type triangle struct {
	a, b, c orb.Point
}

func (t triangle) area() float64 {
	return math.Abs(cross(t.a, t.b, t.c)) / 2
}

func (t triangle) bound() orb.Bound {
	min := orb.Point{
		math.Min(t.a[0], math.Min(t.b[0], t.c[0])),
		math.Min(t.a[1], math.Min(t.b[1], t.c[1])),
	}
	max := orb.Point{
		math.Max(t.a[0], math.Max(t.b[0], t.c[0])),
		math.Max(t.a[1], math.Max(t.b[1], t.c[1])),
	}
	return orb.Bound{Min: min, Max: max}
}

// signedTriangle carries the ring sign: +1 for outer rings, -1 for holes.
type signedTriangle struct {
	tri  triangle
	sign float64
}

// decompose turns a multipolygon into signed triangles. Holes must lie
// within their outer ring, per the GeoJSON spec.
func decompose(mp orb.MultiPolygon) []signedTriangle {
	var out []signedTriangle
	for _, poly := range mp {
		for i, ring := range poly {
			sign := 1.0
			if i > 0 {
				sign = -1.0
			}
			for _, t := range triangulateRing(ring) {
				out = append(out, signedTriangle{tri: t, sign: sign})
			}
		}
	}
	return out
}

// cross returns the z component of (b-a) x (c-a): positive when a,b,c
// turn counter-clockwise.
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// signedRingArea is the shoelace sum: positive for counter-clockwise rings.
func signedRingArea(ring orb.Ring) float64 {
	pts := dropClosingPoint(ring)
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p[0]*q[1] - q[0]*p[1]
	}
	return sum / 2
}

func dropClosingPoint(ring orb.Ring) []orb.Point {
	pts := []orb.Point(ring)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// triangulateRing splits a simple ring into triangles by ear clipping.
// The ring may be open or closed and in either orientation. Degenerate
// rings (fewer than three distinct points, zero area) yield nil.
func triangulateRing(ring orb.Ring) []triangle {
	pts := dropClosingPoint(ring)
	if len(pts) < 3 {
		return nil
	}

	// Work on a counter-clockwise copy.
	if signedRingArea(ring) < 0 {
		rev := make([]orb.Point, len(pts))
		for i, p := range pts {
			rev[len(pts)-1-i] = p
		}
		pts = rev
	}

	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}

	var tris []triangle
	for len(idx) > 3 {
		clipped := false
		for k := 0; k < len(idx); k++ {
			i0 := idx[(k-1+len(idx))%len(idx)]
			i1 := idx[k]
			i2 := idx[(k+1)%len(idx)]
			a, b, c := pts[i0], pts[i1], pts[i2]

			// Reflex corner: not an ear.
			if cross(a, b, c) < 0 {
				continue
			}
			if containsOtherVertex(pts, idx, i0, i1, i2) {
				continue
			}

			if cross(a, b, c) > 0 {
				tris = append(tris, triangle{a, b, c})
			}
			idx = append(idx[:k], idx[k+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Numerically degenerate ring: fall back to a fan so the
			// decomposition always terminates.
			for k := 1; k+1 < len(idx); k++ {
				tris = append(tris, triangle{pts[idx[0]], pts[idx[k]], pts[idx[k+1]]})
			}
			return tris
		}
	}
	if cross(pts[idx[0]], pts[idx[1]], pts[idx[2]]) != 0 {
		tris = append(tris, triangle{pts[idx[0]], pts[idx[1]], pts[idx[2]]})
	}
	return tris
}

// containsOtherVertex reports whether any remaining ring vertex lies
// strictly inside the candidate ear (i0, i1, i2).
func containsOtherVertex(pts []orb.Point, idx []int, i0, i1, i2 int) bool {
	a, b, c := pts[i0], pts[i1], pts[i2]
	for _, i := range idx {
		if i == i0 || i == i1 || i == i2 {
			continue
		}
		p := pts[i]
		if cross(a, b, p) > 0 && cross(b, c, p) > 0 && cross(c, a, p) > 0 {
			return true
		}
	}
	return false
}
