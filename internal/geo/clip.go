// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import "github.com/paulmach/orb"

// clipByTriangle clips a convex-or-concave subject polygon against a
// triangle (Sutherland–Hodgman). The clip region is convex, so the result
// is exact. Returns the clipped polygon vertices, or nil when the overlap
// is empty.
func clipByTriangle(subject []orb.Point, t triangle) []orb.Point {
	clip := [3]orb.Point{t.a, t.b, t.c}
	if cross(t.a, t.b, t.c) < 0 {
		clip = [3]orb.Point{t.a, t.c, t.b}
	}

	out := subject
	for e := 0; e < 3; e++ {
		in := out
		if len(in) == 0 {
			return nil
		}
		p, q := clip[e], clip[(e+1)%3]

		out = nil
		prev := in[len(in)-1]
		prevInside := cross(p, q, prev) >= 0
		for _, cur := range in {
			curInside := cross(p, q, cur) >= 0
			if curInside {
				if !prevInside {
					out = append(out, lineIntersection(prev, cur, p, q))
				}
				out = append(out, cur)
			} else if prevInside {
				out = append(out, lineIntersection(prev, cur, p, q))
			}
			prev, prevInside = cur, curInside
		}
	}
	return out
}

// lineIntersection returns the point where segment a→b crosses the
// infinite line through p→q. Callers guarantee the segment straddles the
// line, so the denominator is non-zero.
func lineIntersection(a, b, p, q orb.Point) orb.Point {
	da := cross(p, q, a)
	db := cross(p, q, b)
	t := da / (da - db)
	return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
}

// polygonArea is the unsigned shoelace area of a vertex list.
func polygonArea(pts []orb.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p[0]*q[1] - q[0]*p[1]
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// triTriArea is the exact intersection area of two triangles.
func triTriArea(t1, t2 triangle) float64 {
	return polygonArea(clipByTriangle([]orb.Point{t1.a, t1.b, t1.c}, t2))
}

// intersectionArea sums pairwise triangle overlaps with ring signs, giving
// the area common to the two decomposed geometries.
func intersectionArea(as, bs []signedTriangle) float64 {
	var area float64
	for _, sa := range as {
		ab := sa.tri.bound()
		for _, sb := range bs {
			if !boundsOverlap(ab, sb.tri.bound()) {
				continue
			}
			if a := triTriArea(sa.tri, sb.tri); a > 0 {
				area += sa.sign * sb.sign * a
			}
		}
	}
	if area < 0 {
		return 0
	}
	return area
}

// tripleIntersectionArea extends intersectionArea to three geometries by
// clipping each triangle pair's overlap against the third set.
func tripleIntersectionArea(as, bs, cs []signedTriangle) float64 {
	var area float64
	for _, sa := range as {
		ab := sa.tri.bound()
		for _, sb := range bs {
			if !boundsOverlap(ab, sb.tri.bound()) {
				continue
			}
			poly := clipByTriangle([]orb.Point{sa.tri.a, sa.tri.b, sa.tri.c}, sb.tri)
			if len(poly) < 3 {
				continue
			}
			for _, sc := range cs {
				if !boundsOverlap(ab, sc.tri.bound()) {
					continue
				}
				if a := polygonArea(clipByTriangle(poly, sc.tri)); a > 0 {
					area += sa.sign * sb.sign * sc.sign * a
				}
			}
		}
	}
	if area < 0 {
		return 0
	}
	return area
}
