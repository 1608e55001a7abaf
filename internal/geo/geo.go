// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geo computes the planar overlay areas behind the urbanism
// indicators: how much of a census tract falls inside a street block, how
// much of a source zone overlaps a target zone, and so on.
//
// Geometries are orb values in a shared projected CRS; areas are in the
// squared units of that CRS. Polygons are decomposed into signed triangles
// (outer rings positive, holes negative) and pairwise overlay follows from
// exact triangle clipping, so no external geometry engine is needed.
// Multi-part inputs are assumed to have mutually disjoint parts, which
// holds for the municipal layers (tracts, blocks, vegetation patches).
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ToMultiPolygon converts an areal geometry to its MultiPolygon form.
// Non-areal geometries are an error: the overlay operations are only
// meaningful for polygons.
func ToMultiPolygon(g orb.Geometry) (orb.MultiPolygon, error) {
	switch v := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{v}, nil
	case orb.MultiPolygon:
		return v, nil
	default:
		return nil, fmt.Errorf("geometry type %s is not areal", g.GeoJSONType())
	}
}

// Area returns the area of an areal geometry: outer rings added, holes
// subtracted.
func Area(g orb.Geometry) (float64, error) {
	mp, err := ToMultiPolygon(g)
	if err != nil {
		return 0, err
	}
	var area float64
	for _, poly := range mp {
		for i, ring := range poly {
			a := math.Abs(signedRingArea(ring))
			if i == 0 {
				area += a
			} else {
				area -= a
			}
		}
	}
	return area, nil
}

// IntersectionArea returns the area common to two areal geometries.
func IntersectionArea(a, b orb.Geometry) (float64, error) {
	am, err := ToMultiPolygon(a)
	if err != nil {
		return 0, err
	}
	bm, err := ToMultiPolygon(b)
	if err != nil {
		return 0, err
	}
	return intersectionArea(decompose(am), decompose(bm)), nil
}

// TripleIntersectionArea returns the area common to three areal
// geometries, used to subtract vegetation from the block-clipped part of
// a tract without constructing difference geometries.
func TripleIntersectionArea(a, b, c orb.Geometry) (float64, error) {
	am, err := ToMultiPolygon(a)
	if err != nil {
		return 0, err
	}
	bm, err := ToMultiPolygon(b)
	if err != nil {
		return 0, err
	}
	cm, err := ToMultiPolygon(c)
	if err != nil {
		return 0, err
	}
	return tripleIntersectionArea(decompose(am), decompose(bm), decompose(cm)), nil
}

// CollectPolygons gathers every areal geometry in a feature collection
// into one MultiPolygon, for layers used purely as masks (street blocks,
// vegetation cover).
func CollectPolygons(fc *geojson.FeatureCollection) (orb.MultiPolygon, error) {
	var out orb.MultiPolygon
	for i, f := range fc.Features {
		mp, err := ToMultiPolygon(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, mp...)
	}
	return out, nil
}

// boundsOverlap reports whether two bounding boxes intersect.
func boundsOverlap(a, b orb.Bound) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1]
}

// NumericProperty reads a feature property as a float64. GeoJSON decoding
// produces float64; int is accepted for programmatically built features.
func NumericProperty(props geojson.Properties, key string) (float64, error) {
	v, ok := props[key]
	if !ok {
		return 0, fmt.Errorf("property %q not found", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("property %q is not numeric (got %T)", key, v)
	}
}
