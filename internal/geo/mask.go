// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Mask is a layer used purely as an overlay operand (street blocks,
// vegetation cover), decomposed into signed triangles once so it can be
// clipped against many geometries.
type Mask struct {
	tris []signedTriangle
}

// NewMask decomposes every areal feature of the collection.
func NewMask(fc *geojson.FeatureCollection) (*Mask, error) {
	mp, err := CollectPolygons(fc)
	if err != nil {
		return nil, err
	}
	return &Mask{tris: decompose(mp)}, nil
}

// IntersectionArea returns the area of g covered by the mask.
func (m *Mask) IntersectionArea(g orb.Geometry) (float64, error) {
	gm, err := ToMultiPolygon(g)
	if err != nil {
		return 0, err
	}
	return intersectionArea(decompose(gm), m.tris), nil
}

// TripleIntersectionArea returns the area common to g, the mask, and a
// second mask.
func (m *Mask) TripleIntersectionArea(g orb.Geometry, other *Mask) (float64, error) {
	gm, err := ToMultiPolygon(g)
	if err != nil {
		return 0, err
	}
	return tripleIntersectionArea(decompose(gm), m.tris, other.tris), nil
}
