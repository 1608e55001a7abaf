// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Interpolate transfers a numeric variable from source features to target
// features by areal weighting: each source value is split among the
// targets in proportion to the intersected share of the source area, then
// summed per target identifier and rounded to the nearest integer.
//
// Targets that intersect no source are dropped from the result, matching
// an inner join on the target identifier. finalVar defaults to varName.
// Both collections must share a projected CRS.
func Interpolate(source, target *geojson.FeatureCollection, targetIDProp, varName, finalVar string) (*geojson.FeatureCollection, error) {
	if finalVar == "" {
		finalVar = varName
	}

	type targetFeat struct {
		id    string
		tris  []signedTriangle
		bound orb.Bound
	}

	targets := make([]targetFeat, 0, len(target.Features))
	for i, f := range target.Features {
		v, ok := f.Properties[targetIDProp]
		if !ok {
			return nil, fmt.Errorf("target feature %d: property %q not found", i, targetIDProp)
		}
		mp, err := ToMultiPolygon(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("target feature %d: %w", i, err)
		}
		targets = append(targets, targetFeat{
			id:    fmt.Sprint(v),
			tris:  decompose(mp),
			bound: mp.Bound(),
		})
	}

	sums := make(map[string]float64)
	for i, f := range source.Features {
		mp, err := ToMultiPolygon(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("source feature %d: %w", i, err)
		}
		value, err := NumericProperty(f.Properties, varName)
		if err != nil {
			return nil, fmt.Errorf("source feature %d: %w", i, err)
		}

		totalArea, err := Area(mp)
		if err != nil {
			return nil, err
		}
		// Zero-area sources have nothing to distribute.
		if totalArea == 0 {
			continue
		}

		tris := decompose(mp)
		bound := mp.Bound()
		for _, t := range targets {
			if !boundsOverlap(bound, t.bound) {
				continue
			}
			if shared := intersectionArea(tris, t.tris); shared > 0 {
				sums[t.id] += value * shared / totalArea
			}
		}
	}

	out := geojson.NewFeatureCollection()
	for i, f := range target.Features {
		sum, ok := sums[targets[i].id]
		if !ok {
			continue
		}
		nf := geojson.NewFeature(f.Geometry)
		nf.Properties = make(geojson.Properties, len(f.Properties)+1)
		for k, v := range f.Properties {
			nf.Properties[k] = v
		}
		nf.Properties[finalVar] = int(math.Round(sum))
		out.Append(nf)
	}
	return out, nil
}
