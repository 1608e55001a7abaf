// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package urbanismo prepares the geographic layers behind the urbanism
// working group's indicators: green-area availability per census tract and
// geological risk areas mapped to subprefeituras.
package urbanismo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/opp-observatorio/opp-extractor/internal/clean"
	"github.com/opp-observatorio/opp-extractor/internal/geo"
)

// AdjustedAreaProp is the property added to each tract by PrepareTracts.
const AdjustedAreaProp = "adjusted_tract_area"

// CombinedIDProp is the identifier added to each pair by PrepareRiskAreas.
const CombinedIDProp = "id_area_subprefeitura"

// IntersectionAreaProp carries the shared area of a risk-area /
// subprefeitura pair.
const IntersectionAreaProp = "intersection_area"

// PrepareTracts computes the adjusted area of each census tract: the part
// of the tract covered by street blocks (when a block layer is given),
// minus vegetation cover (when a vegetation layer is given). Each output
// feature keeps the tract geometry and attributes and gains
// adjusted_tract_area.
//
// blocks and vegetation may be nil; with neither, the adjusted area is
// simply the tract area. All layers must share a projected CRS.
func PrepareTracts(tracts, vegetation, blocks *geojson.FeatureCollection) (*geojson.FeatureCollection, error) {
	var (
		blockMask *geo.Mask
		vegMask   *geo.Mask
		err       error
	)
	if blocks != nil {
		blockMask, err = geo.NewMask(blocks)
		if err != nil {
			return nil, fmt.Errorf("street blocks layer: %w", err)
		}
	}
	if vegetation != nil {
		vegMask, err = geo.NewMask(vegetation)
		if err != nil {
			return nil, fmt.Errorf("vegetation layer: %w", err)
		}
	}

	out := geojson.NewFeatureCollection()
	for i, f := range tracts.Features {
		area, err := adjustedArea(f, blockMask, vegMask)
		if err != nil {
			return nil, fmt.Errorf("tract %d: %w", i, err)
		}

		nf := geojson.NewFeature(f.Geometry)
		for k, v := range f.Properties {
			nf.Properties[k] = v
		}
		nf.Properties[AdjustedAreaProp] = area
		out.Append(nf)
	}
	return out, nil
}

func adjustedArea(f *geojson.Feature, blocks, vegetation *geo.Mask) (float64, error) {
	switch {
	case blocks != nil && vegetation != nil:
		within, err := blocks.IntersectionArea(f.Geometry)
		if err != nil {
			return 0, err
		}
		covered, err := blocks.TripleIntersectionArea(f.Geometry, vegetation)
		if err != nil {
			return 0, err
		}
		return within - covered, nil
	case blocks != nil:
		return blocks.IntersectionArea(f.Geometry)
	case vegetation != nil:
		total, err := geo.Area(f.Geometry)
		if err != nil {
			return 0, err
		}
		covered, err := vegetation.IntersectionArea(f.Geometry)
		if err != nil {
			return 0, err
		}
		return total - covered, nil
	default:
		return geo.Area(f.Geometry)
	}
}

// RiskAreaOptions configures PrepareRiskAreas.
type RiskAreaOptions struct {
	// RiskIDProp names the risk-area identifier property. Empty selects
	// the first property in sorted key order.
	RiskIDProp string

	// GradeColPrefix locates the risk-grade property by prefix
	// (e.g. "grau_").
	GradeColPrefix string

	// ActiveRiskPrefix filters risk grades: only areas whose grade starts
	// with it (case-insensitive) are kept (e.g. "R3").
	ActiveRiskPrefix string

	// SubprefeituraIDProp names the subprefeitura identifier property.
	SubprefeituraIDProp string

	// ExtraSubprefeituraProps lists additional subprefeitura attributes to
	// copy onto each pair. String values are normalized the way the
	// municipal layers spell subprefeitura names (accents stripped,
	// uppercased).
	ExtraSubprefeituraProps []string
}

// PrepareRiskAreas filters the risk-area layer down to active risk grades
// and pairs each remaining area with every subprefeitura it overlaps. Each
// output feature keeps the risk-area geometry and attributes, carries the
// requested subprefeitura attributes, the shared area, and the combined
// identifier "<risk_id>.subpref.<subpref_id>".
func PrepareRiskAreas(riskAreas, subprefeituras *geojson.FeatureCollection, opts RiskAreaOptions) (*geojson.FeatureCollection, error) {
	if opts.GradeColPrefix == "" || opts.ActiveRiskPrefix == "" {
		return nil, fmt.Errorf("grade column prefix and active risk prefix are required")
	}
	if len(riskAreas.Features) == 0 {
		return geojson.NewFeatureCollection(), nil
	}

	gradeProp, err := findPropByPrefix(riskAreas.Features[0].Properties, opts.GradeColPrefix)
	if err != nil {
		return nil, err
	}

	riskIDProp := opts.RiskIDProp
	if riskIDProp == "" {
		riskIDProp, err = firstPropKey(riskAreas.Features[0].Properties)
		if err != nil {
			return nil, fmt.Errorf("risk-area layer: %w", err)
		}
	}
	subIDProp := opts.SubprefeituraIDProp
	if subIDProp == "" {
		if len(subprefeituras.Features) == 0 {
			return nil, fmt.Errorf("subprefeitura layer is empty")
		}
		subIDProp, err = firstPropKey(subprefeituras.Features[0].Properties)
		if err != nil {
			return nil, fmt.Errorf("subprefeitura layer: %w", err)
		}
	}

	activePrefix := strings.ToLower(opts.ActiveRiskPrefix)

	out := geojson.NewFeatureCollection()
	for i, rf := range riskAreas.Features {
		grade, _ := rf.Properties[gradeProp].(string)
		if !strings.HasPrefix(strings.ToLower(grade), activePrefix) {
			continue
		}
		riskID, ok := rf.Properties[riskIDProp]
		if !ok {
			return nil, fmt.Errorf("risk area %d: property %q not found", i, riskIDProp)
		}

		for j, sf := range subprefeituras.Features {
			shared, err := geo.IntersectionArea(rf.Geometry, sf.Geometry)
			if err != nil {
				return nil, fmt.Errorf("risk area %d x subprefeitura %d: %w", i, j, err)
			}
			if shared <= 0 {
				continue
			}
			subID, ok := sf.Properties[subIDProp]
			if !ok {
				return nil, fmt.Errorf("subprefeitura %d: property %q not found", j, subIDProp)
			}

			nf := geojson.NewFeature(rf.Geometry)
			for k, v := range rf.Properties {
				nf.Properties[k] = v
			}
			nf.Properties[CombinedIDProp] = fmt.Sprintf("%v.subpref.%v", riskID, subID)
			nf.Properties[subIDProp] = subID
			for _, k := range opts.ExtraSubprefeituraProps {
				v, ok := sf.Properties[k]
				if !ok {
					continue
				}
				if s, isString := v.(string); isString {
					v = clean.Subprefeitura(s)
				}
				nf.Properties[k] = v
			}
			nf.Properties[IntersectionAreaProp] = shared
			out.Append(nf)
		}
	}
	return out, nil
}

// findPropByPrefix returns the first property key (sorted) containing the
// prefix, mirroring how the grade column is located in the source layer.
func findPropByPrefix(props geojson.Properties, prefix string) (string, error) {
	for _, k := range sortedKeys(props) {
		if strings.Contains(k, prefix) {
			return k, nil
		}
	}
	return "", fmt.Errorf("no property matches prefix %q", prefix)
}

func firstPropKey(props geojson.Properties) (string, error) {
	keys := sortedKeys(props)
	if len(keys) == 0 {
		return "", fmt.Errorf("feature has no properties")
	}
	return keys[0], nil
}

func sortedKeys(props geojson.Properties) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
