// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/opp-observatorio/opp-extractor/internal/geo"
)

var interpolateCmd = &cobra.Command{
	Use:   "interpolate",
	Short: "Areal-weighted interpolation between two GeoJSON layers",
	Long: `Interpolate transfers a numeric variable from source features (e.g.
census tracts with population) to target features (e.g. adjusted tracts),
proportionally to the intersection area over the source area. Per-target
contributions are summed and rounded to integers. Targets that intersect
no source are dropped.

Both layers must be in the same projected CRS.`,
	RunE: runInterpolate,
}

func runInterpolate(cmd *cobra.Command, args []string) error {
	sourcePath, _ := cmd.Flags().GetString("source")
	targetPath, _ := cmd.Flags().GetString("target")
	targetID, _ := cmd.Flags().GetString("target-id")
	varName, _ := cmd.Flags().GetString("var")
	finalVar, _ := cmd.Flags().GetString("final-var")
	outPath, _ := cmd.Flags().GetString("out")

	if sourcePath == "" || targetPath == "" || targetID == "" || varName == "" {
		return fmt.Errorf("--source, --target, --target-id, and --var are required")
	}

	source, err := readFeatureCollection(sourcePath)
	if err != nil {
		return err
	}
	target, err := readFeatureCollection(targetPath)
	if err != nil {
		return err
	}

	result, err := geo.Interpolate(source, target, targetID, varName, finalVar)
	if err != nil {
		return err
	}

	if err := writeFeatureCollection(result, outPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "interpolated %s onto %d features\n", varName, len(result.Features))
	return nil
}

// readFeatureCollection loads a GeoJSON FeatureCollection from a file.
func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return fc, nil
}

// writeFeatureCollection writes a FeatureCollection to a file, or stdout
// when path is empty.
func writeFeatureCollection(fc *geojson.FeatureCollection, path string) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshaling GeoJSON: %w", err)
	}
	if path == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	interpolateCmd.Flags().String("source", "", "source GeoJSON file carrying the variable")
	interpolateCmd.Flags().String("target", "", "target GeoJSON file receiving the variable")
	interpolateCmd.Flags().String("target-id", "", "target feature identifier property")
	interpolateCmd.Flags().String("var", "", "numeric variable to transfer")
	interpolateCmd.Flags().String("final-var", "", "output property name (default: same as --var)")
	interpolateCmd.Flags().String("out", "", "output file (default: stdout)")

	rootCmd.AddCommand(interpolateCmd)
}
