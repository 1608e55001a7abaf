// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/opp-observatorio/opp-extractor/internal/urbanismo"
)

var urbanismoCmd = &cobra.Command{
	Use:   "urbanismo",
	Short: "Prepare the geographic layers behind the urbanism indicators",
}

// --- parks-area subcommand ---

var urbanismoParksCmd = &cobra.Command{
	Use:   "parks-area",
	Short: "Compute the adjusted area of each census tract",
	Long: `Parks-area computes, for each census tract, the area covered by street
blocks minus vegetation cover. The result feeds the green-area availability
indicator: population interpolated onto adjusted tracts gives inhabitants
per square meter of usable urban area.

All layers must be in the same projected CRS.`,
	RunE: runUrbanismoParks,
}

func runUrbanismoParks(cmd *cobra.Command, args []string) error {
	tractsPath, _ := cmd.Flags().GetString("tracts")
	vegetationPath, _ := cmd.Flags().GetString("vegetation")
	blocksPath, _ := cmd.Flags().GetString("blocks")
	outPath, _ := cmd.Flags().GetString("out")

	if tractsPath == "" {
		return fmt.Errorf("--tracts is required")
	}

	tracts, err := readFeatureCollection(tractsPath)
	if err != nil {
		return err
	}

	var vegetation, blocks *geojson.FeatureCollection
	if vegetationPath != "" {
		if vegetation, err = readFeatureCollection(vegetationPath); err != nil {
			return err
		}
	}
	if blocksPath != "" {
		if blocks, err = readFeatureCollection(blocksPath); err != nil {
			return err
		}
	}

	result, err := urbanismo.PrepareTracts(tracts, vegetation, blocks)
	if err != nil {
		return err
	}

	if err := writeFeatureCollection(result, outPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "adjusted %d tracts\n", len(result.Features))
	return nil
}

// --- risk-areas subcommand ---

var urbanismoRiskCmd = &cobra.Command{
	Use:   "risk-areas",
	Short: "Pair active risk areas with the subprefeituras they overlap",
	Long: `Risk-areas filters the geological risk layer down to active risk grades
and pairs each remaining area with every subprefeitura it overlaps. Each
output feature carries the combined identifier
<risk_id>.subpref.<subpref_id> and the shared area.`,
	RunE: runUrbanismoRisk,
}

func runUrbanismoRisk(cmd *cobra.Command, args []string) error {
	riskPath, _ := cmd.Flags().GetString("risk")
	subprefPath, _ := cmd.Flags().GetString("subprefeituras")
	outPath, _ := cmd.Flags().GetString("out")

	if riskPath == "" || subprefPath == "" {
		return fmt.Errorf("--risk and --subprefeituras are required")
	}

	risk, err := readFeatureCollection(riskPath)
	if err != nil {
		return err
	}
	subprefeituras, err := readFeatureCollection(subprefPath)
	if err != nil {
		return err
	}

	opts := urbanismo.RiskAreaOptions{}
	opts.RiskIDProp, _ = cmd.Flags().GetString("risk-id")
	opts.GradeColPrefix, _ = cmd.Flags().GetString("grade-prefix")
	opts.ActiveRiskPrefix, _ = cmd.Flags().GetString("active-prefix")
	opts.SubprefeituraIDProp, _ = cmd.Flags().GetString("subpref-id")
	opts.ExtraSubprefeituraProps, _ = cmd.Flags().GetStringSlice("subpref-props")

	result, err := urbanismo.PrepareRiskAreas(risk, subprefeituras, opts)
	if err != nil {
		return err
	}

	if err := writeFeatureCollection(result, outPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d risk-area pairs\n", len(result.Features))
	return nil
}

func init() {
	urbanismoParksCmd.Flags().String("tracts", "", "census tract GeoJSON file (required)")
	urbanismoParksCmd.Flags().String("vegetation", "", "vegetation cover GeoJSON file")
	urbanismoParksCmd.Flags().String("blocks", "", "street block GeoJSON file")
	urbanismoParksCmd.Flags().String("out", "", "output file (default: stdout)")

	urbanismoRiskCmd.Flags().String("risk", "", "risk area GeoJSON file (required)")
	urbanismoRiskCmd.Flags().String("subprefeituras", "", "subprefeitura GeoJSON file (required)")
	urbanismoRiskCmd.Flags().String("risk-id", "", "risk-area identifier property (default: first property)")
	urbanismoRiskCmd.Flags().String("grade-prefix", "grau", "prefix locating the risk-grade property")
	urbanismoRiskCmd.Flags().String("active-prefix", "R3", "risk grades starting with this are active")
	urbanismoRiskCmd.Flags().String("subpref-id", "", "subprefeitura identifier property (default: first property)")
	urbanismoRiskCmd.Flags().StringSlice("subpref-props", nil, "extra subprefeitura properties to copy")
	urbanismoRiskCmd.Flags().String("out", "", "output file (default: stdout)")

	urbanismoCmd.AddCommand(urbanismoParksCmd)
	urbanismoCmd.AddCommand(urbanismoRiskCmd)

	rootCmd.AddCommand(urbanismoCmd)
}
