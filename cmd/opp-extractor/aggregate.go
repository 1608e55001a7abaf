// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opp-observatorio/opp-extractor/internal/tabular"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <csv-file>",
	Short: "Group and aggregate a CSV resource",
	Long: `Aggregate parses a downloaded CSV resource, groups rows by a dimension
column, and aggregates a measure column. Useful for quick indicator checks
without leaving the terminal: enrollment per district, budget execution per
agency, and so on.

Column headers are snake-cased, so "Ano Letivo" becomes ano_letivo.`,
	Args: cobra.ExactArgs(1),
	RunE: runAggregate,
}

func runAggregate(cmd *cobra.Command, args []string) error {
	groupBy, _ := cmd.Flags().GetString("by")
	measure, _ := cmd.Flags().GetString("measure")
	aggregation, _ := cmd.Flags().GetString("agg")
	limit, _ := cmd.Flags().GetInt("limit")

	if groupBy == "" {
		return fmt.Errorf("--by is required")
	}
	if measure == "" && aggregation != "count" {
		return fmt.Errorf("--measure is required (or use --agg count)")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	records, _, err := tabular.ParseCSV(f)
	if err != nil {
		return err
	}

	groups, err := tabular.GroupAndAggregate(records, groupBy, measure, aggregation, limit)
	if err != nil {
		return err
	}

	w := table.NewWriter()
	w.SetOutputMirror(os.Stdout)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{groupBy, aggregation, "rows"})
	for _, g := range groups {
		w.AppendRow(table.Row{g.Key, g.Value, g.Count})
	}
	w.Render()
	return nil
}

func init() {
	aggregateCmd.Flags().String("by", "", "dimension column to group by")
	aggregateCmd.Flags().String("measure", "", "measure column to aggregate")
	aggregateCmd.Flags().String("agg", "sum", "aggregation: sum, mean, count, min, or max")
	aggregateCmd.Flags().Int("limit", 0, "maximum groups to show (0 = all)")

	rootCmd.AddCommand(aggregateCmd)
}
