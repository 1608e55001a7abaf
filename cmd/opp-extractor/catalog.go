// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opp-observatorio/opp-extractor/internal/catalog"
	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the dataset catalog (store, retrieve, export)",
	Long: `Catalog manages the SQLite inventory of everything under data/. Use
subcommands to index sidecars, query datasets, or export the catalog.`,
}

// --- store subcommand ---

var catalogStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest metadata sidecars into the catalog",
	Long: `Store walks data/<group>/metadata/ for every working group, ingests
the YAML sidecars into a SQLite database with FTS5 indexing, and writes an
export file. Unchanged sidecars are skipped on subsequent runs.`,
	RunE: runCatalogStore,
}

func runCatalogStore(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d sidecar(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var catalogRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the catalog with full-text search and filters",
	Long: `Retrieve searches the catalog using FTS5 full-text search over titles,
descriptions, and tags, structured filters (group, source, format), or a
combination of both.`,
	RunE: runCatalogRetrieve,
}

func runCatalogRetrieve(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --group, --source, or --format")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []types.Dataset, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	w := table.NewWriter()
	w.SetOutputMirror(os.Stdout)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"ID", "Group", "Title", "Source", "Format", "Size"})
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 50},
	})
	for _, ds := range results {
		w.AppendRow(table.Row{ds.ID, ds.Group, ds.Title, ds.Source, ds.Format, ds.SizeBytes})
	}
	w.Render()

	fmt.Printf("\n%d results\n", len(results))
	return nil
}

// --- groups subcommand ---

var catalogGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Show dataset counts per working group",
	RunE:  runCatalogGroups,
}

func runCatalogGroups(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.Groups(context.Background())
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}

	groups := make([]types.WorkingGroup, 0, len(counts))
	total := 0
	for g, n := range counts {
		groups = append(groups, g)
		total += n
	}
	sort.Slice(groups, func(i, j int) bool {
		if counts[groups[i]] != counts[groups[j]] {
			return counts[groups[i]] > counts[groups[j]]
		}
		return groups[i] < groups[j]
	})

	w := table.NewWriter()
	w.SetOutputMirror(os.Stdout)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"Group", "Datasets"})
	for _, g := range groups {
		w.AppendRow(table.Row{g, counts[g]})
	}
	w.Render()

	fmt.Printf("\n%d datasets\n", total)
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML or JSON",
	Long: `Export writes the full catalog (or a filtered subset) to
export.yaml or export.json in the catalog directory. Supports the same
filter flags as retrieve for partial exports.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to the catalog directory as export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to the catalog directory as export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	dir, _ := cmd.Flags().GetString("data-dir")
	catalogDir, _ := cmd.Flags().GetString("catalog-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	cfg := types.CatalogConfig{
		DataDir:    dataDir(dir),
		CatalogDir: catalogDir,
		MaxResults: maxResults,
	}
	return catalog.NewStore(cfg)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) (catalog.QueryOptions, error) {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = args[0]
	}

	groupName, _ := cmd.Flags().GetString("group")
	source, _ := cmd.Flags().GetString("source")
	format, _ := cmd.Flags().GetString("format-filter")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := catalog.QueryOptions{
		Query:      queryText,
		Source:     types.DatasetSource(source),
		Format:     format,
		MaxResults: limit,
	}
	if groupName != "" {
		group, err := types.ParseWorkingGroup(groupName)
		if err != nil {
			return catalog.QueryOptions{}, err
		}
		opts.Group = group
	}
	return opts, nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	catalogCmd.PersistentFlags().String("data-dir", "", "base data directory (default: data)")
	catalogCmd.PersistentFlags().String("catalog-dir", "", "catalog directory (default: <data-dir>/catalog)")
	catalogCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Retrieve flags.
	catalogRetrieveCmd.Flags().String("query", "", "full-text search query")
	catalogRetrieveCmd.Flags().String("group", "", "filter by working group")
	catalogRetrieveCmd.Flags().String("source", "", "filter by source: ckan, wfs, url, manual")
	catalogRetrieveCmd.Flags().String("format-filter", "", "filter by format: csv, geojson, ...")
	catalogRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	catalogRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	catalogExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	catalogExportCmd.Flags().String("group", "", "filter by working group for partial export")
	catalogExportCmd.Flags().String("source", "", "filter by source for partial export")
	catalogExportCmd.Flags().String("format-filter", "", "filter by data format for partial export")
	catalogExportCmd.Flags().Int("limit", 0, "maximum datasets to export (0 = all)")

	// Wire subcommands.
	catalogCmd.AddCommand(catalogStoreCmd)
	catalogCmd.AddCommand(catalogRetrieveCmd)
	catalogCmd.AddCommand(catalogGroupsCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
