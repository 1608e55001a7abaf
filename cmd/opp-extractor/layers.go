// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opp-observatorio/opp-extractor/internal/fetch"
	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

var layersCmd = &cobra.Command{
	Use:   "layers [filter]",
	Short: "List geographic layers published on GeoSampa",
	Long: `Layers queries the GeoSampa WFS GetCapabilities document. Without
arguments it lists every feature type; with a filter argument only layers
whose name, title, or abstract contains the filter are shown.`,
	RunE: runLayersList,
}

func runLayersList(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	client := wfsClient(timeout)

	filter := ""
	if len(args) > 0 {
		filter = strings.Join(args, " ")
	}

	layers, err := client.GetCapabilities(context.Background(), filter)
	if err != nil {
		return err
	}
	for _, l := range layers {
		fmt.Printf("%-50s %s\n", l.Name, truncate(l.Title, 60))
	}
	fmt.Fprintf(os.Stderr, "%d layers\n", len(layers))
	return nil
}

// --- fetch subcommand ---

var layersFetchCmd = &cobra.Command{
	Use:   "fetch <typename>",
	Short: "Download a layer as GeoJSON into the group's data directory",
	Long: `Fetch downloads the named feature type as GeoJSON into
data/<group>/raw/ and writes a metadata sidecar, so the layer shows up in
the catalog like any other dataset.`,
	Args: cobra.ExactArgs(1),
	RunE: runLayersFetch,
}

func runLayersFetch(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	groupName, _ := cmd.Flags().GetString("group")
	dir, _ := cmd.Flags().GetString("data-dir")

	group, err := types.ParseWorkingGroup(groupName)
	if err != nil {
		return err
	}

	client := wfsClient(timeout)
	typeName := args[0]

	cfg := types.FetchConfig{
		HTTPConfig: httpConfig(timeout),
		DataDir:    dataDir(dir),
	}

	// WFS responses stream straight to disk; the sidecar comes from a
	// manual registration of the written file.
	slug := strings.ReplaceAll(strings.ToLower(typeName), ":", "-")
	destPath := filepath.Join(cfg.DataDir, string(group), "raw", slug+".geojson")
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	n, err := client.WriteFeatures(context.Background(), typeName, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(destPath)
		return err
	}

	ds, err := fetch.RegisterManual(destPath, typeName, group, nil, cfg)
	if err != nil {
		return err
	}
	ds.Source = types.SourceWFS
	ds.SourceURL = client.BaseURL
	sidecar := filepath.Join(cfg.DataDir, string(group), "metadata", ds.ID+".yaml")
	if err := fetch.WriteSidecar(ds, sidecar); err != nil {
		return err
	}

	fmt.Printf("fetched %s (%d bytes) -> %s\n", typeName, n, destPath)
	return nil
}

func init() {
	layersCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	layersFetchCmd.Flags().String("group", "urbanismo", "working group the layer belongs to")
	layersFetchCmd.Flags().String("data-dir", "", "base data directory (default: data)")

	layersCmd.AddCommand(layersFetchCmd)

	rootCmd.AddCommand(layersCmd)
}
