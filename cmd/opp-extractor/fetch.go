// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opp-observatorio/opp-extractor/internal/fetch"
	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [urls...]",
	Short: "Download dataset files into the group's data directory",
	Long: `Fetch downloads files into data/<group>/raw/ and writes a metadata
sidecar for each one. Files that already exist on disk are skipped.
Downloads run concurrently with a polite delay between submissions.

Use "fetch resources" to download everything a portal package publishes,
or "fetch register" to create a sidecar for a file placed by hand.`,
	RunE: runFetchURLs,
}

func fetchConfig(cmd *cobra.Command) (types.FetchConfig, types.WorkingGroup, error) {
	groupName, _ := cmd.Flags().GetString("group")
	group, err := types.ParseWorkingGroup(groupName)
	if err != nil {
		return types.FetchConfig{}, "", err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	dir, _ := cmd.Flags().GetString("data-dir")

	cfg := types.FetchConfig{
		HTTPConfig:    httpConfig(timeout),
		DataDir:       dataDir(dir),
		DownloadDelay: delay,
		Concurrency:   concurrency,
	}
	return cfg, group, nil
}

func runFetchURLs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more URLs to download")
	}

	cfg, group, err := fetchConfig(cmd)
	if err != nil {
		return err
	}

	tags := tagsFlag(cmd)
	resources := make([]fetch.Resource, len(args))
	for i, rawURL := range args {
		resources[i] = fetch.Resource{URL: rawURL, Tags: tags}
	}

	client := newHTTPClient(cfg.HTTPConfig)
	result := fetch.FetchBatch(context.Background(), client, resources, group, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d download(s) failed", result.Failed)
	}
	return nil
}

// --- resources subcommand ---

var fetchResourcesCmd = &cobra.Command{
	Use:   "resources <package>",
	Short: "Download every resource of a portal package",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetchResources,
}

func runFetchResources(cmd *cobra.Command, args []string) error {
	cfg, group, err := fetchConfig(cmd)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	filter, _ := cmd.Flags().GetString("filter")
	client := ckanClient(timeout)

	pkgResources, err := client.PackageResources(context.Background(), args[0], filter)
	if err != nil {
		return err
	}
	if len(pkgResources) == 0 {
		return fmt.Errorf("package %s has no matching resources", args[0])
	}

	tags := tagsFlag(cmd)
	resources := make([]fetch.Resource, len(pkgResources))
	for i, r := range pkgResources {
		resources[i] = fetch.Resource{
			Name:        r.Name,
			URL:         r.URL,
			Format:      r.Format,
			Description: r.Description,
			Tags:        tags,
			Source:      types.SourceCKAN,
		}
	}

	httpClient := newHTTPClient(cfg.HTTPConfig)
	result := fetch.FetchBatch(context.Background(), httpClient, resources, group, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d download(s) failed", result.Failed)
	}
	return nil
}

// --- register subcommand ---

var fetchRegisterCmd = &cobra.Command{
	Use:   "register <file>",
	Short: "Write a metadata sidecar for a manually placed file",
	Long: `Register creates the metadata sidecar for a file that was placed under
data/<group>/raw/ by hand (e-mailed spreadsheets, one-off exports), so it
shows up in the catalog alongside fetched resources.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetchRegister,
}

func runFetchRegister(cmd *cobra.Command, args []string) error {
	cfg, group, err := fetchConfig(cmd)
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	ds, err := fetch.RegisterManual(args[0], title, group, tagsFlag(cmd), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("registered %s (%s, %d bytes)\n", ds.ID, ds.Format, ds.SizeBytes)
	return nil
}

func tagsFlag(cmd *cobra.Command) []string {
	raw, _ := cmd.Flags().GetString("tags")
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func init() {
	fetchCmd.PersistentFlags().String("group", "", "working group the files belong to (required)")
	fetchCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.PersistentFlags().Duration("delay", 1*time.Second, "delay between consecutive download submissions")
	fetchCmd.PersistentFlags().Int("concurrency", 0, "simultaneous downloads (default 4)")
	fetchCmd.PersistentFlags().String("data-dir", "", "base data directory (default: data)")
	fetchCmd.PersistentFlags().String("tags", "", "comma-separated tags recorded in the sidecars")

	fetchResourcesCmd.Flags().String("filter", "", "only resources whose name or format contains this")
	fetchRegisterCmd.Flags().String("title", "", "dataset title (default: file name)")

	fetchCmd.AddCommand(fetchResourcesCmd)
	fetchCmd.AddCommand(fetchRegisterCmd)

	rootCmd.AddCommand(fetchCmd)
}
