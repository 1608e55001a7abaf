// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var packagesCmd = &cobra.Command{
	Use:   "packages [filter]",
	Short: "List datasets published on the open-data portal",
	Long: `Packages queries the portal's CKAN action API. Without arguments it
lists every package name; with a filter argument only names containing
the filter are shown. Use subcommands to inspect a single package.`,
	RunE: runPackagesList,
}

func runPackagesList(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	client := ckanClient(timeout)

	filter := ""
	if len(args) > 0 {
		filter = strings.Join(args, " ")
	}

	names, err := client.PackageList(context.Background(), filter)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	fmt.Fprintf(os.Stderr, "%d packages\n", len(names))
	return nil
}

// --- show subcommand ---

var packagesShowCmd = &cobra.Command{
	Use:   "show <package>",
	Short: "Show a package's metadata and resources",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackagesShow,
}

func runPackagesShow(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	client := ckanClient(timeout)

	pkg, err := client.PackageShow(context.Background(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pkg)
	}

	fmt.Printf("Name:  %s\n", pkg.Name)
	fmt.Printf("Title: %s\n", pkg.Title)
	if pkg.Notes != "" {
		fmt.Printf("Notes: %s\n", pkg.Notes)
	}
	fmt.Printf("Resources (%d):\n", len(pkg.Resources))
	for _, r := range pkg.Resources {
		fmt.Printf("  %-8s %s\n", strings.ToLower(r.Format), r.Name)
	}
	return nil
}

// --- resources subcommand ---

var packagesResourcesCmd = &cobra.Command{
	Use:   "resources <package>",
	Short: "List a package's downloadable resources with URLs",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackagesResources,
}

func runPackagesResources(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	filter, _ := cmd.Flags().GetString("filter")
	client := ckanClient(timeout)

	resources, err := client.PackageResources(context.Background(), args[0], filter)
	if err != nil {
		return err
	}

	for _, r := range resources {
		fmt.Printf("%-8s %-50s %s\n", strings.ToLower(r.Format), truncate(r.Name, 50), r.URL)
	}
	fmt.Fprintf(os.Stderr, "%d resources\n", len(resources))
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func init() {
	packagesCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	packagesShowCmd.Flags().Bool("json", false, "output package metadata as JSON")
	packagesResourcesCmd.Flags().String("filter", "", "only resources whose name or format contains this")

	packagesCmd.AddCommand(packagesShowCmd)
	packagesCmd.AddCommand(packagesResourcesCmd)

	rootCmd.AddCommand(packagesCmd)
}
