// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads portal resources into the per-group data layout
// and writes metadata sidecars.
//
// Layout: data/<group>/raw/ holds the files, data/<group>/metadata/ holds
// one YAML sidecar per file. Manually sourced files live in raw/ too and
// get their sidecar through RegisterManual.
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/opp-observatorio/opp-extractor/internal/clean"
	"github.com/opp-observatorio/opp-extractor/internal/httputil"
	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

const (
	rawDir      = "raw"
	metadataDir = "metadata"

	defaultConcurrency = 4
)

// Resource identifies one file to download.
type Resource struct {
	// Name is the human-readable resource name; the slug derives from it.
	Name string

	// URL is the download location.
	URL string

	// Format is the declared format (csv, geojson, ...). When empty it is
	// guessed from the URL extension.
	Format string

	// Description and Tags are carried into the metadata sidecar.
	Description string
	Tags        []string

	// Source overrides the acquisition channel recorded in the sidecar
	// (default "url").
	Source types.DatasetSource
}

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Datasets   []*types.Dataset
}

// Total returns the total number of resources processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any resources failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchResource downloads a single resource into data/<group>/raw/ and
// writes its metadata sidecar. If the file already exists on disk, the
// download is skipped. The skipped return value indicates whether the
// download was skipped.
func FetchResource(ctx context.Context, client *http.Client, res Resource, group types.WorkingGroup, cfg types.FetchConfig, w io.Writer) (ds *types.Dataset, skipped bool, err error) {
	if res.URL == "" {
		return nil, false, fmt.Errorf("resource %q has no URL", res.Name)
	}

	slug := resourceSlug(res)
	format := resourceFormat(res)

	dataPath := filepath.Join(cfg.DataDir, string(group), rawDir, fileName(slug, format))
	metaPath := filepath.Join(cfg.DataDir, string(group), metadataDir, slug+".yaml")

	// Skip if the file already exists.
	if info, statErr := os.Stat(dataPath); statErr == nil {
		fmt.Fprintf(w, "skipped: %s/%s (already exists)\n", group, slug)
		d, readErr := ReadSidecar(metaPath)
		if readErr != nil {
			d = &types.Dataset{ID: slug, Group: group, Path: dataPath, SizeBytes: info.Size()}
		}
		return d, true, nil
	}

	for _, dir := range []string{filepath.Dir(dataPath), filepath.Dir(metaPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	fmt.Fprintf(w, "downloading: %s/%s\n", group, slug)

	size, err := downloadFile(ctx, client, res.URL, dataPath, cfg)
	if err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", slug, err)
	}

	source := res.Source
	if source == "" {
		source = types.SourceURL
	}

	d := &types.Dataset{
		ID:          slug,
		Group:       group,
		Title:       res.Name,
		Description: res.Description,
		Source:      source,
		SourceURL:   res.URL,
		Path:        dataPath,
		Format:      format,
		Tags:        res.Tags,
		FetchedAt:   time.Now().UTC(),
		SizeBytes:   size,
	}

	if err := WriteSidecar(d, metaPath); err != nil {
		return nil, false, fmt.Errorf("writing metadata for %s: %w", slug, err)
	}

	return d, false, nil
}

// syncWriter serializes writes so concurrent fetch goroutines can share
// one status writer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

// FetchBatch downloads multiple resources with bounded concurrency,
// printing per-item status and returning a summary. It continues after
// individual failures and applies a delay between submissions so the
// portals are not hammered.
func FetchBatch(ctx context.Context, client *http.Client, resources []Resource, group types.WorkingGroup, cfg types.FetchConfig, w io.Writer) BatchResult {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var (
		mu     sync.Mutex
		result BatchResult
	)
	out := &syncWriter{w: w}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, res := range resources {
		if i > 0 && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		g.Go(func() error {
			ds, wasSkipped, err := FetchResource(gctx, client, res, group, cfg, out)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(out, "failed:  %s (%v)\n", res.Name, err)
				result.Failed++
				return nil
			}
			if wasSkipped {
				result.Skipped++
			} else {
				result.Downloaded++
			}
			result.Datasets = append(result.Datasets, ds)
			return nil
		})
	}
	g.Wait()

	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// RegisterManual writes a metadata sidecar for a file that was placed in
// data/<group>/raw/ by hand, so manually sourced data shows up in the
// catalog alongside fetched resources.
func RegisterManual(path, title string, group types.WorkingGroup, tags []string, cfg types.FetchConfig) (*types.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	slug := clean.Slug(title)
	if slug == "" {
		return nil, fmt.Errorf("cannot derive a slug from %q", title)
	}

	d := &types.Dataset{
		ID:        slug,
		Group:     group,
		Title:     title,
		Source:    types.SourceManual,
		Path:      path,
		Format:    strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")),
		Tags:      tags,
		FetchedAt: time.Now().UTC(),
		SizeBytes: info.Size(),
	}

	metaPath := filepath.Join(cfg.DataDir, string(group), metadataDir, slug+".yaml")
	if err := os.MkdirAll(filepath.Dir(metaPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	if err := WriteSidecar(d, metaPath); err != nil {
		return nil, err
	}
	return d, nil
}

// downloadFile fetches url to destPath using a temporary file, renaming on
// success so partial downloads never land under raw/. It sets User-Agent
// and retries throttled responses.
func downloadFile(ctx context.Context, client *http.Client, rawURL, destPath string, cfg types.FetchConfig) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return 0, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	size, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return size, nil
}

// resourceSlug derives the filesystem slug for a resource: the cleaned
// name, then the URL path basename, then a hash of the URL.
func resourceSlug(res Resource) string {
	if s := clean.Slug(res.Name); s != "" {
		return s
	}
	if u, err := url.Parse(res.URL); err == nil {
		base := strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
		if s := clean.Slug(base); s != "" {
			return s
		}
	}
	return urlHashSlug(res.URL)
}

// resourceFormat returns the lowercase format, guessing from the URL
// extension when the portal omits it.
func resourceFormat(res Resource) string {
	if res.Format != "" {
		return strings.ToLower(res.Format)
	}
	if u, err := url.Parse(res.URL); err == nil {
		if ext := strings.TrimPrefix(filepath.Ext(u.Path), "."); ext != "" {
			return strings.ToLower(ext)
		}
	}
	return ""
}

func fileName(slug, format string) string {
	if format == "" {
		return slug
	}
	return slug + "." + format
}

func urlHashSlug(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("url-%x", h[:8])
}

// WriteSidecar writes a Dataset record to a YAML file.
func WriteSidecar(d *types.Dataset, path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSidecar reads a Dataset record from a YAML file.
func ReadSidecar(path string) (*types.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d types.Dataset
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
