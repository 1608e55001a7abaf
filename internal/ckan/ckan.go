// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ckan queries the municipal open-data portal's CKAN action API.
// Most observatory indicators start here: a package (dataset) groups the
// resources (files) the portal publishes for one topic.
package ckan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/opp-observatorio/opp-extractor/internal/httputil"
	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

// DefaultBaseURL is the São Paulo open-data portal.
const DefaultBaseURL = "http://dados.prefeitura.sp.gov.br"

// Client talks to a CKAN action API.
type Client struct {
	BaseURL   string
	UserAgent string
	APIToken  string
	HTTP      *http.Client
}

// NewClient builds a Client from configuration, applying defaults.
func NewClient(cfg types.CKANConfig, httpClient *http.Client) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		BaseURL:   strings.TrimRight(base, "/"),
		UserAgent: cfg.UserAgent,
		HTTP:      httpClient,
	}
}

// Package holds the package fields the extractor uses.
type Package struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes"`
	Resources []Resource `json:"resources"`
}

// Resource is one downloadable file within a package.
type Resource struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Format      string `json:"format"`
}

// envelope is the CKAN action API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// PackageList fetches the portal's package names. When filter is non-empty
// only names containing it (case-insensitive) are returned.
func (c *Client) PackageList(ctx context.Context, filter string) ([]string, error) {
	raw, err := c.action(ctx, "package_list", nil)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("parsing package list: %w", err)
	}

	if filter == "" {
		return names, nil
	}
	needle := strings.ToLower(filter)
	var matched []string
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), needle) {
			matched = append(matched, name)
		}
	}
	return matched, nil
}

// PackageShow fetches the details of one package by ID or name.
func (c *Client) PackageShow(ctx context.Context, pkg string) (*Package, error) {
	raw, err := c.action(ctx, "package_show", url.Values{"id": {pkg}})
	if err != nil {
		return nil, err
	}

	var p Package
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing package %s: %w", pkg, err)
	}
	return &p, nil
}

// PackageResources fetches a package's resources, filtered by name or
// format when filter is non-empty (case-insensitive substring match).
func (c *Client) PackageResources(ctx context.Context, pkg, filter string) ([]Resource, error) {
	p, err := c.PackageShow(ctx, pkg)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(filter)
	var resources []Resource
	for _, r := range p.Resources {
		if filter == "" ||
			strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.Format), needle) {
			resources = append(resources, r)
		}
	}
	return resources, nil
}

// action performs a GET against /api/3/action/<name>, unwraps the success
// envelope, and returns the raw result.
func (c *Client) action(ctx context.Context, name string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/api/3/action/%s", c.BaseURL, name)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if c.APIToken != "" {
		req.Header.Set("Authorization", c.APIToken)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("portal request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned HTTP %d for %s", resp.StatusCode, name)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", name, err)
	}
	if !env.Success {
		return nil, fmt.Errorf("portal reported failure for %s", name)
	}
	return env.Result, nil
}
