// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/opp-observatorio/opp-extractor/internal/ckan"
	"github.com/opp-observatorio/opp-extractor/internal/wfs"
	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "opp-extractor/0.1"
	defaultDataDir   = "data"
)

// userAgent builds the User-Agent header, appending the contact e-mail
// from .secrets/ when it is available so the portals can reach us.
func userAgent() string {
	if email := secretDefault("contact-email", ""); email != "" {
		return fmt.Sprintf("%s (%s)", defaultUserAgent, email)
	}
	return defaultUserAgent
}

func httpConfig(timeout time.Duration) types.HTTPConfig {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return types.HTTPConfig{
		Timeout:   timeout,
		UserAgent: userAgent(),
	}
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// ckanClient builds the portal client from viper config and secrets.
func ckanClient(timeout time.Duration) *ckan.Client {
	cfg := types.CKANConfig{
		HTTPConfig: httpConfig(timeout),
		BaseURL:    viper.GetString("ckan.base_url"),
	}
	client := ckan.NewClient(cfg, newHTTPClient(cfg.HTTPConfig))
	client.APIToken = secretDefault("ckan-api-token", "")
	return client
}

// wfsClient builds the GeoSampa client from viper config.
func wfsClient(timeout time.Duration) *wfs.Client {
	cfg := types.WFSConfig{
		HTTPConfig: httpConfig(timeout),
		BaseURL:    viper.GetString("wfs.base_url"),
	}
	return wfs.NewClient(cfg, newHTTPClient(cfg.HTTPConfig))
}

// dataDir resolves the data directory from the flag, falling back to
// viper config and then the default layout.
func dataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := viper.GetString("fetch.data_dir"); v != "" {
		return v
	}
	return defaultDataDir
}
