// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wfs queries the GeoSampa WFS geoserver for map layers.
// GeoSampa publishes the municipal geographic base (census tracts,
// subprefeituras, vegetation cover, risk areas) as OGC WFS feature types.
package wfs

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/opp-observatorio/opp-extractor/internal/httputil"
	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

// DefaultBaseURL is the GeoSampa WFS endpoint.
const DefaultBaseURL = "https://wfs.geosampa.prefeitura.sp.gov.br/geoserver/geoportal/wfs"

const (
	service    = "WFS"
	wfsVersion = "1.1.0"

	// FormatGeoJSON is the only GetFeature output format the extractor
	// supports.
	FormatGeoJSON = "application/json"
)

// Client talks to a WFS 1.1.0 server.
type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

// NewClient builds a Client from configuration, applying defaults.
func NewClient(cfg types.WFSConfig, httpClient *http.Client) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		BaseURL:   base,
		UserAgent: cfg.UserAgent,
		HTTP:      httpClient,
	}
}

// FeatureType describes one layer advertised by the server.
type FeatureType struct {
	Name     string
	Title    string
	Abstract string
}

// Capabilities XML structures. Only the feature type list is decoded;
// element names match by local name so the wfs/ows namespaces need no
// special handling.
type capabilitiesDoc struct {
	FeatureTypes []featureTypeXML `xml:"FeatureTypeList>FeatureType"`
}

type featureTypeXML struct {
	Name     string `xml:"Name"`
	Title    string `xml:"Title"`
	Abstract string `xml:"Abstract"`
}

// GetCapabilities lists the server's feature types. When filter is
// non-empty, a feature type is kept if the filter appears (case-insensitive)
// in its name, title, or abstract.
func (c *Client) GetCapabilities(ctx context.Context, filter string) ([]FeatureType, error) {
	params := url.Values{
		"service": {service},
		"version": {wfsVersion},
		"request": {"GetCapabilities"},
	}

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc capabilitiesDoc
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing capabilities: %w", err)
	}

	needle := strings.ToLower(filter)
	var fts []FeatureType
	for _, ft := range doc.FeatureTypes {
		if ft.Name == "" {
			continue
		}
		if filter != "" &&
			!strings.Contains(strings.ToLower(ft.Name), needle) &&
			!strings.Contains(strings.ToLower(ft.Title), needle) &&
			!strings.Contains(strings.ToLower(ft.Abstract), needle) {
			continue
		}
		fts = append(fts, FeatureType{
			Name:     strings.TrimSpace(ft.Name),
			Title:    strings.TrimSpace(ft.Title),
			Abstract: strings.TrimSpace(ft.Abstract),
		})
	}
	return fts, nil
}

// GetFeatures fetches a layer and decodes it as a GeoJSON feature collection.
func (c *Client) GetFeatures(ctx context.Context, typeName string) (*geojson.FeatureCollection, error) {
	data, err := c.fetchFeatures(ctx, typeName)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing features for %s: %w", typeName, err)
	}
	return fc, nil
}

// WriteFeatures fetches a layer and streams the raw GeoJSON body to w,
// for saving directly to a data directory.
func (c *Client) WriteFeatures(ctx context.Context, typeName string, w io.Writer) (int64, error) {
	params := featureParams(typeName)
	resp, err := c.get(ctx, params)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

func (c *Client) fetchFeatures(ctx context.Context, typeName string) ([]byte, error) {
	resp, err := c.get(ctx, featureParams(typeName))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func featureParams(typeName string) url.Values {
	return url.Values{
		"service":      {service},
		"version":      {wfsVersion},
		"request":      {"GetFeature"},
		"typeName":     {typeName},
		"outputFormat": {FormatGeoJSON},
	}
}

func (c *Client) get(ctx context.Context, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("WFS request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("WFS server returned HTTP %d", resp.StatusCode)
	}
	return resp, nil
}
