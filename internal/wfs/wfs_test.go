// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wfs

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

const sampleCapabilitiesXML = `<?xml version="1.0" encoding="UTF-8"?>
<wfs:WFS_Capabilities xmlns:wfs="http://www.opengis.net/wfs" xmlns:ows="http://www.opengis.net/ows" version="1.1.0">
  <wfs:FeatureTypeList>
    <wfs:FeatureType>
      <wfs:Name>geoportal:subprefeitura</wfs:Name>
      <wfs:Title>Subprefeituras</wfs:Title>
      <wfs:Abstract>Limites administrativos das subprefeituras</wfs:Abstract>
    </wfs:FeatureType>
    <wfs:FeatureType>
      <wfs:Name>geoportal:setor_censitario</wfs:Name>
      <wfs:Title>Setores Censitários 2010</wfs:Title>
      <wfs:Abstract>Malha de setores do censo IBGE</wfs:Abstract>
    </wfs:FeatureType>
    <wfs:FeatureType>
      <wfs:Name>geoportal:vegetacao</wfs:Name>
      <wfs:Title>Cobertura Vegetal</wfs:Title>
      <wfs:Abstract></wfs:Abstract>
    </wfs:FeatureType>
  </wfs:FeatureTypeList>
</wfs:WFS_Capabilities>`

const sampleFeaturesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[4,0],[4,4],[0,4],[0,0]]]},
      "properties": {"cd_subpref": "01", "nm_subpref": "SE"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Polygon", "coordinates": [[[4,0],[8,0],[8,4],[4,4],[4,0]]]},
      "properties": {"cd_subpref": "02", "nm_subpref": "MOOCA"}
    }
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("request") {
		case "GetCapabilities":
			w.Header().Set("Content-Type", "text/xml")
			fmt.Fprint(w, sampleCapabilitiesXML)
		case "GetFeature":
			if r.URL.Query().Get("typeName") == "" {
				http.Error(w, "missing typeName", http.StatusBadRequest)
				return
			}
			if r.URL.Query().Get("outputFormat") != FormatGeoJSON {
				http.Error(w, "unsupported format", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, sampleFeaturesJSON)
		default:
			http.NotFound(w, r)
		}
	}))
}

func testClient(ts *httptest.Server) *Client {
	return NewClient(types.WFSConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "opp-extractor-test/0.1",
		},
		BaseURL: ts.URL,
	}, ts.Client())
}

func TestGetCapabilities(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	fts, err := c.GetCapabilities(context.Background(), "")
	if err != nil {
		t.Fatalf("GetCapabilities: %v", err)
	}
	if len(fts) != 3 {
		t.Fatalf("len(fts) = %d, want 3", len(fts))
	}
	if fts[0].Name != "geoportal:subprefeitura" {
		t.Errorf("Name = %q", fts[0].Name)
	}
	if fts[1].Title != "Setores Censitários 2010" {
		t.Errorf("Title = %q", fts[1].Title)
	}
}

func TestGetCapabilitiesFilter(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	tests := []struct {
		name   string
		filter string
		want   int
	}{
		{"matches name", "vegetacao", 1},
		{"matches title case insensitive", "CENSIT", 1},
		{"matches abstract", "IBGE", 1},
		{"matches none", "hidrografia", 0},
		{"matches several", "geoportal", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fts, err := c.GetCapabilities(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("GetCapabilities: %v", err)
			}
			if len(fts) != tt.want {
				t.Errorf("len(fts) = %d, want %d", len(fts), tt.want)
			}
		})
	}
}

func TestGetFeatures(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	fc, err := c.GetFeatures(context.Background(), "geoportal:subprefeitura")
	if err != nil {
		t.Fatalf("GetFeatures: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("len(Features) = %d, want 2", len(fc.Features))
	}
	if got := fc.Features[0].Properties["nm_subpref"]; got != "SE" {
		t.Errorf("nm_subpref = %v, want SE", got)
	}
}

func TestWriteFeatures(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	var buf bytes.Buffer
	n, err := c.WriteFeatures(context.Background(), "geoportal:subprefeitura", &buf)
	if err != nil {
		t.Fatalf("WriteFeatures: %v", err)
	}
	if n != int64(len(sampleFeaturesJSON)) {
		t.Errorf("n = %d, want %d", n, len(sampleFeaturesJSON))
	}
	if !strings.Contains(buf.String(), `"FeatureCollection"`) {
		t.Error("output should contain the raw GeoJSON body")
	}
}

func TestGetFeaturesHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()
	c := testClient(ts)

	_, err := c.GetFeatures(context.Background(), "geoportal:subprefeitura")
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("error = %q, want HTTP 500 mention", err.Error())
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.WFSConfig{}, http.DefaultClient)
	if c.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, DefaultBaseURL)
	}
}
