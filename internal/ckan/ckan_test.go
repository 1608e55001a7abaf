// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ckan

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

const samplePackageListJSON = `{
  "success": true,
  "result": [
    "matriculas-rede-municipal",
    "orcamento-executado-2023",
    "areas-verdes-municipais",
    "obitos-maternos"
  ]
}`

const samplePackageShowJSON = `{
  "success": true,
  "result": {
    "id": "abc-123",
    "name": "matriculas-rede-municipal",
    "title": "Matrículas na Rede Municipal",
    "notes": "Matrículas por distrito e etapa de ensino.",
    "resources": [
      {"name": "Matrículas 2022", "url": "http://example.com/matriculas-2022.csv", "format": "CSV"},
      {"name": "Matrículas 2023", "url": "http://example.com/matriculas-2023.csv", "format": "CSV"},
      {"name": "Dicionário de variáveis", "url": "http://example.com/dicionario.pdf", "format": "PDF"}
    ]
  }
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/action/package_list"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, samplePackageListJSON)
		case strings.HasSuffix(r.URL.Path, "/action/package_show"):
			if r.URL.Query().Get("id") == "" {
				http.Error(w, "missing id", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, samplePackageShowJSON)
		case strings.HasSuffix(r.URL.Path, "/action/broken"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"success": false, "result": null}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func testClient(ts *httptest.Server) *Client {
	return NewClient(types.CKANConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "opp-extractor-test/0.1",
		},
		BaseURL: ts.URL,
	}, ts.Client())
}

func TestPackageList(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	names, err := c.PackageList(context.Background(), "")
	if err != nil {
		t.Fatalf("PackageList: %v", err)
	}
	if len(names) != 4 {
		t.Errorf("len(names) = %d, want 4", len(names))
	}
}

func TestPackageListFilter(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"matches one", "orcamento", []string{"orcamento-executado-2023"}},
		{"case insensitive", "MATRICULAS", []string{"matriculas-rede-municipal"}},
		{"matches none", "transporte", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.PackageList(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("PackageList: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("names[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPackageShow(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	p, err := c.PackageShow(context.Background(), "matriculas-rede-municipal")
	if err != nil {
		t.Fatalf("PackageShow: %v", err)
	}
	if p.Title != "Matrículas na Rede Municipal" {
		t.Errorf("Title = %q", p.Title)
	}
	if len(p.Resources) != 3 {
		t.Errorf("len(Resources) = %d, want 3", len(p.Resources))
	}
}

func TestPackageResourcesFilter(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	resources, err := c.PackageResources(context.Background(), "matriculas-rede-municipal", "2023")
	if err != nil {
		t.Fatalf("PackageResources: %v", err)
	}
	if len(resources) != 1 {
		t.Fatalf("len(resources) = %d, want 1", len(resources))
	}
	if resources[0].Name != "Matrículas 2023" {
		t.Errorf("Name = %q", resources[0].Name)
	}
	if resources[0].Format != "CSV" {
		t.Errorf("Format = %q", resources[0].Format)
	}
}

func TestPackageResourcesFilterByFormat(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	resources, err := c.PackageResources(context.Background(), "matriculas-rede-municipal", "pdf")
	if err != nil {
		t.Fatalf("PackageResources: %v", err)
	}
	if len(resources) != 1 {
		t.Fatalf("len(resources) = %d, want 1", len(resources))
	}
	if resources[0].Name != "Dicionário de variáveis" {
		t.Errorf("Name = %q", resources[0].Name)
	}
}

func TestPackageResourcesNoFilter(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	resources, err := c.PackageResources(context.Background(), "matriculas-rede-municipal", "")
	if err != nil {
		t.Fatalf("PackageResources: %v", err)
	}
	if len(resources) != 3 {
		t.Errorf("len(resources) = %d, want 3", len(resources))
	}
}

func TestActionUnsuccessfulEnvelope(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := testClient(ts)

	_, err := c.action(context.Background(), "broken", nil)
	if err == nil {
		t.Fatal("expected error for success=false envelope")
	}
	if !strings.Contains(err.Error(), "portal reported failure") {
		t.Errorf("error = %q, want 'portal reported failure'", err.Error())
	}
}

func TestActionHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()
	c := testClient(ts)

	_, err := c.PackageList(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for HTTP 404")
	}
	if !strings.Contains(err.Error(), "HTTP 404") {
		t.Errorf("error = %q, want HTTP 404 mention", err.Error())
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.CKANConfig{}, http.DefaultClient)
	if c.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, DefaultBaseURL)
	}
}
