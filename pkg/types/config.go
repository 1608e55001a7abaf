package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "opp-extractor/0.1 (contato@exemplo.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CKANConfig holds settings for the open-data portal client.
type CKANConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the portal root (default "http://dados.prefeitura.sp.gov.br").
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// WFSConfig holds settings for the GeoSampa WFS client.
type WFSConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the WFS endpoint
	// (default "https://wfs.geosampa.prefeitura.sp.gov.br/geoserver/geoportal/wfs").
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// FetchConfig holds settings for resource downloads.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DataDir is the base directory for per-group data
	// (contains <group>/raw/ and <group>/metadata/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DownloadDelay is the delay between consecutive download submissions
	// (default 1s). Keeps the batch polite toward the portals.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// Concurrency bounds the number of simultaneous downloads (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// CatalogConfig holds settings for the dataset catalog.
type CatalogConfig struct {
	// DataDir is the base directory scanned for metadata sidecars.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// CatalogDir is where the SQLite index and exports live
	// (default "<data_dir>/catalog").
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ExtractorConfig groups all component configurations.
type ExtractorConfig struct {
	CKAN    CKANConfig    `json:"ckan" yaml:"ckan"`
	WFS     WFSConfig     `json:"wfs" yaml:"wfs"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
}
