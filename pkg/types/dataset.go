// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the opp-extractor toolkit.
package types

import (
	"fmt"
	"strings"
	"time"
)

// WorkingGroup is a thematic subdivision of the observatory. Every dataset
// and every data directory is partitioned by working group.
type WorkingGroup string

const (
	GroupEducacao  WorkingGroup = "educacao"
	GroupGenero    WorkingGroup = "genero"
	GroupSaude     WorkingGroup = "saude"
	GroupUrbanismo WorkingGroup = "urbanismo"
	GroupOrcamento WorkingGroup = "orcamento"
)

// WorkingGroups lists the canonical groups in display order.
var WorkingGroups = []WorkingGroup{
	GroupEducacao,
	GroupGenero,
	GroupSaude,
	GroupUrbanismo,
	GroupOrcamento,
}

// groupAliases maps accented and shorthand spellings to canonical groups.
var groupAliases = map[string]WorkingGroup{
	"educacao":  GroupEducacao,
	"educação":  GroupEducacao,
	"genero":    GroupGenero,
	"gênero":    GroupGenero,
	"saude":     GroupSaude,
	"saúde":     GroupSaude,
	"urbanismo": GroupUrbanismo,
	"orcamento": GroupOrcamento,
	"orçamento": GroupOrcamento,
}

// ParseWorkingGroup resolves a user-supplied group name to its canonical
// form. Accented spellings are accepted.
func ParseWorkingGroup(s string) (WorkingGroup, error) {
	g, ok := groupAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown working group %q (expected one of: educacao, genero, saude, urbanismo, orcamento)", s)
	}
	return g, nil
}

// DatasetSource identifies where a dataset came from.
type DatasetSource string

const (
	SourceCKAN   DatasetSource = "ckan"
	SourceWFS    DatasetSource = "wfs"
	SourceURL    DatasetSource = "url"
	SourceManual DatasetSource = "manual"
)

// Dataset holds metadata for one resource under data/<group>/. Fetched
// resources get a record at download time; manually placed files get one
// through registration so they remain discoverable in the catalog.
type Dataset struct {
	// ID is a filesystem-safe slug derived from the resource name.
	ID string `json:"id" yaml:"id"`

	// Group is the working group the dataset belongs to.
	Group WorkingGroup `json:"group" yaml:"group"`

	// Title is the human-readable resource name from the source portal.
	Title string `json:"title" yaml:"title"`

	// Description is the resource description, when the portal provides one.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Source identifies the acquisition channel: ckan, wfs, url, or manual.
	Source DatasetSource `json:"source" yaml:"source"`

	// SourceURL is the URL the resource was downloaded from. Empty for
	// manually placed files.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// Path is the local filesystem path of the data file.
	Path string `json:"path" yaml:"path"`

	// Format is the data format in lowercase (csv, geojson, xlsx, ...).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Tags are lowercase topic labels used for catalog search.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// FetchedAt is when the file was downloaded or registered.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`

	// SizeBytes is the size of the data file.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`
}
