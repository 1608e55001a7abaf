// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

// QueryOptions holds parameters for catalog queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over title, description,
	// and tags.
	Query string

	// Group filters by working group.
	Group types.WorkingGroup

	// Source filters by acquisition channel (ckan, wfs, url, manual).
	Source types.DatasetSource

	// Format filters by data format (csv, geojson, ...).
	Format string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Group == "" && q.Source == "" && q.Format == ""
}

// Retrieve queries the catalog with optional full-text search and
// structured filters. Results are ranked by relevance for full-text
// queries or sorted by group and id for structured-only queries.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.Dataset, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT d.id, d.grp, d.title, d.description, d.source, d.source_url,
				d.path, d.format, d.tags, d.fetched_at, d.size_bytes
			FROM datasets_fts
			JOIN datasets d ON d.rowid = datasets_fts.rowid
			WHERE datasets_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT d.id, d.grp, d.title, d.description, d.source, d.source_url,
				d.path, d.format, d.tags, d.fetched_at, d.size_bytes
			FROM datasets d
			WHERE 1=1`)
	}

	if opts.Group != "" {
		qb.WriteString(` AND d.grp = ?`)
		args = append(args, string(opts.Group))
	}

	if opts.Source != "" {
		qb.WriteString(` AND d.source = ?`)
		args = append(args, string(opts.Source))
	}

	if opts.Format != "" {
		qb.WriteString(` AND d.format = ?`)
		args = append(args, strings.ToLower(opts.Format))
	}

	if useFTS {
		qb.WriteString(` ORDER BY datasets_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY d.grp, d.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []types.Dataset
	for rows.Next() {
		var (
			ds        types.Dataset
			group     string
			source    string
			tagsJSON  sql.NullString
			fetchedAt sql.NullString
		)

		if err := rows.Scan(
			&ds.ID, &group, &ds.Title, &ds.Description, &source, &ds.SourceURL,
			&ds.Path, &ds.Format, &tagsJSON, &fetchedAt, &ds.SizeBytes,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		ds.Group = types.WorkingGroup(group)
		ds.Source = types.DatasetSource(source)
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &ds.Tags)
		}
		if fetchedAt.Valid && fetchedAt.String != "" {
			if t, err := time.Parse(time.RFC3339, fetchedAt.String); err == nil {
				ds.FetchedAt = t
			}
		}

		results = append(results, ds)
	}

	return results, rows.Err()
}

// Groups returns the distinct working groups present in the catalog with
// their dataset counts.
func (s *Store) Groups(ctx context.Context) (map[types.WorkingGroup]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT grp, count(*) FROM datasets GROUP BY grp`)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.WorkingGroup]int)
	for rows.Next() {
		var grp string
		var n int
		if err := rows.Scan(&grp, &n); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		counts[types.WorkingGroup(grp)] = n
	}
	return counts, rows.Err()
}
