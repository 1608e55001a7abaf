// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists dataset metadata and builds a retrieval index.
// The catalog is the queryable inventory of everything under data/: each
// sidecar written at fetch or registration time becomes one row, searchable
// by full text and by structured filters.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/opp-observatorio/opp-extractor/internal/fetch"
	"github.com/opp-observatorio/opp-extractor/pkg/types"
)

const (
	catalogSubdir = "catalog"
	metadataDir   = "metadata"
	dbFile        = "catalog.db"
)

// Store manages the catalog SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	catalogDir string
	maxResults int
}

// NewStore opens or creates the catalog database at
// catalogDir/catalog.db. It creates the schema if it does not exist.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	catalogDir := cfg.CatalogDir
	if catalogDir == "" {
		catalogDir = filepath.Join(cfg.DataDir, catalogSubdir)
	}
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(catalogDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		catalogDir: catalogDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			grp TEXT NOT NULL,
			title TEXT,
			description TEXT,
			source TEXT,
			source_url TEXT,
			path TEXT,
			format TEXT,
			tags TEXT,
			fetched_at TEXT,
			size_bytes INTEGER,
			UNIQUE(grp, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_datasets_grp ON datasets(grp)`,
		`CREATE INDEX IF NOT EXISTS idx_datasets_source ON datasets(source)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			sidecar TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT,
			indexed INTEGER,
			updated INTEGER,
			skipped INTEGER,
			failed INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='datasets_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE datasets_fts USING fts5(title, description, tags, content=datasets, content_rowid=rowid)`,
			`CREATE TRIGGER datasets_ai AFTER INSERT ON datasets BEGIN
				INSERT INTO datasets_fts(rowid, title, description, tags) VALUES (new.rowid, new.title, new.description, new.tags);
			END`,
			`CREATE TRIGGER datasets_ad AFTER DELETE ON datasets BEGIN
				INSERT INTO datasets_fts(datasets_fts, rowid, title, description, tags) VALUES('delete', old.rowid, old.title, old.description, old.tags);
			END`,
			`CREATE TRIGGER datasets_au AFTER UPDATE ON datasets BEGIN
				INSERT INTO datasets_fts(datasets_fts, rowid, title, description, tags) VALUES('delete', old.rowid, old.title, old.description, old.tags);
				INSERT INTO datasets_fts(rowid, title, description, tags) VALUES (new.rowid, new.title, new.description, new.tags);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a catalog indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of sidecars processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest walks data/<group>/metadata/ for every group directory under the
// data dir and populates the database from the YAML sidecars. It detects
// new, changed, and unchanged files for incremental updates. Directory
// names that are not working groups are reported, not dropped silently.
// On success it writes export.yaml and records the run.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	started := time.Now().UTC()

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading data directory %s: %w", s.dataDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if filepath.Join(s.dataDir, entry.Name()) == s.catalogDir {
			continue
		}
		if _, err := types.ParseWorkingGroup(entry.Name()); err != nil {
			fmt.Fprintf(w, "warning: %s is not a working group directory, skipping\n", entry.Name())
			continue
		}

		groupSummary, err := s.ingestGroup(ctx, entry.Name(), w)
		summary.Indexed += groupSummary.Indexed
		summary.Updated += groupSummary.Updated
		summary.Skipped += groupSummary.Skipped
		summary.Failed += groupSummary.Failed
		if err != nil {
			return summary, err
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, indexed, updated, skipped, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), started.Format(time.RFC3339),
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed,
	); err != nil {
		fmt.Fprintf(w, "warning: recording run failed: %v\n", err)
	}

	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) ingestGroup(ctx context.Context, group string, w io.Writer) (IngestSummary, error) {
	metaDir := filepath.Join(s.dataDir, group, metadataDir)

	entries, err := os.ReadDir(metaDir)
	if os.IsNotExist(err) {
		return IngestSummary{}, nil
	}
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading metadata directory %s: %w", metaDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		sidecar := group + "/" + entry.Name()
		filePath := filepath.Join(metaDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sidecar, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE sidecar = ?`, sidecar,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", sidecar)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		ds, err := fetch.ReadSidecar(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sidecar, err)
			summary.Failed++
			continue
		}
		if ds.Group == "" {
			ds.Group = types.WorkingGroup(group)
		}

		if err := s.upsertDataset(ctx, ds, sidecar, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sidecar, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", sidecar)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s\n", sidecar)
			summary.Indexed++
		}
	}

	return summary, nil
}

func (s *Store) upsertDataset(ctx context.Context, ds *types.Dataset, sidecar, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	tagsJSON, _ := json.Marshal(ds.Tags)
	fetchedAt := ""
	if !ds.FetchedAt.IsZero() {
		fetchedAt = ds.FetchedAt.Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO datasets (id, grp, title, description, source, source_url, path, format, tags, fetched_at, size_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(grp, id) DO UPDATE SET
			title=excluded.title, description=excluded.description,
			source=excluded.source, source_url=excluded.source_url,
			path=excluded.path, format=excluded.format, tags=excluded.tags,
			fetched_at=excluded.fetched_at, size_bytes=excluded.size_bytes`,
		ds.ID, string(ds.Group), ds.Title, ds.Description,
		string(ds.Source), ds.SourceURL, ds.Path, ds.Format,
		string(tagsJSON), fetchedAt, ds.SizeBytes,
	)
	if err != nil {
		return fmt.Errorf("upserting dataset: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (sidecar, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(sidecar) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		sidecar, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	return tx.Commit()
}
