// Package sqlite registers the "sqlite" metastore kind on modernc.org/sqlite.
// The DSN is a file path.
package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"doc2db/internal/errs"
	"doc2db/internal/metastore"

	_ "modernc.org/sqlite"
)

// Dialect is the SQLite flavour of the metastore schema.
var Dialect = metastore.Dialect{
	Name:        "sqlite",
	Driver:      "sqlite",
	Placeholder: metastore.QuestionMark,
	InsertID:    metastore.LastInsertID,
	Bootstrap: []string{
		`CREATE TABLE IF NOT EXISTS projects (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS extractions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id INTEGER NOT NULL REFERENCES projects(id),
  er_diagram TEXT NOT NULL DEFAULT '',
  sql_ddl TEXT NOT NULL DEFAULT '',
  raw_response TEXT NOT NULL DEFAULT '',
  extraction_data TEXT NOT NULL DEFAULT '',
  source_provider TEXT NOT NULL DEFAULT '',
  document_name TEXT NOT NULL DEFAULT '',
  document_checksum TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_project ON extractions(project_id)`,
	},
}

func init() {
	metastore.Register("sqlite", Open)
}

// Open opens (creating if needed) the metastore file at cfg.DSN.
func Open(ctx context.Context, cfg metastore.Config) (metastore.Store, error) {
	if cfg.DSN == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "metastore sqlite: path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "metastore sqlite: create dir", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		escapePath(cfg.DSN))

	s, err := metastore.OpenSQL(ctx, Dialect, dsn)
	if err != nil {
		return nil, err
	}
	s.DB().SetMaxOpenConns(1)
	return s, nil
}

// escapePath percent-encodes each path segment for use in a file: URI.
func escapePath(path string) string {
	segs := strings.Split(filepath.ToSlash(path), "/")
	for i := range segs {
		segs[i] = url.PathEscape(segs[i])
	}
	return strings.Join(segs, "/")
}
