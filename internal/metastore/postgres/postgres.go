// Package postgres registers the "postgres" metastore kind on pgx's
// database/sql driver.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"doc2db/internal/errs"
	"doc2db/internal/metastore"
)

var Dialect = metastore.Dialect{
	Name:        "postgres",
	Driver:      "pgx",
	Placeholder: metastore.Dollar,
	InsertID:    metastore.Returning,
	Bootstrap: []string{
		`CREATE TABLE IF NOT EXISTS projects (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS extractions (
  id BIGSERIAL PRIMARY KEY,
  project_id BIGINT NOT NULL REFERENCES projects(id),
  er_diagram TEXT NOT NULL DEFAULT '',
  sql_ddl TEXT NOT NULL DEFAULT '',
  raw_response TEXT NOT NULL DEFAULT '',
  extraction_data TEXT NOT NULL DEFAULT '',
  source_provider TEXT NOT NULL DEFAULT '',
  document_name TEXT NOT NULL DEFAULT '',
  document_checksum TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_project ON extractions(project_id)`,
	},
}

func init() {
	metastore.Register("postgres", Open)
}

// Open validates the DSN with pgx before handing it to database/sql.
func Open(ctx context.Context, cfg metastore.Config) (metastore.Store, error) {
	if _, err := pgx.ParseConfig(cfg.DSN); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "metastore postgres: dsn", err)
	}
	return metastore.OpenSQL(ctx, Dialect, cfg.DSN)
}
