// Package mssql registers the "mssql" metastore kind on go-mssqldb.
package mssql

import (
	"context"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"doc2db/internal/errs"
	"doc2db/internal/metastore"
)

var Dialect = metastore.Dialect{
	Name:        "mssql",
	Driver:      "sqlserver",
	Placeholder: metastore.AtP,
	InsertID:    metastore.OutputInserted,
	Bootstrap: []string{
		`IF OBJECT_ID(N'projects', N'U') IS NULL
CREATE TABLE projects (
  id BIGINT IDENTITY(1,1) PRIMARY KEY,
  name NVARCHAR(255) NOT NULL,
  created_at DATETIME2 NOT NULL
)`,
		`IF OBJECT_ID(N'extractions', N'U') IS NULL
CREATE TABLE extractions (
  id BIGINT IDENTITY(1,1) PRIMARY KEY,
  project_id BIGINT NOT NULL REFERENCES projects(id),
  er_diagram NVARCHAR(MAX) NOT NULL DEFAULT '',
  sql_ddl NVARCHAR(MAX) NOT NULL DEFAULT '',
  raw_response NVARCHAR(MAX) NOT NULL DEFAULT '',
  extraction_data NVARCHAR(MAX) NOT NULL DEFAULT '',
  source_provider NVARCHAR(64) NOT NULL DEFAULT '',
  document_name NVARCHAR(512) NOT NULL DEFAULT '',
  document_checksum NVARCHAR(32) NOT NULL DEFAULT '',
  created_at DATETIME2 NOT NULL
)`,
		`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'idx_extractions_project')
CREATE INDEX idx_extractions_project ON extractions(project_id)`,
	},
}

func init() {
	metastore.Register("mssql", Open)
}

// Open validates the DSN early to fail fast on obvious mistakes.
func Open(ctx context.Context, cfg metastore.Config) (metastore.Store, error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "metastore mssql: dsn", err)
	}
	return metastore.OpenSQL(ctx, Dialect, cfg.DSN)
}
