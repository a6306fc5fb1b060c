// Package mysql registers the "mysql" metastore kind on go-sql-driver/mysql.
package mysql

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"

	"doc2db/internal/errs"
	"doc2db/internal/metastore"
)

var Dialect = metastore.Dialect{
	Name:        "mysql",
	Driver:      "mysql",
	Placeholder: metastore.QuestionMark,
	InsertID:    metastore.LastInsertID,
	Bootstrap: []string{
		`CREATE TABLE IF NOT EXISTS projects (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  created_at DATETIME(6) NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS extractions (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  project_id BIGINT NOT NULL,
  er_diagram LONGTEXT NOT NULL,
  sql_ddl LONGTEXT NOT NULL,
  raw_response LONGTEXT NOT NULL,
  extraction_data LONGTEXT NOT NULL,
  source_provider VARCHAR(64) NOT NULL DEFAULT '',
  document_name VARCHAR(512) NOT NULL DEFAULT '',
  document_checksum VARCHAR(32) NOT NULL DEFAULT '',
  created_at DATETIME(6) NOT NULL,
  INDEX idx_extractions_project (project_id),
  FOREIGN KEY (project_id) REFERENCES projects(id)
)`,
	},
}

func init() {
	metastore.Register("mysql", Open)
}

// Open forces parseTime and UTC on the DSN so timestamps scan as time.Time.
func Open(ctx context.Context, cfg metastore.Config) (metastore.Store, error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "metastore mysql: dsn", err)
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return metastore.OpenSQL(ctx, Dialect, mc.FormatDSN())
}
