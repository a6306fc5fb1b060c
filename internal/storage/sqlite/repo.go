// Package sqlite implements storage.Destination on modernc.org/sqlite.
//
// A Repository holds exactly one connection for its lifetime: callers open
// it per request, apply schema or ingest rows, and close it. Concurrent
// writers in other processes are left to SQLite's own locking, bounded by the
// busy timeout.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"doc2db/internal/errs"
	"doc2db/internal/storage"
	sqliteddl "doc2db/internal/storage/sqlite/ddl"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// ErrNoDestination is returned by Open when the database file does not exist
// and Config.Create is false.
var ErrNoDestination = errs.New(errs.ErrKindNotFound, "destination does not exist")

// Repository is a SQLite-backed storage.Destination.
type Repository struct {
	db   *sql.DB
	path string
}

var _ storage.Destination = (*Repository)(nil)

// Open opens (or, with cfg.Create, creates) the database at cfg.Path and
// verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite: path must not be empty")
	}

	mode := "rw"
	if cfg.Create {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(cfg.Path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDestination
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?mode=%s&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		uriPath(cfg.Path), mode, busy.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Fail fast on unusable files.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Repository{db: db, path: cfg.Path}, nil
}

// uriPath percent-encodes each segment of path for a file: URI, so roots
// containing '?', '#' or '%' are not read as URI syntax.
func uriPath(path string) string {
	segs := strings.Split(filepath.ToSlash(path), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// Path returns the database file the repository was opened on.
func (r *Repository) Path() string { return r.path }

// Close releases the connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Exec executes a single SQL statement.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Tables lists user tables from sqlite_master, excluding sqlite_* internals,
// in storage order.
func (r *Repository) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tables: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scan table name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ColumnInfo is one row of PRAGMA table_info.
type ColumnInfo struct {
	CID     int
	Name    string
	Type    string
	NotNull bool
	Default sql.NullString
	PK      int
}

// Columns returns PRAGMA table_info for table. A missing table yields an
// empty slice.
func (r *Repository) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := r.db.QueryContext(ctx, "PRAGMA table_info("+sqliteddl.QuoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("sqlite: table_info %s: %w", table, err)
	}
	defer rows.Close()

	var out []ColumnInfo
	for rows.Next() {
		var (
			ci      ColumnInfo
			notNull int
		)
		if err := rows.Scan(&ci.CID, &ci.Name, &ci.Type, &notNull, &ci.Default, &ci.PK); err != nil {
			return nil, fmt.Errorf("sqlite: scan table_info: %w", err)
		}
		ci.NotNull = notNull != 0
		out = append(out, ci)
	}
	return out, rows.Err()
}

// TableColumns returns the column names of table in declaration order.
func (r *Repository) TableColumns(ctx context.Context, table string) ([]string, error) {
	infos, err := r.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, ci := range infos {
		names[i] = ci.Name
	}
	return names, nil
}

// Sample returns up to limit rows of table with no ORDER BY.
func (r *Repository) Sample(ctx context.Context, table string, limit int) ([][]any, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s LIMIT ?", sqliteddl.QuoteIdent(table)), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: sample %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: sample columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan sample: %w", err)
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

// BeginInsert opens a transaction and prepares
// INSERT INTO "table" ("c1", ...) VALUES (?, ...).
//
// SQLite rolls back only the failing statement on a constraint or type
// error, so the transaction stays usable for the remaining rows.
func (r *Repository) BeginInsert(ctx context.Context, table string, columns []string) (storage.Inserter, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("sqlite: insert into %s: columns must not be empty", table)
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqliteddl.QuoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		sqliteddl.QuoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	return &inserter{tx: tx, stmt: stmt, width: len(columns)}, nil
}

type inserter struct {
	tx    *sql.Tx
	stmt  *sql.Stmt
	width int
}

func (in *inserter) Insert(ctx context.Context, values []any) error {
	if len(values) != in.width {
		return fmt.Errorf("sqlite: insert: row length %d != columns length %d", len(values), in.width)
	}
	if _, err := in.stmt.ExecContext(ctx, values...); err != nil {
		return fmt.Errorf("sqlite: insert: %w", err)
	}
	return nil
}

func (in *inserter) Close() error {
	_ = in.stmt.Close()
	if err := in.tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}
