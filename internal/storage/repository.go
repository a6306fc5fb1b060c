// Package storage contains the destination-agnostic half of schema
// application and data ingestion: splitting and applying schema statements,
// resolving loosely-keyed rows onto live table columns, best-effort per-row
// ingestion, and bounded read-back for previews.
//
// Concrete destinations (internal/storage/sqlite) implement Destination; the
// algorithms here never see a driver.
package storage

import "context"

// Destination is one opened target store.
type Destination interface {
	// Exec runs a single statement.
	Exec(ctx context.Context, stmt string) error

	// Tables lists user-visible tables in storage order.
	Tables(ctx context.Context) ([]string, error)

	// TableColumns returns every column of table in declaration order. A
	// missing table yields an empty list, not an error.
	TableColumns(ctx context.Context, table string) ([]string, error)

	// Sample returns up to limit rows of table, aligned to TableColumns.
	Sample(ctx context.Context, table string, limit int) ([][]any, error)

	// BeginInsert prepares one parameterized INSERT for table/columns.
	BeginInsert(ctx context.Context, table string, columns []string) (Inserter, error)
}

// Inserter executes a prepared INSERT once per row. A failing row leaves the
// inserter usable for the next one. Close commits what was inserted.
type Inserter interface {
	Insert(ctx context.Context, values []any) error
	Close() error
}
