// Package ddl defines a small, dialect-agnostic model for table definitions.
// Dialect packages (internal/storage/sqlite/ddl) render it to SQL; they own
// quoting and any dialect clauses such as IF NOT EXISTS.
package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., INTEGER, TEXT)
//   - Nullable: whether NULL is allowed; false renders NOT NULL
//   - PrimaryKey: whether the column is part of the primary key
//   - AutoIncrement: ask the dialect for an auto-assigned key; only honoured
//     on a single-column integer primary key
//   - Default: raw default expression (e.g., 'anon', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name          string
	SQLType       string
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	Default       string
}

// TableDef holds a table name and an ordered list of columns. The name is a
// single identifier; renderers quote it as a whole.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// PrimaryKeys returns the names of the primary key columns, in order.
func (t TableDef) PrimaryKeys() []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}
