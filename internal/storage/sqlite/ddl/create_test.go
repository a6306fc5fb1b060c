package ddl

import (
	"strings"
	"testing"

	gddl "doc2db/internal/ddl"
)

// TestQuoteIdent verifies that QuoteIdent applies SQLite-style double-quoted
// identifier quoting and escapes embedded double quotes.
func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "name", want: `"name"`},
		{name: "empty", in: "", want: `""`},
		{name: "with space", in: "user name", want: `"user name"`},
		{name: "with dot", in: "main.events", want: `"main.events"`},
		{name: "with double quote", in: `weird"name`, want: `"weird""name"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := QuoteIdent(tt.in); got != tt.want {
				t.Fatalf("QuoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestBuildCreateTableSQLErrors validates input validation in
// BuildCreateTableSQL.
func TestBuildCreateTableSQLErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  gddl.TableDef
	}{
		{name: "empty name", def: gddl.TableDef{Columns: []gddl.ColumnDef{{Name: "a", SQLType: "TEXT"}}}},
		{name: "no columns", def: gddl.TableDef{Name: "t"}},
		{name: "empty column name", def: gddl.TableDef{Name: "t", Columns: []gddl.ColumnDef{{SQLType: "TEXT"}}}},
		{name: "missing type", def: gddl.TableDef{Name: "t", Columns: []gddl.ColumnDef{{Name: "a", SQLType: " "}}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := BuildCreateTableSQL(tt.def); err == nil {
				t.Fatalf("BuildCreateTableSQL(%+v) expected error", tt.def)
			}
		})
	}
}

// TestBuildCreateTableSQL_InlineAutoIncrement checks the shape emitted for a
// synthetic integer key followed by nullable data columns.
func TestBuildCreateTableSQL_InlineAutoIncrement(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(gddl.TableDef{
		Name: "Book",
		Columns: []gddl.ColumnDef{
			{Name: "id", SQLType: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "title", SQLType: "TEXT", Nullable: true},
			{Name: "year", SQLType: "INTEGER", Nullable: true},
		},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}

	want := "CREATE TABLE IF NOT EXISTS \"Book\" (\n" +
		"  \"id\" INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
		"  \"title\" TEXT,\n" +
		"  \"year\" INTEGER\n" +
		");"
	if got != want {
		t.Fatalf("sql mismatch\n got: %q\nwant: %q", got, want)
	}
}

// TestBuildCreateTableSQL_CompositeKeyAndDefaults covers NOT NULL, DEFAULT and
// the table-level PRIMARY KEY constraint.
func TestBuildCreateTableSQL_CompositeKeyAndDefaults(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(gddl.TableDef{
		Name: "links",
		Columns: []gddl.ColumnDef{
			{Name: "a", SQLType: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "b", SQLType: "INTEGER", PrimaryKey: true},
			{Name: "note", SQLType: "TEXT", Default: "'x'"},
		},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}

	for _, part := range []string{
		`"a" INTEGER NOT NULL`,
		`"note" TEXT NOT NULL DEFAULT 'x'`,
		`PRIMARY KEY ("a", "b")`,
	} {
		if !strings.Contains(got, part) {
			t.Fatalf("sql %q missing %q", got, part)
		}
	}
	if strings.Contains(got, "AUTOINCREMENT") {
		t.Fatalf("composite keys must not carry AUTOINCREMENT: %q", got)
	}
}
