// Package ddl provides SQLite-specific helpers for generating CREATE TABLE
// statements from the generic ddl.TableDef model.
//
// The builder here:
//   - Uses double-quoted identifiers: "table", "col".
//   - Emits CREATE TABLE IF NOT EXISTS, so statements can be re-applied.
//   - Renders a single integer primary key inline, with AUTOINCREMENT when
//     requested; composite keys become a separate table constraint.
//   - Treats ColumnDef.Default as raw SQL.
package ddl

import (
	"fmt"
	"strings"

	gddl "doc2db/internal/ddl"
)

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for the given
// table definition. The statement has the form:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "id" INTEGER PRIMARY KEY AUTOINCREMENT,
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  "col2" TYPE
//	);
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	if t.Name == "" {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: at least one column is required")
	}

	pks := t.PrimaryKeys()
	inlinePK := len(pks) == 1

	cols := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		if c.Name == "" {
			return "", fmt.Errorf("sqlite ddl: column with empty name in table %s", t.Name)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("sqlite ddl: column %s missing SQLType", c.Name)
		}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if c.PrimaryKey && inlinePK {
			sb.WriteString(" PRIMARY KEY")
			if c.AutoIncrement && strings.EqualFold(typ, "INTEGER") {
				sb.WriteString(" AUTOINCREMENT")
			}
		} else if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}

		cols = append(cols, sb.String())
	}

	if len(pks) > 1 {
		quoted := make([]string, len(pks))
		for i, pk := range pks {
			quoted[i] = QuoteIdent(pk)
		}
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		QuoteIdent(t.Name),
		strings.Join(cols, ",\n  "),
	), nil
}

// QuoteIdent double-quotes id, doubling any embedded quote.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
