// Package schema renders an inferred entity/relationship model into SQLite
// schema-definition statements and a Mermaid ER diagram.
//
// Rendering is pure and total: every model renders, unknown attribute types
// have already degraded to TEXT in the model package, and relationships only
// ever produce inert comment lines.
package schema

import (
	"fmt"
	"strings"

	"doc2db/internal/ddl"
	"doc2db/internal/model"
	sqliteddl "doc2db/internal/storage/sqlite/ddl"
)

// StatementKind distinguishes executable DDL from advisory comments.
type StatementKind int

const (
	KindCreateTable StatementKind = iota
	KindComment
)

// Statement is one rendered line group.
type Statement struct {
	Kind StatementKind
	Text string
}

// Script is the ordered output of Render.
type Script struct {
	Statements []Statement
}

// String joins the statements with newlines. This is the text that is
// persisted with an extraction and later handed to the executor.
func (s Script) String() string {
	parts := make([]string, len(s.Statements))
	for i, st := range s.Statements {
		parts[i] = st.Text
	}
	return strings.Join(parts, "\n")
}

// Tables returns the CREATE TABLE statements only.
func (s Script) Tables() []string {
	var out []string
	for _, st := range s.Statements {
		if st.Kind == KindCreateTable {
			out = append(out, st.Text)
		}
	}
	return out
}

// Identifier derives a table or column identifier from a model name by
// replacing spaces with underscores. Nothing else is sanitized; the SQL
// builder quotes whatever remains.
func Identifier(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// Render produces one CREATE TABLE IF NOT EXISTS per entity, in entity order,
// followed by a comment pair per relationship that names a foreign-key holder.
func Render(x model.Extraction) Script {
	var s Script
	for _, e := range x.Entities {
		stmt, err := sqliteddl.BuildCreateTableSQL(TableDef(e))
		if err != nil {
			// TableDef never yields empty names or types.
			continue
		}
		s.Statements = append(s.Statements, Statement{Kind: KindCreateTable, Text: stmt})
	}
	for _, r := range x.Relationships {
		if r.FKIn == "" {
			continue
		}
		from := Identifier(r.From)
		fk := Identifier(r.FKIn)
		col := strings.ToLower(from) + "_id"
		s.Statements = append(s.Statements,
			Statement{Kind: KindComment, Text: fmt.Sprintf("-- FK: %s.id -> %s.%s", from, fk, col)},
			Statement{Kind: KindComment, Text: fmt.Sprintf(
				`-- ALTER TABLE "%s" ADD COLUMN "%s" INTEGER REFERENCES "%s"(id);`, fk, col, from)},
		)
	}
	return s
}

// TableDef converts an entity into its table definition:
//   - no attributes: a lone nullable "id" INTEGER column;
//   - no attribute literally named "id": an "id" INTEGER PRIMARY KEY
//     AUTOINCREMENT column is prepended;
//   - every attribute column is nullable.
func TableDef(e model.Entity) ddl.TableDef {
	td := ddl.TableDef{Name: orDefault(Identifier(e.Name), "Table")}

	if len(e.Attributes) == 0 {
		td.Columns = []ddl.ColumnDef{{Name: "id", SQLType: string(model.TypeInteger), Nullable: true}}
		return td
	}

	if !e.HasID() {
		td.Columns = append(td.Columns, ddl.ColumnDef{
			Name:          "id",
			SQLType:       string(model.TypeInteger),
			PrimaryKey:    true,
			AutoIncrement: true,
		})
	}
	for _, a := range e.Attributes {
		td.Columns = append(td.Columns, ddl.ColumnDef{
			Name:     orDefault(Identifier(a.Name), "col"),
			SQLType:  sqliteddl.MapType(a.Type),
			Nullable: true,
		})
	}
	return td
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
