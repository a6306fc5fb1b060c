// Package model holds the typed entity/relationship model that the oracle's
// free-form JSON is normalized into, plus the row batches that travel from the
// source selector to the ingestor.
//
// Everything past the decoding boundary (Decode, DecodeRowBatches) works on
// these types only; no component downstream looks at raw oracle JSON.
package model

import "strings"

// AttrType is the closed set of column types an attribute may declare.
type AttrType string

const (
	TypeInteger AttrType = "INTEGER"
	TypeReal    AttrType = "REAL"
	TypeText    AttrType = "TEXT"
	TypeDate    AttrType = "DATE"
	TypeBlob    AttrType = "BLOB"
)

// ParseAttrType upper-cases s and maps it onto AttrType. Anything outside the
// closed set, including the empty string, becomes TEXT.
func ParseAttrType(s string) AttrType {
	switch t := AttrType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeInteger, TypeReal, TypeText, TypeDate, TypeBlob:
		return t
	default:
		return TypeText
	}
}

// Attribute is one named, typed column of an entity.
type Attribute struct {
	Name string   `json:"name"`
	Type AttrType `json:"type"`
}

// Entity is an inferred table-like concept.
type Entity struct {
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
}

// HasID reports whether an attribute is literally named "id".
func (e Entity) HasID() bool {
	for _, a := range e.Attributes {
		if a.Name == "id" {
			return true
		}
	}
	return false
}

// DataColumns returns the attribute names a row may populate: everything
// except an "id" attribute (compared case-insensitively).
func (e Entity) DataColumns() []string {
	out := make([]string, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		if strings.EqualFold(a.Name, "id") {
			continue
		}
		out = append(out, a.Name)
	}
	return out
}

// Cardinality of a relationship.
type Cardinality string

const (
	OneToMany  Cardinality = "one-to-many"
	ManyToMany Cardinality = "many-to-many"
)

// ParseCardinality treats any declared kind mentioning many-to-many as such;
// everything else is one-to-many.
func ParseCardinality(s string) Cardinality {
	if strings.Contains(strings.ToLower(s), string(ManyToMany)) {
		return ManyToMany
	}
	return OneToMany
}

// Relationship is an advisory association between two entities. FKIn names
// the entity that would hold the suggested foreign-key column.
type Relationship struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	Kind Cardinality `json:"type"`
	FKIn string      `json:"fk_in,omitempty"`
}

// Row is one loosely-keyed data row. Values are scalars only: string, int64,
// float64, bool or nil.
type Row map[string]any

// RowBatch is a table name plus the rows to ingest into it.
type RowBatch struct {
	Table string `json:"table"`
	Rows  []Row  `json:"rows"`
}

// Extraction is the typed form of one oracle answer.
type Extraction struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	Description   string         `json:"er_description"`
	TableData     []RowBatch     `json:"table_data"`
}

// FirstEntity returns the first inferred entity, if any.
func (x Extraction) FirstEntity() (Entity, bool) {
	if len(x.Entities) == 0 {
		return Entity{}, false
	}
	return x.Entities[0], true
}

// RowCount returns the total number of rows across batches.
func RowCount(batches []RowBatch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Rows)
	}
	return n
}
