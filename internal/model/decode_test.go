package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestStripFences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, in, want string
	}{
		{"plain", ` {"a":1} `, `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := StripFences(tc.in); got != tc.want {
				t.Fatalf("StripFences(%q)=%q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecode_FullAnswer(t *testing.T) {
	t.Parallel()

	raw := "```json\n" + `{
	  "entities": [
	    {"name": "Book", "attributes": [{"name": "title", "type": "text"}, {"name": "year", "type": "int"}]},
	    {"name": "Author Name", "attributes": []}
	  ],
	  "relationships": [
	    {"from": "Author Name", "to": "Book", "type": "one-to-many", "fk_in": "Book"},
	    {"from": "Book", "to": "Tag", "type": "Many-to-Many"}
	  ],
	  "er_description": "books and authors",
	  "table_data": [
	    {"table": "Book", "rows": [{"Title": "Dune", "Year": 1965, "rating": 4.5, "tags": ["a"], "note": null}]}
	  ]
	}` + "\n```"

	x := Decode([]byte(raw))

	if len(x.Entities) != 2 {
		t.Fatalf("entities=%d; want 2", len(x.Entities))
	}
	wantAttrs := []Attribute{{Name: "title", Type: TypeText}, {Name: "year", Type: TypeText}}
	if !reflect.DeepEqual(x.Entities[0].Attributes, wantAttrs) {
		t.Fatalf("attrs=%#v; want %#v", x.Entities[0].Attributes, wantAttrs)
	}
	if x.Relationships[0].Kind != OneToMany || x.Relationships[0].FKIn != "Book" {
		t.Fatalf("rel[0]=%#v", x.Relationships[0])
	}
	if x.Relationships[1].Kind != ManyToMany || x.Relationships[1].FKIn != "" {
		t.Fatalf("rel[1]=%#v", x.Relationships[1])
	}
	if x.Description != "books and authors" {
		t.Fatalf("description=%q", x.Description)
	}

	row := x.TableData[0].Rows[0]
	if row["Year"] != int64(1965) {
		t.Fatalf("Year=%#v; want int64(1965)", row["Year"])
	}
	if row["rating"] != 4.5 {
		t.Fatalf("rating=%#v; want 4.5", row["rating"])
	}
	if row["tags"] != `["a"]` {
		t.Fatalf("tags=%#v; want JSON text", row["tags"])
	}
	if v, ok := row["note"]; !ok || v != nil {
		t.Fatalf("note=%#v ok=%v; want explicit nil", v, ok)
	}
}

func TestDecode_Defaults(t *testing.T) {
	t.Parallel()

	x := Decode([]byte(`{"entities":[{"attributes":[{"type":"REAL"}]}, "junk"]}`))
	if len(x.Entities) != 1 {
		t.Fatalf("entities=%d; want 1 (non-object dropped)", len(x.Entities))
	}
	e := x.Entities[0]
	if e.Name != "Table" || e.Attributes[0].Name != "col" || e.Attributes[0].Type != TypeReal {
		t.Fatalf("entity defaults not applied: %#v", e)
	}
	if x.TableData != nil {
		t.Fatalf("missing table_data should decode as nil, got %#v", x.TableData)
	}
}

func TestDecode_UnparseableIsEmpty(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "not json", "[1,2,3]", "```\n```", `{"entities": `} {
		x := Decode([]byte(in))
		if len(x.Entities) != 0 || len(x.Relationships) != 0 || len(x.TableData) != 0 || x.Description != "" {
			t.Fatalf("Decode(%q)=%#v; want zero value", in, x)
		}
	}
}

func TestDecodeRowBatches(t *testing.T) {
	t.Parallel()

	list := DecodeRowBatches([]byte(`[{"table":"Book","rows":[{"title":"Dune"},7]}]`))
	if len(list) != 1 || len(list[0].Rows) != 1 || list[0].Rows[0]["title"] != "Dune" {
		t.Fatalf("list form decoded to %#v", list)
	}

	wrapped := DecodeRowBatches([]byte("```json\n{\"table_data\":[{\"table\":\"T\",\"rows\":[{\"a\":1}]}]}\n```"))
	if len(wrapped) != 1 || wrapped[0].Rows[0]["a"] != int64(1) {
		t.Fatalf("wrapped form decoded to %#v", wrapped)
	}

	if got := DecodeRowBatches([]byte("nope")); got != nil {
		t.Fatalf("unparseable=%#v; want nil", got)
	}
}

func TestRowBatchJSONShape(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal([]RowBatch{{Table: "Book", Rows: []Row{{"title": "Dune"}}}})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `[{"table":"Book","rows":[{"title":"Dune"}]}]`; got != want {
		t.Fatalf("json=%s; want %s", got, want)
	}
}

func TestEntityHelpers(t *testing.T) {
	t.Parallel()

	e := Entity{Name: "Book", Attributes: []Attribute{{Name: "ID"}, {Name: "title"}, {Name: "year"}}}
	if e.HasID() {
		t.Fatalf("HasID must match the literal name only")
	}
	if got := e.DataColumns(); !reflect.DeepEqual(got, []string{"title", "year"}) {
		t.Fatalf("DataColumns=%v", got)
	}
	if ParseAttrType(" blob ") != TypeBlob || ParseAttrType("varchar") != TypeText {
		t.Fatalf("ParseAttrType mapping wrong")
	}
}
