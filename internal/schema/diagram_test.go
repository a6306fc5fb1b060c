package schema

import (
	"strings"
	"testing"

	"doc2db/internal/model"
)

func TestDiagram_Placeholder(t *testing.T) {
	t.Parallel()

	if got := Diagram(model.Extraction{}); got != Placeholder {
		t.Fatalf("got %q; want placeholder", got)
	}
}

func TestDiagram_EntitiesAndRelationships(t *testing.T) {
	t.Parallel()

	attrs := make([]model.Attribute, 0, 7)
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		attrs = append(attrs, model.Attribute{Name: n, Type: model.TypeText})
	}
	x := model.Extraction{
		Entities: []model.Entity{
			{Name: "Wide Table", Attributes: attrs},
			{Name: "Tag", Attributes: []model.Attribute{{Name: "label name", Type: model.TypeText}}},
		},
		Relationships: []model.Relationship{
			{From: "Wide Table", To: "Tag", Kind: model.ManyToMany},
			{From: "Tag", To: "Wide Table", Kind: model.OneToMany},
		},
	}

	want := strings.Join([]string{
		"erDiagram",
		"    Wide_Table {",
		"        TEXT a",
		"        TEXT b",
		"        TEXT c",
		"        TEXT d",
		"        TEXT e",
		"    }",
		"    Tag {",
		"        TEXT label_name",
		"    }",
		`    Wide_Table }o--o{ Tag : ""`,
		`    Tag ||--o{ Wide_Table : ""`,
	}, "\n")

	if got := Diagram(x); got != want {
		t.Fatalf("diagram mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}
