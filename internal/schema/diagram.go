package schema

import (
	"fmt"
	"strings"

	"doc2db/internal/model"
)

// MaxDiagramAttributes caps the attributes drawn per entity.
const MaxDiagramAttributes = 5

// Placeholder is the diagram returned for an empty model.
const Placeholder = "erDiagram\n    PLACEHOLDER {}"

// Diagram renders the model as a Mermaid erDiagram. Many-to-many
// relationships use `}o--o{`, everything else `||--o{`.
func Diagram(x model.Extraction) string {
	if len(x.Entities) == 0 && len(x.Relationships) == 0 {
		return Placeholder
	}

	lines := []string{"erDiagram"}
	for _, e := range x.Entities {
		lines = append(lines, fmt.Sprintf("    %s {", Identifier(e.Name)))
		attrs := e.Attributes
		if len(attrs) > MaxDiagramAttributes {
			attrs = attrs[:MaxDiagramAttributes]
		}
		for _, a := range attrs {
			lines = append(lines, fmt.Sprintf("        %s %s", model.ParseAttrType(string(a.Type)), Identifier(a.Name)))
		}
		lines = append(lines, "    }")
	}
	for _, r := range x.Relationships {
		marker := "||--o{"
		if r.Kind == model.ManyToMany {
			marker = "}o--o{"
		}
		lines = append(lines, fmt.Sprintf(`    %s %s %s : ""`, Identifier(r.From), marker, Identifier(r.To)))
	}
	return strings.Join(lines, "\n")
}
