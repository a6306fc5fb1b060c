package ddl

import (
	"testing"

	"doc2db/internal/model"
)

// TestMapType verifies that the attribute types map to their SQLite names and
// that anything else falls back to TEXT.
func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   model.AttrType
		want string
	}{
		{model.TypeInteger, "INTEGER"},
		{model.TypeReal, "REAL"},
		{model.TypeText, "TEXT"},
		{model.TypeDate, "DATE"},
		{model.TypeBlob, "BLOB"},
		{model.AttrType("VARCHAR"), "TEXT"},
		{model.AttrType(""), "TEXT"},
	}

	for _, tt := range tests {
		if got := MapType(tt.in); got != tt.want {
			t.Fatalf("MapType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
