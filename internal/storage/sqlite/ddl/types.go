// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import "doc2db/internal/model"

// MapType maps an attribute type onto the SQLite column type it is declared
// with. The five attribute types are SQLite type names already, so the
// declared name is kept verbatim (DATE stays DATE and gets NUMERIC affinity);
// anything unexpected falls back to TEXT.
func MapType(t model.AttrType) string {
	switch t {
	case model.TypeInteger, model.TypeReal, model.TypeText, model.TypeDate, model.TypeBlob:
		return string(t)
	default:
		return string(model.TypeText)
	}
}
