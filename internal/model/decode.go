package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

const fence = "```"

// StripFences removes a markdown code fence around an oracle answer. When the
// text starts with a fence, the first fenced segment is kept and a leading
// "json" language tag is dropped.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		parts := strings.Split(s, fence)
		if len(parts) > 1 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
	}
	return strings.TrimSpace(s)
}

// Decode normalizes raw oracle output into an Extraction. It never fails:
// text that is not a JSON object yields the zero Extraction, and malformed
// members (an entity that is not an object, a row that is not a mapping) are
// dropped individually.
func Decode(raw []byte) Extraction {
	var top map[string]any
	if !decodeLoose(raw, &top) {
		return Extraction{}
	}

	var x Extraction
	for _, v := range asSlice(top["entities"]) {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		x.Entities = append(x.Entities, decodeEntity(m))
	}
	for _, v := range asSlice(top["relationships"]) {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		x.Relationships = append(x.Relationships, Relationship{
			From: asString(m["from"], ""),
			To:   asString(m["to"], ""),
			Kind: ParseCardinality(asString(m["type"], "")),
			FKIn: asString(m["fk_in"], ""),
		})
	}
	x.Description = asString(top["er_description"], "")
	x.TableData = decodeBatches(top["table_data"])
	return x
}

// DecodeRowBatches parses a persisted `[{"table": ..., "rows": [...]}]` list.
// It also accepts an object carrying a "table_data" member, which is the shape
// the row-recovery oracle call answers with. Unparseable input yields nil.
func DecodeRowBatches(raw []byte) []RowBatch {
	var v any
	if !decodeLoose(raw, &v) {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		v = m["table_data"]
	}
	return decodeBatches(v)
}

func decodeLoose(raw []byte, dst any) bool {
	text := StripFences(string(raw))
	if text == "" {
		return false
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	return dec.Decode(dst) == nil
}

func decodeEntity(m map[string]any) Entity {
	e := Entity{Name: asString(m["name"], "Table")}
	for _, v := range asSlice(m["attributes"]) {
		am, ok := v.(map[string]any)
		if !ok {
			continue
		}
		e.Attributes = append(e.Attributes, Attribute{
			Name: asString(am["name"], "col"),
			Type: ParseAttrType(asString(am["type"], "")),
		})
	}
	return e
}

func decodeBatches(v any) []RowBatch {
	var out []RowBatch
	for _, bv := range asSlice(v) {
		bm, ok := bv.(map[string]any)
		if !ok {
			continue
		}
		b := RowBatch{Table: asString(bm["table"], "")}
		for _, rv := range asSlice(bm["rows"]) {
			rm, ok := rv.(map[string]any)
			if !ok {
				continue
			}
			row := make(Row, len(rm))
			for k, val := range rm {
				row[k] = Scalar(val)
			}
			b.Rows = append(b.Rows, row)
		}
		out = append(out, b)
	}
	return out
}

// Scalar flattens a decoded JSON value into one of the row scalar types.
// Integral numbers become int64, other numbers float64, and nested objects or
// arrays their compact JSON text.
func Scalar(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int64:
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case int:
		return int64(t)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return nil
		}
		return strings.TrimRight(buf.String(), "\n")
	}
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// asString returns v when it is a non-empty string, def otherwise. Numbers
// are rendered in their JSON form so a numeric name still reads naturally.
func asString(v any, def string) string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return def
		}
		return t
	case json.Number:
		return t.String()
	default:
		return def
	}
}
