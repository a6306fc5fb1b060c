package storage

import (
	"context"
	"fmt"
)

// DefaultPreviewLimit is the number of rows shown per table.
const DefaultPreviewLimit = 5

// TablePreview is the read-back of one table.
type TablePreview struct {
	TableName string           `json:"table_name"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
}

// Preview lists every user-visible table of dst with its columns and up to
// limit rows in storage order. limit <= 0 uses DefaultPreviewLimit.
func Preview(ctx context.Context, dst Destination, limit int) ([]TablePreview, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	tables, err := dst.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("preview: list tables: %w", err)
	}

	out := make([]TablePreview, 0, len(tables))
	for _, t := range tables {
		cols, err := dst.TableColumns(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("preview: columns of %s: %w", t, err)
		}
		sample, err := dst.Sample(ctx, t, limit)
		if err != nil {
			return nil, fmt.Errorf("preview: sample %s: %w", t, err)
		}
		rows := make([]map[string]any, 0, len(sample))
		for _, vals := range sample {
			rows = append(rows, zipRow(cols, vals))
		}
		out = append(out, TablePreview{TableName: t, Columns: cols, Rows: rows})
	}
	return out, nil
}

func zipRow(cols []string, vals []any) map[string]any {
	m := make(map[string]any, len(cols))
	for i, c := range cols {
		if i >= len(vals) {
			break
		}
		v := vals[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		m[c] = v
	}
	return m
}
