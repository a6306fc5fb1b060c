package storage

import (
	"errors"
	"sort"
	"strings"

	"doc2db/internal/model"
)

// ErrUnresolvable is returned when a row cannot be aligned to the target
// columns.
var ErrUnresolvable = errors.New("row does not align with table columns")

// ResolveRow aligns row onto columns, matching keys case-insensitively.
// Columns with no matching key get nil. An exact-case key wins over other
// spellings; among several case variants the lexically smallest key wins.
func ResolveRow(columns []string, row model.Row) ([]any, error) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byLower := make(map[string]string, len(keys))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if _, dup := byLower[lk]; !dup {
			byLower[lk] = k
		}
	}

	values := make([]any, 0, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			values = append(values, v)
			continue
		}
		if k, ok := byLower[strings.ToLower(col)]; ok {
			values = append(values, row[k])
			continue
		}
		values = append(values, nil)
	}
	if len(values) != len(columns) {
		return nil, ErrUnresolvable
	}
	return values, nil
}

// DataColumns drops a leading "id" column (any case). That column is the
// synthetic key and is never populated from source rows.
func DataColumns(columns []string) []string {
	if len(columns) > 0 && strings.EqualFold(columns[0], "id") {
		return columns[1:]
	}
	return columns
}
