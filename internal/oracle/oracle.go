// Package oracle is the boundary to the extraction model: it turns a loaded
// document into a candidate entity/relationship model plus row data.
//
// Answers are normalized through model.Decode at this boundary, so nothing
// downstream sees raw model output. Transport failures are errors;
// unparseable answers are empty results.
package oracle

import (
	"context"

	"doc2db/internal/document"
	"doc2db/internal/model"
)

// Oracle extracts structure and rows from documents.
type Oracle interface {
	// Extract returns the decoded model plus the raw answer text.
	Extract(ctx context.Context, doc document.Document) (model.Extraction, string, error)

	// ExtractRows asks only for rows of table, keyed by columns.
	ExtractRows(ctx context.Context, doc document.Document, table string, columns []string) ([]model.RowBatch, error)
}

// Static answers from fixed text. It never fails.
type Static struct {
	// Raw is returned by Extract.
	Raw string
	// Rows is decoded by ExtractRows; empty means no rows.
	Rows string
}

var _ Oracle = Static{}

func (s Static) Extract(context.Context, document.Document) (model.Extraction, string, error) {
	return model.Decode([]byte(s.Raw)), s.Raw, nil
}

func (s Static) ExtractRows(context.Context, document.Document, string, []string) ([]model.RowBatch, error) {
	if s.Rows == "" {
		return nil, nil
	}
	return model.DecodeRowBatches([]byte(s.Rows)), nil
}
