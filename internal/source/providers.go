package source

import (
	"context"

	"doc2db/internal/model"
	"doc2db/internal/oracle"
	pcsv "doc2db/internal/parser/csv"
	"doc2db/internal/schema"
)

// FallbackTable names the header-row table when no entity was inferred.
const FallbackTable = "Data"

// Default is the standard chain: oracle table data, then a rows-only oracle
// call, then the document's own header and data rows.
func Default(o oracle.Oracle) []Named {
	return []Named{
		{Name: NamePrimary, Provider: Primary},
		{Name: NameSecondary, Provider: SecondaryOracle(o)},
		{Name: NameHeaderRows, Provider: HeaderRows},
	}
}

// Primary returns the table data of the first oracle answer.
func Primary(_ context.Context, in Input) ([]model.RowBatch, error) {
	return in.Extraction.TableData, nil
}

// SecondaryOracle asks o for rows of the first entity only. It yields
// nothing when there is no entity or the entity has no data columns.
func SecondaryOracle(o oracle.Oracle) Provider {
	return func(ctx context.Context, in Input) ([]model.RowBatch, error) {
		e, ok := in.Extraction.FirstEntity()
		if !ok || o == nil {
			return nil, nil
		}
		cols := e.DataColumns()
		if len(cols) == 0 {
			return nil, nil
		}
		return o.ExtractRows(ctx, in.Document, schema.Identifier(e.Name), cols)
	}
}

// HeaderRows maps the raw rows onto the first raw row as header. Rows
// shorter than the header are dropped; longer ones are cut to its width.
func HeaderRows(_ context.Context, in Input) ([]model.RowBatch, error) {
	if len(in.RawRows) < 2 {
		return nil, nil
	}
	headers := pcsv.HeaderKeys(in.RawRows[0])

	var rows []model.Row
	for _, raw := range in.RawRows[1:] {
		if len(raw) < len(headers) {
			continue
		}
		row := make(model.Row, len(headers))
		for i, h := range headers {
			row[h] = raw[i]
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	table := FallbackTable
	if e, ok := in.Extraction.FirstEntity(); ok {
		table = schema.Identifier(e.Name)
	}
	return []model.RowBatch{{Table: table, Rows: rows}}, nil
}
