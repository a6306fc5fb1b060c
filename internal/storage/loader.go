package storage

import (
	"context"
	"fmt"

	"doc2db/internal/model"
	"doc2db/internal/schema"
)

// DefaultTable is used for a batch that names no table.
const DefaultTable = "data"

// Status of one row.
type Status int

const (
	Inserted Status = iota
	Skipped
)

func (s Status) String() string {
	if s == Inserted {
		return "inserted"
	}
	return "skipped"
}

// Result is the outcome for one row (Row >= 0) or for a whole table that was
// passed over (Row == -1).
type Result struct {
	Table  string
	Row    int
	Status Status
	Reason string
}

// IngestReport summarizes Ingest. Inserted is the only success signal callers
// act on; Results exists for diagnostics.
type IngestReport struct {
	Inserted int
	Results  []Result
}

// Skipped returns how many rows were not inserted.
func (r IngestReport) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == Skipped && res.Row >= 0 {
			n++
		}
	}
	return n
}

// Ingest writes every resolvable row of batches into dst, table by table.
//
// Per table the column set is read once; a table that is missing or has no
// data columns is passed over without failing the others. Each row is
// resolved and inserted on its own, so one bad row (type or constraint
// violation) costs only itself. Rows accumulate; nothing is updated.
func Ingest(ctx context.Context, dst Destination, batches []model.RowBatch) IngestReport {
	var rep IngestReport
	for _, b := range batches {
		if len(b.Rows) == 0 {
			continue
		}
		table := schema.Identifier(b.Table)
		if table == "" {
			table = DefaultTable
		}
		rep.ingestTable(ctx, dst, table, b.Rows)
	}
	return rep
}

func (rep *IngestReport) ingestTable(ctx context.Context, dst Destination, table string, rows []model.Row) {
	cols, err := dst.TableColumns(ctx, table)
	if err != nil {
		rep.skipTable(table, fmt.Sprintf("read columns: %v", err))
		return
	}
	cols = DataColumns(cols)
	if len(cols) == 0 {
		rep.skipTable(table, "table missing or has no data columns")
		return
	}

	ins, err := dst.BeginInsert(ctx, table, cols)
	if err != nil {
		rep.skipTable(table, fmt.Sprintf("prepare insert: %v", err))
		return
	}

	start := len(rep.Results)
	inserted := 0
	for i, row := range rows {
		vals, err := ResolveRow(cols, row)
		if err == nil {
			err = ins.Insert(ctx, vals)
		}
		if err != nil {
			rep.Results = append(rep.Results, Result{Table: table, Row: i, Status: Skipped, Reason: err.Error()})
			continue
		}
		rep.Results = append(rep.Results, Result{Table: table, Row: i, Status: Inserted})
		inserted++
	}

	if err := ins.Close(); err != nil {
		// Nothing from this table survived the failed commit.
		for j := start; j < len(rep.Results); j++ {
			if rep.Results[j].Status == Inserted {
				rep.Results[j].Status = Skipped
				rep.Results[j].Reason = fmt.Sprintf("commit: %v", err)
			}
		}
		return
	}
	rep.Inserted += inserted
}

func (rep *IngestReport) skipTable(table, reason string) {
	rep.Results = append(rep.Results, Result{Table: table, Row: -1, Status: Skipped, Reason: reason})
}
