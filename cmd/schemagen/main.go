// Command schemagen turns a saved oracle answer into DDL and an ER diagram,
// and optionally loads it into a SQLite file without calling any oracle.
//
//	schemagen -ddl -diagram answer.json
//	schemagen -db out.db -rows books.csv answer.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"doc2db/internal/document"
	"doc2db/internal/logger"
	"doc2db/internal/model"
	"doc2db/internal/oracle"
	"doc2db/internal/schema"
	"doc2db/internal/source"
	"doc2db/internal/storage"
	"doc2db/internal/storage/sqlite"
)

type report struct {
	Source           string                 `json:"source"`
	StatementsFailed int                    `json:"statements_failed"`
	RowsInserted     int                    `json:"rows_inserted"`
	Tables           []storage.TablePreview `json:"tables"`
}

func main() {
	var (
		printDDL     bool
		printDiagram bool
		dbPath       string
		rowsPath     string
		limit        int
	)
	flag.BoolVar(&printDDL, "ddl", false, "print the rendered DDL")
	flag.BoolVar(&printDiagram, "diagram", false, "print the Mermaid ER diagram")
	flag.StringVar(&dbPath, "db", "", "apply the DDL and ingest rows into this SQLite file, then print a preview")
	flag.StringVar(&rowsPath, "rows", "", "tabular file (csv, tsv, xlsx, html) used as the header-row fallback")
	flag.IntVar(&limit, "limit", storage.DefaultPreviewLimit, "preview rows per table")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.New(&logger.Config{Level: level, Format: "console"})

	if !printDDL && !printDiagram && dbPath == "" {
		printDDL = true
	}

	raw, err := readInput(flag.Arg(0))
	if err != nil {
		fatalf("read answer: %v", err)
	}
	x := model.Decode(raw)

	if printDDL {
		fmt.Println(schema.Render(x).String())
	}
	if printDiagram {
		fmt.Println(schema.Diagram(x))
	}
	if dbPath == "" {
		return
	}

	ctx := log.WithContext(context.Background())
	in := source.Input{Extraction: x}
	if rowsPath != "" {
		doc, err := loadRows(rowsPath)
		if err != nil {
			fatalf("read rows: %v", err)
		}
		in.Document, in.RawRows = doc, doc.Rows
	}

	rep, err := load(ctx, dbPath, in, string(raw), limit, log)
	if err != nil {
		fatalf("%v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		fatalf("encode: %v", err)
	}
}

// load applies the rendered schema to dbPath, ingests the selected rows and
// previews the result. There is no live oracle offline, so the secondary
// stage never yields rows: only rows recorded in the answer or the raw
// rows can win.
func load(ctx context.Context, dbPath string, in source.Input, raw string, limit int, log *logger.Logger) (report, error) {
	dst, err := sqlite.Open(ctx, sqlite.Config{Path: dbPath, Create: true})
	if err != nil {
		return report{}, err
	}
	defer dst.Close()

	applied := storage.ApplySchema(ctx, dst, schema.Render(in.Extraction).String())
	for _, f := range applied.Failures {
		log.WarnWith("statement failed", f.Err, map[string]any{"statement": f.Statement})
	}

	sel := source.Selector{Providers: source.Default(oracle.Static{Raw: raw}), Log: log}
	batches, name := sel.Select(ctx, in)
	ingested := storage.Ingest(ctx, dst, batches)
	for _, r := range ingested.Results {
		if r.Status == storage.Skipped {
			log.DebugWith("row skipped", map[string]any{"table": r.Table, "row": r.Row, "reason": r.Reason})
		}
	}

	tables, err := storage.Preview(ctx, dst, limit)
	if err != nil {
		return report{}, err
	}
	return report{
		Source:           name,
		StatementsFailed: len(applied.Failures),
		RowsInserted:     ingested.Inserted,
		Tables:           tables,
	}, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func loadRows(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, err
	}
	doc, err := document.Load(filepath.Base(path), data)
	if err != nil {
		return document.Document{}, err
	}
	if doc.Kind != document.KindTabular {
		return document.Document{}, fmt.Errorf("%s is not tabular", path)
	}
	return doc, nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
