package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"doc2db/internal/errs"
	"doc2db/internal/metastore"
	_ "doc2db/internal/metastore/sqlite"
)

func newStore(tb testing.TB) metastore.Store {
	tb.Helper()
	ctx := context.Background()
	s, err := metastore.Open(ctx, metastore.Config{Kind: "sqlite", DSN: filepath.Join(tb.TempDir(), "meta", "doc2db.db")})
	if err != nil {
		tb.Fatalf("open: %v", err)
	}
	tb.Cleanup(func() { _ = s.Close() })
	if err := s.Bootstrap(ctx); err != nil {
		tb.Fatalf("bootstrap: %v", err)
	}
	return s
}

func TestBootstrap_Idempotent(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
}

func TestProjects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)

	p, err := s.CreateProject(ctx, "  ")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.ID != 1 || p.Name != metastore.DefaultProjectName {
		t.Fatalf("project=%+v", p)
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != p.Name || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("round trip %+v != %+v", got, p)
	}

	if _, err := s.GetProject(ctx, 99); !errs.IsNotFound(err) {
		t.Fatalf("missing project err=%v; want not found", err)
	}
}

func TestExtractions_ScopedToProject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)
	a, _ := s.CreateProject(ctx, "a")
	b, _ := s.CreateProject(ctx, "b")

	e, err := s.CreateExtraction(ctx, metastore.Extraction{
		ProjectID:        a.ID,
		ERDiagram:        "erDiagram",
		SQLDDL:           `CREATE TABLE IF NOT EXISTS "Book" ("id" INTEGER)`,
		RawResponse:      "{}",
		SourceProvider:   "header_rows",
		DocumentName:     "books.csv",
		DocumentChecksum: "abcd",
	})
	if err != nil {
		t.Fatalf("CreateExtraction: %v", err)
	}

	got, err := s.GetExtraction(ctx, a.ID, e.ID)
	if err != nil {
		t.Fatalf("GetExtraction: %v", err)
	}
	if got.SQLDDL != e.SQLDDL || got.ExtractionData != "" || got.DocumentChecksum != "abcd" {
		t.Fatalf("extraction=%+v", got)
	}

	if _, err := s.GetExtraction(ctx, b.ID, e.ID); !errs.IsNotFound(err) {
		t.Fatalf("cross-project read err=%v; want not found", err)
	}

	list, err := s.ListExtractions(ctx, a.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list=%v err=%v", list, err)
	}
	empty, err := s.ListExtractions(ctx, b.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty list=%#v err=%v", empty, err)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := metastore.Open(context.Background(), metastore.Config{Kind: "sqlite"}); !errs.IsInvalidInput(err) {
		t.Fatalf("err=%v; want invalid input", err)
	}
}

func TestOpen_PathWithURICharacters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "a?b#c%d", "doc2db.db")
	s, err := metastore.Open(ctx, metastore.Config{Kind: "sqlite", DSN: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("metastore not created at %s: %v", path, err)
	}
}
