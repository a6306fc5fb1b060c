package storage

import (
	"context"
	"errors"
	"strings"
)

// fakeDest is an in-memory Destination that records statements and rows.
type fakeDest struct {
	execs      []string
	failExec   func(stmt string) error
	columns    map[string][]string
	colErr     error
	rows       map[string][][]any
	failInsert func(table string, vals []any) error
	commitErr  error
	order      []string
}

func newFakeDest() *fakeDest {
	return &fakeDest{columns: map[string][]string{}, rows: map[string][][]any{}}
}

func (f *fakeDest) Exec(_ context.Context, stmt string) error {
	if f.failExec != nil {
		if err := f.failExec(stmt); err != nil {
			return err
		}
	}
	f.execs = append(f.execs, stmt)
	return nil
}

func (f *fakeDest) Tables(context.Context) ([]string, error) {
	return f.order, nil
}

func (f *fakeDest) TableColumns(_ context.Context, table string) ([]string, error) {
	if f.colErr != nil {
		return nil, f.colErr
	}
	return f.columns[table], nil
}

func (f *fakeDest) Sample(_ context.Context, table string, limit int) ([][]any, error) {
	r := f.rows[table]
	if len(r) > limit {
		r = r[:limit]
	}
	return r, nil
}

func (f *fakeDest) BeginInsert(_ context.Context, table string, columns []string) (Inserter, error) {
	if len(columns) == 0 {
		return nil, errors.New("no columns")
	}
	return &fakeInserter{f: f, table: table}, nil
}

type fakeInserter struct {
	f       *fakeDest
	table   string
	pending [][]any
}

func (i *fakeInserter) Insert(_ context.Context, vals []any) error {
	if i.f.failInsert != nil {
		if err := i.f.failInsert(i.table, vals); err != nil {
			return err
		}
	}
	i.pending = append(i.pending, vals)
	return nil
}

func (i *fakeInserter) Close() error {
	if i.f.commitErr != nil {
		return i.f.commitErr
	}
	i.f.rows[i.table] = append(i.f.rows[i.table], i.pending...)
	return nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
