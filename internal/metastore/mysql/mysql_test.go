package mysql

import (
	"context"
	"testing"

	"doc2db/internal/errs"
	"doc2db/internal/metastore"
)

func TestOpen_RejectsBadDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), metastore.Config{Kind: "mysql", DSN: "no-database-separator"})
	if !errs.IsInvalidInput(err) {
		t.Fatalf("err=%v; want invalid input", err)
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	for _, k := range metastore.Kinds() {
		if k == "mysql" {
			return
		}
	}
	t.Fatalf("mysql missing from %v", metastore.Kinds())
}
