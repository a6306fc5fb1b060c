package storage

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	got := SplitStatements("CREATE TABLE a (x);\n\n  ;CREATE TABLE b (y);\n-- FK: a.id -> b.a_id\n-- ALTER TABLE \"b\" ADD COLUMN \"a_id\" INTEGER;")
	want := []string{
		"CREATE TABLE a (x)",
		"CREATE TABLE b (y)",
		"-- FK: a.id -> b.a_id\n-- ALTER TABLE \"b\" ADD COLUMN \"a_id\" INTEGER",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitStatements=%q; want %q", got, want)
	}
	if SplitStatements("  ;; ") != nil {
		t.Fatalf("blank script must yield no statements")
	}
}

// TestApplySchema_SkipsCommentsAndIsolatesFailures checks that advisory
// comments never reach the destination and one failing statement does not
// stop the rest.
func TestApplySchema_SkipsCommentsAndIsolatesFailures(t *testing.T) {
	t.Parallel()

	d := newFakeDest()
	d.failExec = func(stmt string) error {
		if strings.Contains(stmt, "broken") {
			return errors.New("syntax error")
		}
		return nil
	}

	script := "CREATE TABLE a (x);\nCREATE TABLE broken (;\nCREATE TABLE c (z);\n-- FK: a.id -> c.a_id\n-- ALTER TABLE \"c\" ADD COLUMN \"a_id\" INTEGER REFERENCES \"a\"(id);"
	rep := ApplySchema(context.Background(), d, script)

	if rep.Executed != 2 || rep.Skipped != 1 || len(rep.Failures) != 1 {
		t.Fatalf("report=%+v; want executed=2 skipped=1 failures=1", rep)
	}
	if !reflect.DeepEqual(d.execs, []string{"CREATE TABLE a (x)", "CREATE TABLE c (z)"}) {
		t.Fatalf("execs=%q", d.execs)
	}
	for _, s := range d.execs {
		if hasPrefixFold(s, "--") {
			t.Fatalf("comment reached destination: %q", s)
		}
	}
}
