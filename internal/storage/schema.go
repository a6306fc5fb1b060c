package storage

import (
	"context"
	"strings"
)

// StatementFailure records one statement that did not apply.
type StatementFailure struct {
	Statement string
	Err       error
}

// ApplyReport summarizes ApplySchema.
type ApplyReport struct {
	Executed int
	Skipped  int
	Failures []StatementFailure
}

// SplitStatements splits script on ';' and returns the trimmed, non-empty
// pieces in order.
func SplitStatements(script string) []string {
	var out []string
	for _, piece := range strings.Split(script, ";") {
		if p := strings.TrimSpace(piece); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplySchema executes each statement of script independently and in order.
// Pieces that start with a comment marker are skipped. A failing statement is
// recorded and does not stop the ones after it; nothing is retried.
func ApplySchema(ctx context.Context, dst Destination, script string) ApplyReport {
	var rep ApplyReport
	for _, stmt := range SplitStatements(script) {
		if strings.HasPrefix(stmt, "--") {
			rep.Skipped++
			continue
		}
		if err := dst.Exec(ctx, stmt); err != nil {
			rep.Failures = append(rep.Failures, StatementFailure{Statement: stmt, Err: err})
			continue
		}
		rep.Executed++
	}
	return rep
}
