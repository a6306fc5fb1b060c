package metastore

import (
	"fmt"
	"strings"
)

// IDStrategy is how a dialect hands back the id of an inserted row.
type IDStrategy int

const (
	// LastInsertID uses sql.Result.LastInsertId.
	LastInsertID IDStrategy = iota
	// Returning appends RETURNING id.
	Returning
	// OutputInserted places OUTPUT INSERTED.id before VALUES.
	OutputInserted
)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	Name   string
	Driver string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Bootstrap statements run in order; each must be idempotent.
	Bootstrap []string
	InsertID  IDStrategy
}

// QuestionMark is the ? placeholder style.
func QuestionMark(int) string { return "?" }

// Dollar is the $n placeholder style.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// AtP is the @pn placeholder style.
func AtP(n int) string { return fmt.Sprintf("@p%d", n) }

func (d Dialect) placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.Placeholder(i + 1)
	}
	return strings.Join(ps, ", ")
}

// insertSQL renders an INSERT that yields the new id per InsertID.
func (d Dialect) insertSQL(table string, cols []string) string {
	colList := strings.Join(cols, ", ")
	vals := d.placeholders(len(cols))
	switch d.InsertID {
	case Returning:
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id", table, colList, vals)
	case OutputInserted:
		return fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.id VALUES (%s)", table, colList, vals)
	default:
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, colList, vals)
	}
}

// rebind rewrites ? placeholders in q into the dialect's style.
func (d Dialect) rebind(q string) string {
	if d.Placeholder == nil {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
