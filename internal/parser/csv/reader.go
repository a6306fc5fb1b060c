// Package csv reads delimited text into raw string rows.
//
// Input may start with a UTF-8 or UTF-16 byte-order mark; it is decoded to
// UTF-8 and the mark is dropped before encoding/csv sees a byte. The field
// delimiter is sniffed from the first line unless Options.Comma pins it.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Candidates is the set of delimiters Sniff chooses from, in tie-break order.
var Candidates = []rune{',', ';', '\t', '|'}

// Options configures ReadAll. The zero value sniffs the delimiter, keeps
// fields verbatim and reads every row.
type Options struct {
	// Comma pins the delimiter. Zero means sniff.
	Comma rune

	// TrimSpace trims leading and trailing white space from every field.
	TrimSpace bool

	// MaxRows stops reading after this many rows when > 0.
	MaxRows int
}

// NewDecoder wraps r so that a leading BOM selects UTF-8 or UTF-16 decoding
// and is stripped. Input without a BOM is read as UTF-8.
func NewDecoder(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// DecodeBytes is NewDecoder for an in-memory payload.
func DecodeBytes(b []byte) (string, error) {
	out, err := io.ReadAll(NewDecoder(bytes.NewReader(b)))
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// Sniff picks the candidate delimiter that occurs most often outside quotes
// on the first non-blank line of sample. It returns ',' when none occurs.
func Sniff(sample string) rune {
	line := firstLine(sample)
	counts := make(map[rune]int, len(Candidates))
	inQuote := false
	for _, r := range line {
		if r == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		counts[r]++
	}

	best, bestN := ',', 0
	for _, c := range Candidates {
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	return best
}

func firstLine(s string) string {
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if l := sc.Text(); strings.TrimSpace(l) != "" {
			return l
		}
	}
	return ""
}

// ReadAll decodes r and parses every record. Rows may differ in width; the
// caller decides how to treat ragged rows. Blank lines are skipped.
func ReadAll(r io.Reader, opt Options) ([][]string, error) {
	raw, err := io.ReadAll(NewDecoder(r))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	text := string(raw)

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = opt.Comma
	if cr.Comma == 0 {
		cr.Comma = Sniff(text)
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	var rows [][]string
	for {
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := cr.FieldPos(0)
			return rows, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if opt.TrimSpace {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// SplitLines is the forgiving fallback for text encoding/csv rejects: every
// non-blank line is split on a tab when the first line has one, otherwise on
// a comma. No quoting is honored.
func SplitLines(text string) [][]string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	sep := ","
	if strings.Contains(firstLine(text), "\t") {
		sep = "\t"
	}

	var rows [][]string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		rows = append(rows, strings.Split(l, sep))
	}
	return rows
}

// HeaderKeys returns the trimmed header cells, with empty cells replaced by
// col_<i> so every column has a usable key.
func HeaderKeys(h []string) []string {
	out := make([]string, len(h))
	for i, c := range h {
		c = strings.TrimSpace(c)
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		out[i] = c
	}
	return out
}
