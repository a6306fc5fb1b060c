package document

import (
	"strings"

	"doc2db/internal/errs"
	pcsv "doc2db/internal/parser/csv"
)

// delimited decodes CSV, TSV or plain text. Text is the decoded payload
// as-is; rows come from the csv reader, or from a naive line split when the
// reader rejects the input.
func delimited(data []byte, ext string) (string, [][]string, error) {
	text, err := pcsv.DecodeBytes(data)
	if err != nil {
		return "", nil, errs.Wrap(errs.ErrKindInvalidInput, "decode text", err)
	}

	opt := pcsv.Options{TrimSpace: true}
	if ext == ".tsv" {
		opt.Comma = '\t'
	}
	rows, err := pcsv.ReadAll(strings.NewReader(text), opt)
	if err != nil {
		rows = pcsv.SplitLines(text)
	}
	return text, rows, nil
}
