// Package document turns an uploaded file into the form the extraction
// oracle consumes: image bytes, plain text, or raw tabular rows plus a text
// rendering of them.
package document

import (
	"path/filepath"
	"strings"

	"doc2db/internal/errs"
)

// Kind classifies a loaded document by what it carries.
type Kind string

const (
	KindImage   Kind = "image"
	KindText    Kind = "text"
	KindTabular Kind = "tabular"
)

// Document is a preprocessed upload. Image is set for KindImage, Text for
// the other kinds, and Rows only for KindTabular.
type Document struct {
	Name  string
	Kind  Kind
	MIME  string
	Image []byte
	Text  string
	Rows  [][]string
}

// Load dispatches on the lower-cased extension of name.
func Load(name string, data []byte) (Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	doc := Document{Name: name}

	var err error
	switch ext {
	case ".png":
		doc.Kind, doc.MIME, doc.Image = KindImage, "image/png", data
	case ".jpg", ".jpeg":
		doc.Kind, doc.MIME, doc.Image = KindImage, "image/jpeg", data
	case ".pdf":
		doc.Kind, doc.MIME = KindText, "application/pdf"
		doc.Text, err = pdfText(data)
	case ".xlsx":
		doc.Kind, doc.MIME = KindTabular, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		doc.Rows, err = sheetRows(data)
		doc.Text = RowsText(doc.Rows)
	case ".xls":
		return Document{}, errs.New(errs.ErrKindInvalidInput, "legacy .xls workbooks are not supported; save as .xlsx")
	case ".csv", ".tsv", ".txt":
		doc.Kind, doc.MIME = KindTabular, "text/plain"
		doc.Text, doc.Rows, err = delimited(data, ext)
	case ".html", ".htm":
		doc.Kind, doc.MIME = KindTabular, "text/html"
		doc.Text, doc.Rows, err = htmlTable(data)
	default:
		return Document{}, errs.Newf(errs.ErrKindInvalidInput, "unsupported file type %q", ext)
	}
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// RowsText renders rows as tab-separated lines.
func RowsText(rows [][]string) string {
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(r, "\t"))
	}
	return b.String()
}
