package document

import (
	"bytes"
	"io"
	"strings"

	"github.com/dslipak/pdf"

	"doc2db/internal/errs"
)

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "open pdf", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "read pdf text", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "read pdf text", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		// Scanned PDFs carry no text layer.
		return "", errs.New(errs.ErrKindInvalidInput, "pdf has no extractable text; upload page images instead")
	}
	return text, nil
}
