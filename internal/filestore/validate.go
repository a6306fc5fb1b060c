package filestore

import (
	"path/filepath"
	"slices"
	"strings"

	"doc2db/internal/errs"
)

// DefaultExtensions are the upload types accepted out of the box.
var DefaultExtensions = []string{
	".pdf", ".png", ".jpg", ".jpeg", ".xlsx", ".xls", ".csv", ".txt", ".tsv", ".html", ".htm",
}

// Limits bounds what Validate accepts.
type Limits struct {
	MaxBytes   int64
	Extensions []string // lower-case, with the dot
}

// DefaultLimits allows 20 MiB and DefaultExtensions.
func DefaultLimits() Limits {
	return Limits{MaxBytes: 20 << 20, Extensions: DefaultExtensions}
}

// Validate checks the extension whitelist and the size cap.
func Validate(filename string, size int64, lim Limits) error {
	if strings.TrimSpace(filename) == "" {
		return errs.New(errs.ErrKindInvalidInput, "no filename")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(lim.Extensions, ext) {
		return errs.Newf(errs.ErrKindInvalidInput, "allowed extensions: %s", strings.Join(lim.Extensions, ", "))
	}
	if lim.MaxBytes > 0 && size > lim.MaxBytes {
		return errs.Newf(errs.ErrKindInvalidInput, "max size %d MB", lim.MaxBytes>>20)
	}
	return nil
}
