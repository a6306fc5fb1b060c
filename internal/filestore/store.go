// Package filestore keeps uploaded documents until they are extracted.
//
// Drivers (local directory, MinIO) implement Store; callers depend only on
// this package. Object keys are generated here so that every driver names
// uploads the same way.
package filestore

import (
	"context"
	"fmt"
	"hash"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"doc2db/internal/errs"
)

// Upload is one incoming file. Size is -1 when unknown.
type Upload struct {
	ProjectID int64
	Filename  string
	Size      int64
	Reader    io.Reader
}

// Object describes a stored upload.
type Object struct {
	Key      string `json:"path"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Store is implemented by every upload driver.
type Store interface {
	Put(ctx context.Context, u Upload) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a stored upload. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// NewKey returns <project>_<uuid hex><ext> with the extension lower-cased.
func NewKey(projectID int64, filename string) string {
	id := uuid.New()
	return fmt.Sprintf("%d_%x%s", projectID, id[:], strings.ToLower(filepath.Ext(filename)))
}

// CheckKey rejects keys that are not a single plain path element.
func CheckKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return errs.Newf(errs.ErrKindInvalidInput, "invalid upload key %q", key)
	}
	return nil
}

// Checksummer tees everything read through it into an xxh3-64 hash.
type Checksummer struct {
	r io.Reader
	h hash.Hash64
	n int64
}

// NewChecksummer wraps r.
func NewChecksummer(r io.Reader) *Checksummer {
	return &Checksummer{r: r, h: xxh3.New()}
}

func (c *Checksummer) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		_, _ = c.h.Write(p[:n])
		c.n += int64(n)
	}
	return n, err
}

// Sum returns the hex digest of what has been read so far.
func (c *Checksummer) Sum() string { return fmt.Sprintf("%016x", c.h.Sum64()) }

// N returns the number of bytes read so far.
func (c *Checksummer) N() int64 { return c.n }

// Checksum returns the xxh3-64 hex digest of b.
func Checksum(b []byte) string { return fmt.Sprintf("%016x", xxh3.Hash(b)) }
