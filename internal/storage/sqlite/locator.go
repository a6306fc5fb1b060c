package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"doc2db/internal/errs"
)

var projectKeyRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Locator resolves a project key to its destination file under Root:
// <root>/project_<key>.db. The root is injected; nothing depends on the
// process working directory beyond what Root itself says.
type Locator struct {
	Root string
}

// Path returns the destination file for key. Keys outside [A-Za-z0-9_-] are
// rejected so a key can never name a file outside Root.
func (l Locator) Path(key string) (string, error) {
	if !projectKeyRE.MatchString(key) {
		return "", errs.Newf(errs.ErrKindInvalidInput, "invalid project key %q", key)
	}
	return filepath.Join(l.Root, fmt.Sprintf("project_%s.db", key)), nil
}

// Create opens the destination for key, creating the file on first use.
func (l Locator) Create(ctx context.Context, key string) (*Repository, error) {
	p, err := l.Path(key)
	if err != nil {
		return nil, err
	}
	return Open(ctx, Config{Path: p, Create: true})
}

// Open opens an existing destination for key. An absent destination yields
// ErrNoDestination.
func (l Locator) Open(ctx context.Context, key string) (*Repository, error) {
	p, err := l.Path(key)
	if err != nil {
		return nil, err
	}
	return Open(ctx, Config{Path: p})
}
