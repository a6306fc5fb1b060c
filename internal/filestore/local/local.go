// Package local stores uploads as files under one directory.
package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"doc2db/internal/errs"
	"doc2db/internal/filestore"
)

// Driver is a directory-backed filestore.Store.
type Driver struct {
	root string
}

var _ filestore.Store = (*Driver)(nil)

// New creates root if needed.
func New(root string) (*Driver, error) {
	if root == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "local filestore: root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrKindPermissionDenied, "local filestore: create root", err)
	}
	return &Driver{root: root}, nil
}

// Root returns the upload directory.
func (d *Driver) Root() string { return d.root }

func (d *Driver) Ping(context.Context) error {
	fi, err := os.Stat(d.root)
	if err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "local filestore: stat root", err)
	}
	if !fi.IsDir() {
		return errs.Newf(errs.ErrKindConnectionFailed, "local filestore: %s is not a directory", d.root)
	}
	return nil
}

func (d *Driver) Put(ctx context.Context, u filestore.Upload) (filestore.Object, error) {
	key := filestore.NewKey(u.ProjectID, u.Filename)
	path := filepath.Join(d.root, key)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return filestore.Object{}, errs.Wrap(errs.ErrKindQueryFailed, "local filestore: create", err)
	}

	sum := filestore.NewChecksummer(u.Reader)
	_, err = io.Copy(f, readerCtx{ctx: ctx, r: sum})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return filestore.Object{}, errs.Wrap(errs.ErrKindQueryFailed, "local filestore: write", err)
	}

	return filestore.Object{Key: key, Filename: u.Filename, Size: sum.N(), Checksum: sum.Sum()}, nil
}

func (d *Driver) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := filestore.CheckKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.root, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrKindNotFound, "upload not found", err)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "local filestore: open", err)
	}
	adviseSequential(f)
	return f, nil
}

func (d *Driver) Delete(_ context.Context, key string) error {
	if err := filestore.CheckKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(d.root, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.Wrap(errs.ErrKindQueryFailed, "local filestore: remove", err)
	}
	return nil
}

// readerCtx stops a copy once ctx is done.
type readerCtx struct {
	ctx context.Context
	r   io.Reader
}

func (r readerCtx) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
