// Package minio stores uploads as objects in one MinIO (or S3) bucket.
package minio

import (
	"context"
	"io"
	"mime"
	"path/filepath"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"doc2db/internal/errs"
	"doc2db/internal/filestore"
)

// Config holds the connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// Driver is a MinIO implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	bucket string
}

var _ filestore.Store = (*Driver)(nil)

// New connects, then creates the bucket when it does not exist yet.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.Bucket == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "minio filestore: bucket must not be empty")
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{client: client, bucket: cfg.Bucket}
	if err := d.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) ensureBucket(ctx context.Context, region string) error {
	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "failed to check bucket")
	}
	if ok {
		return nil
	}
	if err := d.client.MakeBucket(ctx, d.bucket, miniogo.MakeBucketOptions{Region: region}); err != nil {
		return mapError(err, "failed to create bucket")
	}
	return nil
}

// Ping verifies the bucket is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if _, err := d.client.BucketExists(ctx, d.bucket); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Put(ctx context.Context, u filestore.Upload) (filestore.Object, error) {
	key := filestore.NewKey(u.ProjectID, u.Filename)
	sum := filestore.NewChecksummer(u.Reader)

	size := u.Size
	if size == 0 {
		size = -1
	}
	info, err := d.client.PutObject(ctx, d.bucket, key, sum, size, miniogo.PutObjectOptions{
		ContentType:  contentType(u.Filename),
		UserMetadata: map[string]string{"filename": u.Filename},
	})
	if err != nil {
		return filestore.Object{}, mapError(err, "failed to put object")
	}
	return filestore.Object{Key: key, Filename: u.Filename, Size: info.Size, Checksum: sum.Sum()}, nil
}

// Open streams the object. The caller must close it.
func (d *Driver) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := filestore.CheckKey(key); err != nil {
		return nil, err
	}
	obj, err := d.client.GetObject(ctx, d.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get object")
	}
	// GetObject is lazy; Stat surfaces a missing key now.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapError(err, "failed to stat object")
	}
	return obj, nil
}

// Delete removes the object. S3 treats a missing key as success.
func (d *Driver) Delete(ctx context.Context, key string) error {
	if err := filestore.CheckKey(key); err != nil {
		return err
	}
	if err := d.client.RemoveObject(ctx, d.bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return mapError(err, "failed to remove object")
	}
	return nil
}

func contentType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
