// Package uploads keeps a copy of every submitted document in a blob bucket.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	"docverify/internal/verification"
	"docverify/pkg/platform/sentinel"
)

// Store writes uploads under uploads/<kind>/<id><ext>.
type Store struct {
	bucket *blob.Bucket
}

// Open opens the bucket at url (mem://, file:///, gs://, s3://) and checks it is reachable.
func Open(ctx context.Context, url string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", url, err)
	}
	ok, err := bucket.IsAccessible(ctx)
	if err != nil {
		_ = bucket.Close()
		return nil, fmt.Errorf("check bucket %s: %w", url, err)
	}
	if !ok {
		_ = bucket.Close()
		return nil, fmt.Errorf("bucket %s is not accessible", url)
	}
	return New(bucket), nil
}

// New wraps an already opened bucket.
func New(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// Put stores the upload and returns its key.
func (s *Store) Put(ctx context.Context, upload verification.Upload) (string, error) {
	key := "uploads/" + string(upload.Kind) + "/" + uuid.NewString() + extension(upload)

	contentType := upload.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(upload.Data).String()
	}
	err := s.bucket.WriteAll(ctx, key, upload.Data, &blob.WriterOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"filename": upload.Filename},
	})
	if err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return key, nil
}

// Get returns the stored bytes for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("upload %s: %w", key, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Healthy reports whether the bucket can be reached.
func (s *Store) Healthy(ctx context.Context) error {
	ok, err := s.bucket.IsAccessible(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("upload bucket is not accessible")
	}
	return nil
}

func (s *Store) Close() error {
	return s.bucket.Close()
}

func extension(upload verification.Upload) string {
	if ext := strings.ToLower(filepath.Ext(upload.Filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	return mimetype.Detect(upload.Data).Extension()
}
