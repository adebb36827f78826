package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ObjectMeta describes a single object returned by the store.
type ObjectMeta struct {
	Key  string
	Size int64
	// ETag is returned exactly as the provider sent it, quotes included.
	ETag         string
	LastModified time.Time
}

// ListInput configures a single ListObjectsV2 style request.
type ListInput struct {
	Prefix string
	// Delimiter groups deeper keys into common prefixes when non-empty.
	Delimiter         string
	ContinuationToken string
	// MaxKeys caps the page size; zero keeps the provider default.
	MaxKeys int32
}

// ListPage is one page of a listing.
type ListPage struct {
	Prefixes              []string
	Objects               []ObjectMeta
	NextContinuationToken string
}

var ErrNotFound = errors.New("object not found")

// NotFoundError conveys that a specific object key was not found in the store.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return "object not found"
	}
	return fmt.Sprintf("%s: not found", e.Key)
}

func (e NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsNotFound reports whether err represents a missing remote object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ObjectStore abstracts the object operations of a single bucket.
type ObjectStore interface {
	// Bucket returns the bucket name the store is bound to.
	Bucket() string
	// List issues exactly one listing request.
	List(ctx context.Context, in ListInput) (ListPage, error)
	// Head returns metadata for a single key or a NotFoundError.
	Head(ctx context.Context, key string) (ObjectMeta, error)
	// Get opens the object content. The caller must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Put stores body under key in a single request.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// BucketManager covers the account level bucket operations.
type BucketManager interface {
	// CreateBucket returns the bucket location when the provider reports one.
	CreateBucket(ctx context.Context, name string) (string, error)
	DeleteBucket(ctx context.Context, name string) error
	ListBuckets(ctx context.Context) ([]string, error)
}
