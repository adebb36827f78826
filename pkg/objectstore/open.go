package objectstore

import (
	"context"
	"strings"

	"example.com/ss3/pkg/cred"
	"example.com/ss3/pkg/errs"
)

// Backend names the client library used to talk to the store.
type Backend string

const (
	BackendS3    Backend = "s3"
	BackendMinio Backend = "minio"
)

// ParseBackend accepts "s3" (default when empty) or "minio".
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendS3:
		return BackendS3, nil
	case BackendMinio:
		return BackendMinio, nil
	}
	return "", errs.Newf(errs.KindConfiguration, "unknown backend '%s', must be 's3' or 'minio'", s)
}

// Open builds the bucket store and bucket manager for a resolved credential.
// The credential is not retained.
func Open(ctx context.Context, backend Backend, c cred.Credential, bucket string) (ObjectStore, BucketManager, error) {
	switch backend {
	case BackendMinio:
		core, err := NewMinioCore(c)
		if err != nil {
			return nil, nil, err
		}
		return NewMinioStore(core, bucket), NewMinioBuckets(core, c.Region), nil
	default:
		client, err := NewS3Client(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		return NewS3Store(client, bucket), NewS3Buckets(client, c.Region), nil
	}
}
