package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"example.com/ss3/pkg/cred"
	"example.com/ss3/pkg/errs"
)

// MinioStore implements ObjectStore with minio-go. It goes through the Core
// API so that listings keep their continuation tokens.
type MinioStore struct {
	core   *miniogo.Core
	bucket string
}

// NewMinioCore builds a minio Core client. MinIO has no notion of an AWS
// region endpoint, so the credential must carry an endpoint.
func NewMinioCore(c cred.Credential) (*miniogo.Core, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Endpoint == "" {
		return nil, errs.New(errs.KindConfiguration, "the minio backend requires an ENDPOINT")
	}
	host, secure, err := splitEndpoint(c.Endpoint)
	if err != nil {
		return nil, err
	}
	core, err := miniogo.NewCore(host, &miniogo.Options{
		Creds:        miniocreds.NewStaticV4(c.KeyID, c.KeySecret, ""),
		Secure:       secure,
		Region:       c.Region,
		BucketLookup: miniogo.BucketLookupPath,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, "create minio client", err)
	}
	return core, nil
}

// splitEndpoint accepts "host:port" or a full URL. A bare host:port is plain
// HTTP, like a local MinIO on localhost:9000; use an https:// URL for TLS.
func splitEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, false, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", false, errs.Newf(errs.KindConfiguration, "invalid endpoint '%s'", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

// NewMinioStore binds core to bucket.
func NewMinioStore(core *miniogo.Core, bucket string) *MinioStore {
	return &MinioStore{core: core, bucket: bucket}
}

func (m *MinioStore) Bucket() string {
	return m.bucket
}

func (m *MinioStore) List(ctx context.Context, in ListInput) (ListPage, error) {
	res, err := m.core.ListObjectsV2(m.bucket, in.Prefix, "", in.ContinuationToken, in.Delimiter, int(in.MaxKeys))
	if err != nil {
		return ListPage{}, mapMinioError(err, fmt.Sprintf("list %s", in.Prefix))
	}
	page := ListPage{NextContinuationToken: res.NextContinuationToken}
	for _, cp := range res.CommonPrefixes {
		if cp.Prefix != "" {
			page.Prefixes = append(page.Prefixes, cp.Prefix)
		}
	}
	for _, obj := range res.Contents {
		page.Objects = append(page.Objects, ObjectMeta{
			Key:          obj.Key,
			Size:         obj.Size,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
	}
	return page, nil
}

func (m *MinioStore) Head(ctx context.Context, key string) (ObjectMeta, error) {
	info, err := m.core.StatObject(ctx, m.bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return ObjectMeta{}, NotFoundError{Key: key}
		}
		return ObjectMeta{}, mapMinioError(err, fmt.Sprintf("head %s", key))
	}
	return ObjectMeta{
		Key:          key,
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

func (m *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, _, _, err := m.core.GetObject(ctx, m.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, NotFoundError{Key: key}
		}
		return nil, mapMinioError(err, fmt.Sprintf("get %s", key))
	}
	return body, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	// Client.PutObject, not Core.PutObject: the latter wants precomputed hashes.
	_, err := m.core.Client.PutObject(ctx, m.bucket, key, body, size, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return mapMinioError(err, fmt.Sprintf("put %s", key))
	}
	return nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.core.RemoveObject(ctx, m.bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return mapMinioError(err, fmt.Sprintf("delete %s", key))
	}
	return nil
}

// MinioBuckets implements BucketManager with minio-go.
type MinioBuckets struct {
	core   *miniogo.Core
	region string
}

// NewMinioBuckets wraps core; region is sent with MakeBucket.
func NewMinioBuckets(core *miniogo.Core, region string) *MinioBuckets {
	return &MinioBuckets{core: core, region: region}
}

func (b *MinioBuckets) CreateBucket(ctx context.Context, name string) (string, error) {
	if err := b.core.MakeBucket(ctx, name, miniogo.MakeBucketOptions{Region: b.region}); err != nil {
		return "", mapMinioError(err, fmt.Sprintf("create bucket %s", name))
	}
	return "/" + name, nil
}

func (b *MinioBuckets) DeleteBucket(ctx context.Context, name string) error {
	if err := b.core.RemoveBucket(ctx, name); err != nil {
		return mapMinioError(err, fmt.Sprintf("delete bucket %s", name))
	}
	return nil
}

func (b *MinioBuckets) ListBuckets(ctx context.Context) ([]string, error) {
	raw, err := b.core.ListBuckets(ctx)
	if err != nil {
		return nil, mapMinioError(err, "list buckets")
	}
	names := make([]string, 0, len(raw))
	for _, bucket := range raw {
		names = append(names, bucket.Name)
	}
	return names, nil
}

func isMinioNotFound(err error) bool {
	resp := miniogo.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket"
}

// mapMinioError translates a MinIO SDK error into a provider error.
func mapMinioError(err error, op string) error {
	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		msg := resp.Message
		if msg == "" {
			msg = op
		}
		return errs.Provider(resp.Code, msg, err)
	}
	return errs.Provider("", fmt.Sprintf("%s: %v", op, err), err)
}

var (
	_ ObjectStore   = (*MinioStore)(nil)
	_ BucketManager = (*MinioBuckets)(nil)
)
