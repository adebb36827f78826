package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"example.com/ss3/pkg/cred"
	"example.com/ss3/pkg/errs"
)

// fallbackRegion signs requests sent to a custom endpoint when no region was
// resolved; S3-compatible vendors ignore it.
const fallbackRegion = "us-east-1"

// S3Store implements the ObjectStore interface using an S3-compatible API.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store binds an AWS SDK client to a bucket.
func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
	}
}

// NewS3Client builds an S3 client from a resolved credential. The credential
// must carry a region, an endpoint, or both.
func NewS3Client(ctx context.Context, c cred.Credential) (*s3.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	awsCfg, err := loadAWSConfig(ctx, c)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, "load AWS config", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// loadAWSConfig pins region and static credentials so nothing else in the
// default chain can leak into the client.
func loadAWSConfig(ctx context.Context, c cred.Credential) (aws.Config, error) {
	region := c.Region
	if region == "" {
		region = fallbackRegion
	}
	loaders := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.KeyID, c.KeySecret, "")),
	}
	return config.LoadDefaultConfig(ctx, loaders...)
}

func (s *S3Store) Bucket() string {
	return s.bucket
}

// List issues a single ListObjectsV2 request.
func (s *S3Store) List(ctx context.Context, in ListInput) (ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(in.Prefix),
	}
	if in.Delimiter != "" {
		input.Delimiter = aws.String(in.Delimiter)
	}
	if in.ContinuationToken != "" {
		input.ContinuationToken = aws.String(in.ContinuationToken)
	}
	if in.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(in.MaxKeys)
	}
	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return ListPage{}, mapS3Error(err, fmt.Sprintf("list %s", in.Prefix))
	}
	page := ListPage{
		NextContinuationToken: aws.ToString(out.NextContinuationToken),
	}
	for _, cp := range out.CommonPrefixes {
		if p := aws.ToString(cp.Prefix); p != "" {
			page.Prefixes = append(page.Prefixes, p)
		}
	}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, ObjectMeta{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         aws.ToString(obj.ETag),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	return page, nil
}

// Head returns metadata for a single object by issuing an S3 HEAD request.
func (s *S3Store) Head(ctx context.Context, key string) (ObjectMeta, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) || apiCode(err) == "NotFound" {
			return ObjectMeta{}, NotFoundError{Key: key}
		}
		return ObjectMeta{}, mapS3Error(err, fmt.Sprintf("head %s", key))
	}
	return ObjectMeta{
		Key:          key,
		Size:         aws.ToInt64(head.ContentLength),
		ETag:         aws.ToString(head.ETag),
		LastModified: aws.ToTime(head.LastModified),
	}, nil
}

// Get opens the object body for streaming.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, NotFoundError{Key: key}
		}
		return nil, mapS3Error(err, fmt.Sprintf("get %s", key))
	}
	return obj.Body, nil
}

// Put uploads body in a single PutObject request.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return mapS3Error(err, fmt.Sprintf("put %s", key))
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapS3Error(err, fmt.Sprintf("delete %s", key))
	}
	return nil
}

// S3Buckets implements BucketManager on top of an AWS SDK client.
type S3Buckets struct {
	client *s3.Client
	region string
}

// NewS3Buckets wraps client; region drives the location constraint on create.
func NewS3Buckets(client *s3.Client, region string) *S3Buckets {
	return &S3Buckets{client: client, region: region}
}

func (b *S3Buckets) CreateBucket(ctx context.Context, name string) (string, error) {
	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	// us-east-1 rejects an explicit location constraint.
	if b.region != "" && b.region != fallbackRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.region),
		}
	}
	out, err := b.client.CreateBucket(ctx, input)
	if err != nil {
		return "", mapS3Error(err, fmt.Sprintf("create bucket %s", name))
	}
	return aws.ToString(out.Location), nil
}

func (b *S3Buckets) DeleteBucket(ctx context.Context, name string) error {
	if _, err := b.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
		return mapS3Error(err, fmt.Sprintf("delete bucket %s", name))
	}
	return nil
}

func (b *S3Buckets) ListBuckets(ctx context.Context) ([]string, error) {
	out, err := b.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, mapS3Error(err, "list buckets")
	}
	names := make([]string, 0, len(out.Buckets))
	for _, bucket := range out.Buckets {
		if name := aws.ToString(bucket.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// mapS3Error turns an SDK failure into a provider error carrying the API
// code and message.
func mapS3Error(err error, op string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.ErrorMessage()
		if msg == "" {
			msg = op
		}
		return errs.Provider(apiErr.ErrorCode(), msg, err)
	}
	return errs.Provider("", fmt.Sprintf("%s: %v", op, err), err)
}

func apiCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

var (
	_ ObjectStore   = (*S3Store)(nil)
	_ BucketManager = (*S3Buckets)(nil)
)
