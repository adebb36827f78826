package keys

import (
	"fmt"
	"strings"

	"example.com/ss3/pkg/errs"
)

const scheme = "s3://"

// URL is a parsed s3://bucket[/key] address.
type URL struct {
	Bucket string
	Key    string
}

func (u URL) String() string {
	return fmt.Sprintf("%s%s/%s", scheme, u.Bucket, u.Key)
}

// IsS3URL reports whether s uses the s3:// scheme.
func IsS3URL(s string) bool {
	return strings.HasPrefix(s, scheme)
}

// ParseURL splits an s3:// address into bucket and key. A leading '/' on the
// key is dropped.
func ParseURL(s string) (URL, error) {
	if !IsS3URL(s) {
		return URL{}, invalidURL(s)
	}
	rest := strings.TrimPrefix(s, scheme)
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || strings.ContainsAny(bucket, ": \t\n") {
		return URL{}, invalidURL(s)
	}
	return URL{Bucket: bucket, Key: key}, nil
}

func invalidURL(s string) error {
	return errs.Newf(errs.KindPathInvalid, "Not a valid s3 url '%s'. Should be format 's3://bucket_name[/path/to/object]'", s)
}

// Location is either a local path or an s3 address given on the command line.
type Location struct {
	Local string
	S3    *URL
}

// IsRemote reports whether the location is an s3 address.
func (l Location) IsRemote() bool {
	return l.S3 != nil
}

func (l Location) String() string {
	if l.S3 != nil {
		return l.S3.String()
	}
	return l.Local
}

// ParseLocation parses an argument that may be a local path or an s3 URL.
func ParseLocation(s string) (Location, error) {
	if IsS3URL(s) {
		u, err := ParseURL(s)
		if err != nil {
			return Location{}, err
		}
		return Location{S3: &u}, nil
	}
	return Location{Local: s}, nil
}
