// Package storetest provides an in-memory object store for tests.
//
// MemStore follows ListObjectsV2 semantics closely enough to exercise
// pagination: keys are returned in lexical order, common prefixes count
// toward the page size, and etags are quoted MD5 digests like S3 returns for
// single-part uploads.
package storetest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"example.com/ss3/pkg/objectstore"
)

// DefaultPageSize matches the S3 maximum page size.
const DefaultPageSize = 1000

type memObject struct {
	data        []byte
	contentType string
	etag        string
	modified    time.Time
}

// Calls counts requests per operation.
type Calls struct {
	List   int
	Head   int
	Get    int
	Put    int
	Delete int
}

// MemStore is a goroutine-safe ObjectStore held in memory.
type MemStore struct {
	bucket string
	// PageSize caps pages when ListInput.MaxKeys is zero.
	PageSize int
	// PutHook, when set, runs before every put and can fail it.
	PutHook func(key string) error

	mu      sync.Mutex
	objects map[string]*memObject
	calls   Calls
}

// New returns an empty store bound to bucket.
func New(bucket string) *MemStore {
	return &MemStore{
		bucket:   bucket,
		PageSize: DefaultPageSize,
		objects:  make(map[string]*memObject),
	}
}

// Seed stores content without counting a put.
func (m *MemStore) Seed(key string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = newMemObject([]byte(content), "")
}

func newMemObject(data []byte, contentType string) *memObject {
	sum := md5.Sum(data)
	return &memObject{
		data:        data,
		contentType: contentType,
		etag:        `"` + hex.EncodeToString(sum[:]) + `"`,
		modified:    time.Now(),
	}
}

// Calls returns a snapshot of the request counters.
func (m *MemStore) Calls() Calls {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Keys returns every stored key in lexical order.
func (m *MemStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedKeys()
}

// Content returns the stored bytes and content type of key.
func (m *MemStore) Content(key string) (string, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return "", "", false
	}
	return string(obj.data), obj.contentType, true
}

func (m *MemStore) sortedKeys() []string {
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MemStore) Bucket() string {
	return m.bucket
}

type listEntry struct {
	prefix string
	key    string
}

func (m *MemStore) List(ctx context.Context, in objectstore.ListInput) (objectstore.ListPage, error) {
	if err := ctx.Err(); err != nil {
		return objectstore.ListPage{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.List++

	var entries []listEntry
	seen := make(map[string]bool)
	for _, k := range m.sortedKeys() {
		if !strings.HasPrefix(k, in.Prefix) {
			continue
		}
		rest := k[len(in.Prefix):]
		if in.Delimiter != "" {
			if idx := strings.Index(rest, in.Delimiter); idx >= 0 {
				p := in.Prefix + rest[:idx+len(in.Delimiter)]
				if !seen[p] {
					seen[p] = true
					entries = append(entries, listEntry{prefix: p})
				}
				continue
			}
		}
		entries = append(entries, listEntry{key: k})
	}

	start := 0
	if in.ContinuationToken != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(in.ContinuationToken, "page-"))
		if err != nil || n < 0 || n > len(entries) {
			return objectstore.ListPage{}, fmt.Errorf("invalid continuation token %q", in.ContinuationToken)
		}
		start = n
	}
	size := int(in.MaxKeys)
	if size <= 0 {
		size = m.PageSize
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	end := start + size
	if end > len(entries) {
		end = len(entries)
	}

	var page objectstore.ListPage
	for _, e := range entries[start:end] {
		if e.prefix != "" {
			page.Prefixes = append(page.Prefixes, e.prefix)
			continue
		}
		obj := m.objects[e.key]
		page.Objects = append(page.Objects, objectstore.ObjectMeta{
			Key:          e.key,
			Size:         int64(len(obj.data)),
			ETag:         obj.etag,
			LastModified: obj.modified,
		})
	}
	if end < len(entries) {
		page.NextContinuationToken = "page-" + strconv.Itoa(end)
	}
	return page, nil
}

func (m *MemStore) Head(ctx context.Context, key string) (objectstore.ObjectMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Head++
	obj, ok := m.objects[key]
	if !ok {
		return objectstore.ObjectMeta{}, objectstore.NotFoundError{Key: key}
	}
	return objectstore.ObjectMeta{
		Key:          key,
		Size:         int64(len(obj.data)),
		ETag:         obj.etag,
		LastModified: obj.modified,
	}, nil
}

func (m *MemStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++
	obj, ok := m.objects[key]
	if !ok {
		return nil, objectstore.NotFoundError{Key: key}
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.PutHook != nil {
		if err := m.PutHook(key); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("put %s: read %d bytes, expected %d", key, len(data), size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++
	m.objects[key] = newMemObject(data, contentType)
	return nil
}

func (m *MemStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Delete++
	delete(m.objects, key)
	return nil
}

// MemBuckets is an in-memory BucketManager.
type MemBuckets struct {
	mu      sync.Mutex
	buckets map[string]bool
}

func NewBuckets(names ...string) *MemBuckets {
	b := &MemBuckets{buckets: make(map[string]bool)}
	for _, n := range names {
		b.buckets[n] = true
	}
	return b
}

func (b *MemBuckets) CreateBucket(ctx context.Context, name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buckets[name] {
		return "", fmt.Errorf("bucket %s already exists", name)
	}
	b.buckets[name] = true
	return "/" + name, nil
}

func (b *MemBuckets) DeleteBucket(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.buckets[name] {
		return fmt.Errorf("bucket %s does not exist", name)
	}
	delete(b.buckets, name)
	return nil
}

func (b *MemBuckets) ListBuckets(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.buckets))
	for n := range b.buckets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

var (
	_ objectstore.ObjectStore   = (*MemStore)(nil)
	_ objectstore.BucketManager = (*MemBuckets)(nil)
)
