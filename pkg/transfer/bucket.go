// Package transfer copies files between a local filesystem and an object
// store bucket, lists keys with pagination and plans clean-ups.
package transfer

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"example.com/ss3/pkg/filter"
	"example.com/ss3/pkg/metrics"
	"example.com/ss3/pkg/objectstore"
)

// DefaultIgnoreGlobs are local files never uploaded nor counted by clean.
var DefaultIgnoreGlobs = []string{"**/.DS_Store"}

// Bucket runs transfers against one bucket of an object store.
type Bucket struct {
	store   objectstore.ObjectStore
	fs      afero.Fs
	log     zerolog.Logger
	metrics *metrics.Collector
	ignore  *filter.Globs

	outMu sync.Mutex
	out   io.Writer
}

// Option customises a Bucket.
type Option func(*Bucket)

// WithFs sets the local filesystem. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(b *Bucket) { b.fs = fs }
}

// WithOutput sets where progress lines are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(b *Bucket) { b.out = w }
}

// WithLogger sets the diagnostic logger. Defaults to zerolog.Nop.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bucket) { b.log = l }
}

// WithMetrics sets the transfer counters. A nil collector counts nothing.
func WithMetrics(c *metrics.Collector) Option {
	return func(b *Bucket) { b.metrics = c }
}

// WithIgnore replaces the default ignore globs. A nil set ignores nothing.
func WithIgnore(g *filter.Globs) Option {
	return func(b *Bucket) { b.ignore = g }
}

// New wraps store.
func New(store objectstore.ObjectStore, opts ...Option) *Bucket {
	b := &Bucket{
		store:  store,
		fs:     afero.NewOsFs(),
		log:    zerolog.Nop(),
		ignore: filter.MustGlobs(DefaultIgnoreGlobs...),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With().Str("bucket", store.Bucket()).Logger()
	return b
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.store.Bucket()
}

// URL formats key as an s3:// address in this bucket.
func (b *Bucket) URL(key string) string {
	return fmt.Sprintf("s3://%s/%s", b.store.Bucket(), key)
}

// printf writes one progress line. Lines from concurrent transfers never
// interleave.
func (b *Bucket) printf(format string, args ...any) {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	fmt.Fprintf(b.out, format+"\n", args...)
}

func (b *Bucket) ignored(name string) bool {
	return b.ignore != nil && b.ignore.Match(name)
}
