package transfer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"example.com/ss3/pkg/errs"
	"example.com/ss3/pkg/filter"
	"example.com/ss3/pkg/keys"
	"example.com/ss3/pkg/metrics"
)

// chunkSize bounds how much of an object body is buffered while writing.
const chunkSize = 2 << 20

type downloadJob struct {
	key string
	dst string
}

// DownloadPath downloads baseKey into dst.
//
// A file key goes to dst itself, or into dst when dst looks like a
// directory. A directory key is copied prefix by prefix, one listing level at
// a time; sub-prefixes are queued only when opts.Recursive is set. Copying a
// directory key onto a file path is not supported, and neither is etag mode.
func (b *Bucket) DownloadPath(ctx context.Context, baseKey, dst string, opts CopyOptions) (Summary, error) {
	if opts.Overwrite == OverwriteEtag {
		return Summary{}, errEtagDownload
	}
	var t tally

	switch {
	case keys.Classify(baseKey) == keys.File:
		name := keys.FileName(baseKey)
		if name == "" {
			return Summary{}, errs.InvalidPath(baseKey)
		}
		dstFile := dst
		if keys.Classify(dst) == keys.Directory {
			dstFile = filepath.Join(dst, name)
		}
		err := b.downloadFile(ctx, downloadJob{key: baseKey, dst: dstFile}, opts, newDirSet(b.fs), &t)
		return t.snapshot(), err

	case keys.Classify(dst) == keys.File:
		return Summary{}, errs.NotSupported("S3 Dir to Path File")
	}

	err := b.downloadTree(ctx, baseKey, dst, opts, &t)
	return t.snapshot(), err
}

// downloadTree walks prefixes breadth first from baseKey.
func (b *Bucket) downloadTree(ctx context.Context, baseKey, dst string, opts CopyOptions, t *tally) error {
	seed := baseKey
	if seed != "" && !strings.HasSuffix(seed, "/") {
		seed += "/"
	}
	dirs := newDirSet(b.fs)
	queue := []string{seed}

	for len(queue) > 0 {
		prefix := queue[0]
		queue = queue[1:]

		err := b.ListPages(ctx, prefix, ListOptions{}, func(page ListResult) error {
			jobs := make([]downloadJob, 0, len(page.Objects))
			for _, item := range page.Objects {
				if strings.HasSuffix(item.Key, "/") {
					continue
				}
				jobs = append(jobs, downloadJob{key: item.Key, dst: keys.DestinationPath(baseKey, item.Key, dst)})
			}
			err := forEach(ctx, opts.Concurrency, jobs, func(ctx context.Context, j downloadJob) error {
				return b.downloadFile(ctx, j, opts, dirs, t)
			})
			if err != nil {
				return err
			}
			if opts.Recursive {
				for _, p := range page.Prefixes {
					queue = append(queue, p.Key)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// dirSet creates each local parent directory once per download.
type dirSet struct {
	fs   afero.Fs
	mu   sync.Mutex
	seen map[string]bool
}

func newDirSet(fs afero.Fs) *dirSet {
	return &dirSet{fs: fs, seen: make(map[string]bool)}
}

func (d *dirSet) ensure(dir string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[dir] {
		return nil
	}
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.KindIO, "create "+dir, err)
	}
	d.seen[dir] = true
	return nil
}

// downloadFile creates the parent of j.dst only once the key passed the
// filters and the overwrite policy.
func (b *Bucket) downloadFile(ctx context.Context, j downloadJob, opts CopyOptions, dirs *dirSet, t *tally) error {
	switch filter.Classify(j.key, opts.Includes, opts.Excludes) {
	case filter.ExcludeInExclude:
		b.printf("%-20s %s", "Excludes", b.URL(j.key))
		t.add(func(s *Summary) { s.Excluded++ })
		b.metrics.Object(metrics.Excluded)
		return nil
	case filter.ExcludeNotInInclude:
		return nil
	}

	ok, err := allowDownload(b.fs, j.dst, opts.Overwrite)
	if err != nil {
		return err
	}
	if !ok {
		if opts.ShowSkipped {
			b.printf("%-20s %s", "Skip (exists)", j.dst)
		}
		t.add(func(s *Summary) { s.Skipped++ })
		b.metrics.Object(metrics.Skipped)
		return nil
	}

	if err := dirs.ensure(filepath.Dir(j.dst)); err != nil {
		return err
	}
	b.printf("%-20s %s to %s", "Downloading", b.URL(j.key), j.dst)
	b.metrics.Request("get")
	body, err := b.store.Get(ctx, j.key)
	if err != nil {
		return err
	}
	defer body.Close()

	n, err := b.writeFile(j.dst, body)
	if err != nil {
		return err
	}
	b.log.Debug().Str("key", j.key).Int64("size", n).Msg("downloaded")
	t.add(func(s *Summary) {
		s.Downloaded++
		s.Bytes += n
	})
	b.metrics.Object(metrics.Downloaded)
	b.metrics.Bytes("down", n)
	return nil
}

// writeFile streams r into path in chunkSize pieces.
func (b *Bucket) writeFile(path string, r io.Reader) (int64, error) {
	f, err := b.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, errs.Wrap(errs.KindIO, "create "+path, err)
	}
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				return written, errs.Wrap(errs.KindIO, "write "+path, werr)
			}
			written += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			return written, errs.Wrap(errs.KindIO, "read body for "+path, rerr)
		}
	}
	if err := f.Close(); err != nil {
		return written, errs.Wrap(errs.KindIO, "close "+path, err)
	}
	return written, nil
}
