package transfer

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"example.com/ss3/pkg/errs"
	"example.com/ss3/pkg/filter"
	"example.com/ss3/pkg/keys"
	"example.com/ss3/pkg/metrics"
)

type uploadJob struct {
	src string
	key string
}

// UploadPath uploads src under prefix.
//
// A regular file goes to one key; when prefix ends with the same extension as
// the file it is the full target key. A directory is walked one level deep,
// or fully when opts.Recursive is set, and each file keeps its path relative
// to src. Anything else fails with a path error.
func (b *Bucket) UploadPath(ctx context.Context, src, prefix string, opts CopyOptions) (Summary, error) {
	var t tally
	info, err := b.lstat(src)
	if err != nil {
		return Summary{}, errs.FilePathNotFound(src)
	}

	switch {
	case info.Mode().IsRegular():
		key, err := keys.DestinationKey("", src, prefix, true)
		if err != nil {
			return Summary{}, err
		}
		err = b.uploadFile(ctx, uploadJob{src: src, key: key}, opts, nil, &t)
		return t.snapshot(), err

	case info.IsDir():
		jobs, err := b.walkUpload(src, prefix, opts.Recursive)
		if err != nil {
			return Summary{}, err
		}
		var cache *SItemsCache
		if opts.Overwrite == OverwriteEtag {
			if cache, err = b.BuildSItemsCache(ctx, prefix); err != nil {
				return Summary{}, err
			}
		}
		b.log.Debug().Str("src", src).Int("files", len(jobs)).Int("cached", cache.Len()).Msg("upload walk")
		err = forEach(ctx, opts.Concurrency, jobs, func(ctx context.Context, j uploadJob) error {
			return b.uploadFile(ctx, j, opts, cache, &t)
		})
		return t.snapshot(), err
	}
	return Summary{}, errs.FilePathNotFound(src)
}

func (b *Bucket) lstat(name string) (os.FileInfo, error) {
	if l, ok := b.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return b.fs.Stat(name)
}

// walkUpload collects the regular files under dir in lexical order.
func (b *Bucket) walkUpload(dir, prefix string, recursive bool) ([]uploadJob, error) {
	var jobs []uploadJob
	err := afero.Walk(b.fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		key, err := keys.DestinationKey(dir, p, prefix, false)
		if err != nil {
			return err
		}
		jobs = append(jobs, uploadJob{src: p, key: key})
		return nil
	})
	if err != nil {
		if errs.KindOf(err) != errs.KindUnknown {
			return nil, err
		}
		return nil, errs.Wrap(errs.KindIO, "walk "+dir, err)
	}
	return jobs, nil
}

func (b *Bucket) uploadFile(ctx context.Context, j uploadJob, opts CopyOptions, cache *SItemsCache, t *tally) error {
	if b.ignored(filepath.Base(j.src)) {
		if opts.ShowSkipped {
			b.printf("%-20s %s", "Skip (by default)", j.src)
		}
		t.add(func(s *Summary) { s.Skipped++ })
		b.metrics.Object(metrics.Skipped)
		return nil
	}

	switch filter.Classify(j.key, opts.Includes, opts.Excludes) {
	case filter.ExcludeInExclude:
		b.printf("%-20s %s", "Excludes", j.src)
		t.add(func(s *Summary) { s.Excluded++ })
		b.metrics.Object(metrics.Excluded)
		return nil
	case filter.ExcludeNotInInclude:
		return nil
	}

	ok, err := b.allowUpload(ctx, j.key, j.src, opts.Overwrite, cache)
	if err != nil {
		return err
	}
	if !ok {
		if opts.ShowSkipped {
			b.printf("%-11s - %s", "Skip ("+opts.Overwrite.Label()+")", b.URL(j.key))
		}
		t.add(func(s *Summary) { s.Skipped++ })
		b.metrics.Object(metrics.Skipped)
		return nil
	}
	return b.putFile(ctx, j, opts, t)
}

func (b *Bucket) putFile(ctx context.Context, j uploadJob, opts CopyOptions, t *tally) error {
	f, err := b.fs.Open(j.src)
	if err != nil {
		return errs.Wrap(errs.KindIO, "open "+j.src, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return errs.Wrap(errs.KindIO, "stat "+j.src, err)
	}
	ct, err := contentType(f, j.src, opts.NoExtContentType)
	if err != nil {
		return err
	}

	b.printf("%-11s %-50s --> %s   (content-type: %s)", "Uploading", j.src, b.URL(j.key), ct)
	b.metrics.Request("put")
	if err := b.store.Put(ctx, j.key, f, info.Size(), ct); err != nil {
		return err
	}
	b.log.Debug().Str("key", j.key).Int64("size", info.Size()).Msg("uploaded")
	t.add(func(s *Summary) {
		s.Uploaded++
		s.Bytes += info.Size()
	})
	b.metrics.Object(metrics.Uploaded)
	b.metrics.Bytes("up", info.Size())
	return nil
}

// contentType picks the override for extensionless files, then the type
// registered for the extension, then a content sniff. f is rewound after a
// sniff.
func contentType(f io.ReadSeeker, src, noExt string) (string, error) {
	ext := keys.Extension(src)
	if ext == "" && noExt != "" {
		return noExt, nil
	}
	if ext != "" {
		if ct := mime.TypeByExtension("." + ext); ct != "" {
			return ct, nil
		}
	}
	mt, sniffErr := mimetype.DetectReader(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", errs.Wrap(errs.KindIO, "rewind "+src, err)
	}
	if sniffErr != nil || mt == nil {
		return defaultContentType, nil
	}
	return mt.String(), nil
}
