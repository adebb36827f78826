package transfer

import (
	"context"
	"strings"

	"github.com/spf13/afero"

	"example.com/ss3/pkg/errs"
	"example.com/ss3/pkg/objectstore"
)

// OverwriteMode decides what happens when the destination already exists.
type OverwriteMode int

const (
	// OverwriteSkip copies only when the destination is missing.
	OverwriteSkip OverwriteMode = iota
	// OverwriteWrite always copies.
	OverwriteWrite
	// OverwriteEtag copies unless the object etag equals the local MD5.
	// Multipart etags never compare equal. Uploads only.
	OverwriteEtag
	// OverwriteFail errors on an existing destination.
	OverwriteFail
)

func (m OverwriteMode) String() string {
	switch m {
	case OverwriteWrite:
		return "write"
	case OverwriteEtag:
		return "etag"
	case OverwriteFail:
		return "fail"
	}
	return "skip"
}

// Label is shown in "Skip (<label>)" lines.
func (m OverwriteMode) Label() string {
	switch m {
	case OverwriteWrite:
		return "Write"
	case OverwriteEtag:
		return "Etag"
	case OverwriteFail:
		return "Fail"
	}
	return "Exists"
}

// ParseOverwriteMode parses the --over value. Empty means skip.
func ParseOverwriteMode(s string) (OverwriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return OverwriteSkip, nil
	case "write":
		return OverwriteWrite, nil
	case "etag":
		return OverwriteEtag, nil
	case "fail":
		return OverwriteFail, nil
	}
	return OverwriteSkip, errs.Newf(errs.KindConfiguration, "invalid --over value '%s', must be one of 'skip', 'write', 'etag', 'fail'", s)
}

// exists probes key with a HEAD request.
func (b *Bucket) exists(ctx context.Context, key string) (bool, error) {
	b.metrics.Request("head")
	_, err := b.store.Head(ctx, key)
	if err == nil {
		return true, nil
	}
	if objectstore.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// allowUpload reports whether src may be written to key.
func (b *Bucket) allowUpload(ctx context.Context, key, src string, mode OverwriteMode, cache *SItemsCache) (bool, error) {
	switch mode {
	case OverwriteWrite:
		return true, nil
	case OverwriteEtag:
		same, err := b.sameEtag(ctx, key, src, cache)
		return !same, err
	case OverwriteFail:
		found, err := b.exists(ctx, key)
		if err != nil {
			return false, err
		}
		if found {
			return false, errs.ObjectExists(b.URL(key))
		}
		return true, nil
	default:
		found, err := b.exists(ctx, key)
		return !found, err
	}
}

// sameEtag reports whether the object at key has a non-empty etag equal to
// the MD5 of src. With a cache the snapshot is authoritative; without one a
// single HEAD is issued.
func (b *Bucket) sameEtag(ctx context.Context, key, src string, cache *SItemsCache) (bool, error) {
	var etag string
	if cache != nil {
		item, ok := cache.Get(key)
		if !ok {
			return false, nil
		}
		etag = item.ETag
	} else {
		b.metrics.Request("head")
		meta, err := b.store.Head(ctx, key)
		if objectstore.IsNotFound(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		etag = strings.Trim(meta.ETag, `"`)
	}
	if etag == "" {
		return false, nil
	}
	sum, err := ContentHash(b.fs, src)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(sum, etag), nil
}

// allowDownload reports whether dst may be written. Etag mode is rejected
// before any download starts, so it never reaches here.
func allowDownload(fs afero.Fs, dst string, mode OverwriteMode) (bool, error) {
	switch mode {
	case OverwriteWrite:
		return true, nil
	case OverwriteEtag:
		return false, errEtagDownload
	}
	found, err := afero.Exists(fs, dst)
	if err != nil {
		return false, errs.Wrap(errs.KindIO, "stat "+dst, err)
	}
	if mode == OverwriteFail && found {
		return false, errs.FileExists(dst)
	}
	return !found, nil
}

var errEtagDownload = errs.NotSupported("--over etag for downloads")
