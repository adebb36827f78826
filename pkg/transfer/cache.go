package transfer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"

	"github.com/spf13/afero"

	"example.com/ss3/pkg/errs"
)

// SItemsCache is a point-in-time snapshot of the objects under a prefix,
// keyed by object key. It is read-only once built and safe to share between
// goroutines.
type SItemsCache struct {
	items map[string]StoreItem
}

// BuildSItemsCache lists every object under prefix, all pages included.
func (b *Bucket) BuildSItemsCache(ctx context.Context, prefix string) (*SItemsCache, error) {
	all, err := b.ListAll(ctx, prefix, ListOptions{Recursive: true})
	if err != nil {
		return nil, err
	}
	c := &SItemsCache{items: make(map[string]StoreItem, len(all.Objects))}
	for _, item := range all.Objects {
		c.items[item.Key] = item
	}
	b.log.Debug().Str("prefix", prefix).Int("objects", len(c.items)).Msg("built etag snapshot")
	return c, nil
}

// Get returns the snapshot entry for key.
func (c *SItemsCache) Get(key string) (StoreItem, bool) {
	if c == nil {
		return StoreItem{}, false
	}
	item, ok := c.items[key]
	return item, ok
}

// Len returns the number of cached objects.
func (c *SItemsCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// ContentHash returns the hex MD5 of a local file, the etag S3 assigns to a
// single-part upload of the same bytes.
func ContentHash(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", errs.Wrap(errs.KindIO, "compute md5 of "+path, err)
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errs.Wrap(errs.KindIO, "compute md5 of "+path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
