package transfer

import (
	"context"
	"strings"

	"example.com/ss3/pkg/filter"
	"example.com/ss3/pkg/objectstore"
)

// ItemKind tells objects from common prefixes.
type ItemKind int

const (
	KindObject ItemKind = iota
	KindPrefix
)

func (k ItemKind) String() string {
	if k == KindPrefix {
		return "prefix"
	}
	return "object"
}

func (k ItemKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// StoreItem is one listed entry. ETag has its quotes stripped and is empty
// for prefixes or when the store omits it.
type StoreItem struct {
	Kind ItemKind `json:"kind" yaml:"kind"`
	Key  string   `json:"key" yaml:"key"`
	Size int64    `json:"size" yaml:"size"`
	ETag string   `json:"etag,omitempty" yaml:"etag,omitempty"`
}

func itemFromObject(o objectstore.ObjectMeta) StoreItem {
	return StoreItem{
		Kind: KindObject,
		Key:  strings.TrimLeft(o.Key, "/"),
		Size: o.Size,
		ETag: strings.Trim(o.ETag, `"`),
	}
}

func itemFromPrefix(p string) StoreItem {
	return StoreItem{Kind: KindPrefix, Key: strings.TrimLeft(p, "/")}
}

// ListOptions controls a single listing request.
type ListOptions struct {
	// Recursive drops the "/" delimiter so every key under the prefix is
	// returned and no prefixes are grouped.
	Recursive         bool
	Includes          *filter.Globs
	Excludes          *filter.Globs
	ContinuationToken string
	MaxKeys           int32
}

// ListResult is one page of a listing.
type ListResult struct {
	Prefixes              []StoreItem
	Objects               []StoreItem
	NextContinuationToken string
}

// List issues exactly one listing request under prefix. Entries rejected by
// the include/exclude globs are dropped.
func (b *Bucket) List(ctx context.Context, prefix string, opts ListOptions) (ListResult, error) {
	in := objectstore.ListInput{
		Prefix:            prefix,
		ContinuationToken: opts.ContinuationToken,
		MaxKeys:           opts.MaxKeys,
	}
	if !opts.Recursive {
		in.Delimiter = "/"
	}
	b.metrics.Request("list")
	page, err := b.store.List(ctx, in)
	if err != nil {
		return ListResult{}, err
	}

	var res ListResult
	for _, p := range page.Prefixes {
		if filter.Allowed(p, opts.Includes, opts.Excludes) {
			res.Prefixes = append(res.Prefixes, itemFromPrefix(p))
		}
	}
	for _, o := range page.Objects {
		if filter.Allowed(o.Key, opts.Includes, opts.Excludes) {
			res.Objects = append(res.Objects, itemFromObject(o))
		}
	}
	res.NextContinuationToken = page.NextContinuationToken
	b.log.Debug().
		Str("prefix", prefix).
		Int("prefixes", len(res.Prefixes)).
		Int("objects", len(res.Objects)).
		Bool("more", res.NextContinuationToken != "").
		Msg("listed page")
	return res, nil
}

// ListPages calls List until no continuation token is returned, handing
// every page to fn. At least one request is always made.
func (b *Bucket) ListPages(ctx context.Context, prefix string, opts ListOptions, fn func(ListResult) error) error {
	for {
		page, err := b.List(ctx, prefix, opts)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		if page.NextContinuationToken == "" {
			return nil
		}
		opts.ContinuationToken = page.NextContinuationToken
	}
}

// ListAll gathers every page into one result.
func (b *Bucket) ListAll(ctx context.Context, prefix string, opts ListOptions) (ListResult, error) {
	var all ListResult
	err := b.ListPages(ctx, prefix, opts, func(page ListResult) error {
		all.Prefixes = append(all.Prefixes, page.Prefixes...)
		all.Objects = append(all.Objects, page.Objects...)
		return nil
	})
	return all, err
}
