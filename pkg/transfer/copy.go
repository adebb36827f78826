package transfer

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"example.com/ss3/pkg/filter"
)

const (
	ContentTypeHTML = "text/html; charset=UTF-8"
	ContentTypeText = "text/plain; charset=UTF-8"

	defaultContentType = "application/octet-stream"
)

// CopyOptions is fixed for the duration of one cp invocation.
type CopyOptions struct {
	Recursive   bool
	Includes    *filter.Globs
	Excludes    *filter.Globs
	Overwrite   OverwriteMode
	ShowSkipped bool
	// NoExtContentType is the content type for files with no extension.
	NoExtContentType string
	// Concurrency above 1 transfers that many files at once.
	Concurrency int
}

// ContentTypeAlias expands the "html" and "text" shorthands of --noext-ct.
func ContentTypeAlias(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return ContentTypeHTML
	case "text":
		return ContentTypeText
	}
	return strings.TrimSpace(s)
}

// forEach runs fn over items in order, or with up to n in flight when n > 1.
// The first error stops work that has not started yet.
func forEach[T any](ctx context.Context, n int, items []T, fn func(context.Context, T) error) error {
	if n <= 1 {
		for _, it := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, it); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for _, it := range items {
		it := it
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, it)
		})
	}
	return g.Wait()
}
