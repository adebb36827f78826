package transfer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"example.com/ss3/pkg/errs"
	"example.com/ss3/pkg/keys"
	"example.com/ss3/pkg/metrics"
)

// PlanClean returns the keys under baseKey that no file of localDir would be
// uploaded to, in listing order. Nothing is deleted.
func (b *Bucket) PlanClean(ctx context.Context, localDir, baseKey string) ([]string, error) {
	info, err := b.fs.Stat(localDir)
	if err != nil || !info.IsDir() {
		return nil, errs.FilePathNotFound(localDir)
	}

	remote, err := b.ListAll(ctx, baseKey, ListOptions{Recursive: true})
	if err != nil {
		return nil, err
	}

	targets := make(map[string]bool)
	err = afero.Walk(b.fs, localDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		if b.ignored(filepath.ToSlash(rel)) {
			return nil
		}
		key, err := keys.DestinationKey(localDir, p, baseKey, false)
		if err != nil {
			return err
		}
		targets[key] = true
		return nil
	})
	if err != nil {
		if errs.KindOf(err) != errs.KindUnknown {
			return nil, err
		}
		return nil, errs.Wrap(errs.KindIO, "walk "+localDir, err)
	}

	var stale []string
	for _, item := range remote.Objects {
		if !targets[item.Key] {
			stale = append(stale, item.Key)
		}
	}
	b.log.Debug().Int("remote", len(remote.Objects)).Int("local", len(targets)).Int("stale", len(stale)).Msg("clean plan")
	return stale, nil
}

// Delete removes each key in order and stops at the first failure.
func (b *Bucket) Delete(ctx context.Context, objectKeys ...string) error {
	for _, key := range objectKeys {
		b.metrics.Request("delete")
		if err := b.store.Delete(ctx, key); err != nil {
			return err
		}
		b.printf("%-20s %s", "Deleted", b.URL(key))
		b.metrics.Object(metrics.Deleted)
	}
	return nil
}
