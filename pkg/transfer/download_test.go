package transfer

import (
	"context"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ss3/pkg/errs"
	"example.com/ss3/pkg/filter"
)

func seedTree(f *fixture) {
	f.store.Seed("p/a.txt", "a")
	f.store.Seed("p/sub/b.txt", "b")
	f.store.Seed("p/sub/deep/c.txt", "c")
	f.store.Seed("other/x.txt", "x")
}

func TestDownloadTreeRecursive(t *testing.T) {
	f := newFixture(t)
	seedTree(f)

	sum, err := f.bucket.DownloadPath(context.Background(), "p/", "/out", CopyOptions{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Downloaded)
	assert.Equal(t, "a", f.readFile(t, "/out/a.txt"))
	assert.Equal(t, "b", f.readFile(t, "/out/sub/b.txt"))
	assert.Equal(t, "c", f.readFile(t, "/out/sub/deep/c.txt"))

	// one listing per directory level
	assert.Equal(t, 3, f.store.Calls().List)
}

func TestDownloadTreeOneLevel(t *testing.T) {
	f := newFixture(t)
	seedTree(f)

	_, err := f.bucket.DownloadPath(context.Background(), "p/", "/out", CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a", f.readFile(t, "/out/a.txt"))
	exists, _ := afero.Exists(f.fs, "/out/sub")
	assert.False(t, exists)
}

func TestDownloadTreeBaseKeyWithoutSlash(t *testing.T) {
	f := newFixture(t)
	seedTree(f)

	_, err := f.bucket.DownloadPath(context.Background(), "p", "/out", CopyOptions{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, "c", f.readFile(t, "/out/sub/deep/c.txt"))
	exists, _ := afero.Exists(f.fs, "/out/x.txt")
	assert.False(t, exists)
}

func TestDownloadTreePaginatesEachPrefix(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.store.Seed(fmt.Sprintf("p/%d.txt", i), "x")
	}
	f.store.PageSize = 2

	sum, err := f.bucket.DownloadPath(context.Background(), "p/", "/out", CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Downloaded)
	assert.Equal(t, 3, f.store.Calls().List)
}

func TestDownloadFileKey(t *testing.T) {
	f := newFixture(t)
	seedTree(f)
	ctx := context.Background()

	_, err := f.bucket.DownloadPath(ctx, "p/sub/b.txt", "/dl", CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "b", f.readFile(t, "/dl/b.txt"))

	_, err = f.bucket.DownloadPath(ctx, "p/sub/b.txt", "/dl/nested/renamed.txt", CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "b", f.readFile(t, "/dl/nested/renamed.txt"))
}

func TestDownloadDirToFileUnsupported(t *testing.T) {
	f := newFixture(t)
	seedTree(f)
	_, err := f.bucket.DownloadPath(context.Background(), "p/", "/out/file.txt", CopyOptions{})
	assert.True(t, errs.IsUnsupported(err))
	assert.Zero(t, f.store.Calls().List)
}

func TestDownloadEtagUnsupported(t *testing.T) {
	f := newFixture(t)
	seedTree(f)
	_, err := f.bucket.DownloadPath(context.Background(), "p/a.txt", "/out", CopyOptions{Overwrite: OverwriteEtag})
	assert.True(t, errs.IsUnsupported(err))
	assert.Zero(t, f.store.Calls().Get)
}

func TestDownloadOverwriteModes(t *testing.T) {
	f := newFixture(t)
	seedTree(f)
	ctx := context.Background()
	f.writeFile(t, "/out/a.txt", "old")

	sum, err := f.bucket.DownloadPath(ctx, "p/a.txt", "/out", CopyOptions{ShowSkipped: true})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, "old", f.readFile(t, "/out/a.txt"))
	assert.Contains(t, f.out.String(), "Skip (exists)")

	_, err = f.bucket.DownloadPath(ctx, "p/a.txt", "/out", CopyOptions{Overwrite: OverwriteFail})
	assert.True(t, errs.IsPolicyConflict(err))

	_, err = f.bucket.DownloadPath(ctx, "p/a.txt", "/out", CopyOptions{Overwrite: OverwriteWrite})
	require.NoError(t, err)
	assert.Equal(t, "a", f.readFile(t, "/out/a.txt"))
}

func TestDownloadFilters(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("p/a.txt", "a")
	f.store.Seed("p/b.log", "b")
	f.store.Seed("p/c.png", "c")

	sum, err := f.bucket.DownloadPath(context.Background(), "p/", "/out", CopyOptions{
		Includes: filter.MustGlobs("*.txt", "*.log"),
		Excludes: filter.MustGlobs("*.log"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Downloaded)
	assert.Equal(t, 1, sum.Excluded)
	assert.Contains(t, f.out.String(), "Excludes             s3://test-bucket/p/b.log")
	assert.NotContains(t, f.out.String(), "c.png")
}

func TestDownloadConcurrentSharedParents(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		f.store.Seed(fmt.Sprintf("p/shared/%02d.txt", i), fmt.Sprintf("%d", i))
	}
	sum, err := f.bucket.DownloadPath(context.Background(), "p/", "/out", CopyOptions{Recursive: true, Concurrency: 4})
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Downloaded)
	assert.Equal(t, "7", f.readFile(t, "/out/shared/07.txt"))
}

func TestDownloadMissingKeyIsError(t *testing.T) {
	f := newFixture(t)
	_, err := f.bucket.DownloadPath(context.Background(), "p/missing.txt", "/out", CopyOptions{})
	assert.Error(t, err)
}

func TestDownloadSkippedKeyCreatesNoDirectory(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("a/x.txt", "x")
	f.store.Seed("p/sub/b.log", "b")
	ctx := context.Background()

	_, err := f.bucket.DownloadPath(ctx, "a/x.txt", "/out/deep/", CopyOptions{Excludes: filter.MustGlobs("*.txt")})
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Excludes")
	exists, err := afero.DirExists(f.fs, "/out/deep")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.bucket.DownloadPath(ctx, "p/", "/tree", CopyOptions{Recursive: true, Excludes: filter.MustGlobs("*.log")})
	require.NoError(t, err)
	exists, err = afero.DirExists(f.fs, "/tree/sub")
	require.NoError(t, err)
	assert.False(t, exists)
}
