package transfer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ss3/pkg/errs"
	"example.com/ss3/pkg/filter"
)

func TestUploadSingleFileRename(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "/src/img.jpg", "jpeg-bytes")

	sum, err := f.bucket.UploadPath(context.Background(), "/src/img.jpg", "out/photo.jpg", CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Uploaded)
	assert.Equal(t, int64(10), sum.Bytes)
	assert.Equal(t, []string{"out/photo.jpg"}, f.store.Keys())

	_, ct, _ := f.store.Content("out/photo.jpg")
	assert.Equal(t, "image/jpeg", ct)
	assert.Contains(t, f.out.String(), "--> s3://test-bucket/out/photo.jpg   (content-type: image/jpeg)")
}

func TestUploadSingleFileIntoPrefix(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "/src/notes.txt", "n")

	_, err := f.bucket.UploadPath(context.Background(), "/src/notes.txt", "docs/", CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/notes.txt"}, f.store.Keys())
}

func TestUploadDirectoryEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.writeFile(t, "/data/image.jpg", "img")
	f.writeFile(t, "/data/sub/file.txt", "txt")
	opts := CopyOptions{Recursive: true}

	sum, err := f.bucket.UploadPath(ctx, "/data", "p/", opts)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Uploaded)

	listed, err := f.bucket.ListAll(ctx, "p/", ListOptions{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"p/image.jpg", "p/sub/file.txt"}, itemKeys(listed.Objects))

	puts := f.store.Calls().Put
	sum, err = f.bucket.UploadPath(ctx, "/data", "p/", opts)
	require.NoError(t, err)
	assert.Equal(t, puts, f.store.Calls().Put)
	assert.Equal(t, 2, sum.Skipped)

	opts.Overwrite = OverwriteFail
	_, err = f.bucket.UploadPath(ctx, "/data", "p/", opts)
	require.True(t, errs.IsPolicyConflict(err))
	assert.Contains(t, err.Error(), "s3://test-bucket/p/image.jpg")
	assert.Equal(t, puts, f.store.Calls().Put)
}

func TestUploadDirectoryNonRecursive(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "/data/top.txt", "t")
	f.writeFile(t, "/data/sub/deep.txt", "d")

	_, err := f.bucket.UploadPath(context.Background(), "/data", "p", CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p/top.txt"}, f.store.Keys())
}

func TestUploadEtagIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.writeFile(t, "/data/a.txt", "alpha")
	f.writeFile(t, "/data/sub/b.txt", "beta")
	opts := CopyOptions{Recursive: true, Overwrite: OverwriteEtag}

	_, err := f.bucket.UploadPath(ctx, "/data", "p/", opts)
	require.NoError(t, err)
	require.Equal(t, 2, f.store.Calls().Put)

	_, err = f.bucket.UploadPath(ctx, "/data", "p/", opts)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.Calls().Put)
	assert.Zero(t, f.store.Calls().Head)

	f.writeFile(t, "/data/sub/b.txt", "beta v2")
	_, err = f.bucket.UploadPath(ctx, "/data", "p/", opts)
	require.NoError(t, err)
	assert.Equal(t, 3, f.store.Calls().Put)
	content, _, _ := f.store.Content("p/sub/b.txt")
	assert.Equal(t, "beta v2", content)
}

func TestUploadEtagSingleFileUsesHead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.writeFile(t, "/src/a.txt", "alpha")
	opts := CopyOptions{Overwrite: OverwriteEtag, ShowSkipped: true}

	_, err := f.bucket.UploadPath(ctx, "/src/a.txt", "p/", opts)
	require.NoError(t, err)
	_, err = f.bucket.UploadPath(ctx, "/src/a.txt", "p/", opts)
	require.NoError(t, err)

	calls := f.store.Calls()
	assert.Equal(t, 1, calls.Put)
	assert.Equal(t, 2, calls.Head)
	assert.Zero(t, calls.List)
	assert.Contains(t, f.out.String(), "Skip (Etag) - s3://test-bucket/p/a.txt")
}

func TestUploadSkipsDefaultIgnored(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "/data/a.txt", "a")
	f.writeFile(t, "/data/.DS_Store", "junk")
	f.writeFile(t, "/data/sub/.DS_Store", "junk")

	sum, err := f.bucket.UploadPath(context.Background(), "/data", "p", CopyOptions{Recursive: true, ShowSkipped: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"p/a.txt"}, f.store.Keys())
	assert.Equal(t, 2, sum.Skipped)
	assert.Contains(t, f.out.String(), "Skip (by default)")
}

func TestUploadIncludeExclude(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "/data/a.txt", "a")
	f.writeFile(t, "/data/b.jpg", "b")
	f.writeFile(t, "/data/c.png", "c")

	sum, err := f.bucket.UploadPath(context.Background(), "/data", "p", CopyOptions{
		Includes: filter.MustGlobs("*.txt", "*.jpg"),
		Excludes: filter.MustGlobs("*.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p/a.txt"}, f.store.Keys())
	assert.Equal(t, 1, sum.Excluded)

	out := f.out.String()
	assert.Contains(t, out, "Excludes")
	assert.Contains(t, out, "/data/b.jpg")
	assert.NotContains(t, out, "c.png")
}

func TestUploadMissingSource(t *testing.T) {
	f := newFixture(t)
	_, err := f.bucket.UploadPath(context.Background(), "/nope", "p", CopyOptions{})
	require.True(t, errs.IsPathInvalid(err))
	assert.Equal(t, "File path '/nope' not found.", err.Error())
}

func TestUploadContentTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.writeFile(t, "/site/index", "<html></html>")
	f.writeFile(t, "/site/notes", "hello world")
	f.writeFile(t, "/site/blob.ss3unknownext", "\x00\x01\x02\x03")

	_, err := f.bucket.UploadPath(ctx, "/site/index", "www/", CopyOptions{NoExtContentType: ContentTypeAlias("html")})
	require.NoError(t, err)
	_, err = f.bucket.UploadPath(ctx, "/site/notes", "www/", CopyOptions{})
	require.NoError(t, err)
	_, err = f.bucket.UploadPath(ctx, "/site/blob.ss3unknownext", "www/", CopyOptions{})
	require.NoError(t, err)

	_, ct, _ := f.store.Content("www/index")
	assert.Equal(t, ContentTypeHTML, ct)
	_, ct, _ = f.store.Content("www/notes")
	assert.Equal(t, "text/plain; charset=utf-8", ct)
	_, ct, _ = f.store.Content("www/blob.ss3unknownext")
	assert.Equal(t, "application/octet-stream", ct)
}

func TestUploadConcurrent(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		f.writeFile(t, fmt.Sprintf("/data/f%02d.txt", i), fmt.Sprintf("file %d", i))
	}
	sum, err := f.bucket.UploadPath(context.Background(), "/data", "p/", CopyOptions{Concurrency: 4})
	require.NoError(t, err)
	assert.Equal(t, 12, sum.Uploaded)
	assert.Len(t, f.store.Keys(), 12)
}

func TestUploadStopsOnProviderError(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "/data/a.txt", "a")
	f.writeFile(t, "/data/b.txt", "b")
	f.store.PutHook = func(key string) error {
		if key == "p/b.txt" {
			return errs.Provider("AccessDenied", "Access Denied", nil)
		}
		return nil
	}

	sum, err := f.bucket.UploadPath(context.Background(), "/data", "p", CopyOptions{})
	require.True(t, errs.IsProvider(err))
	assert.Equal(t, 1, sum.Uploaded)
	assert.Equal(t, []string{"p/a.txt"}, f.store.Keys())
}

func TestContentTypeAlias(t *testing.T) {
	assert.Equal(t, ContentTypeHTML, ContentTypeAlias("HTML"))
	assert.Equal(t, ContentTypeText, ContentTypeAlias("text"))
	assert.Equal(t, "application/json", ContentTypeAlias("application/json"))
}

func TestUploadKeepsDotDotNamedDirectories(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "/data/x.txt", "top")
	f.writeFile(t, "/data/..cfg/x.txt", "nested")

	sum, err := f.bucket.UploadPath(context.Background(), "/data", "p/", CopyOptions{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Uploaded)
	assert.Equal(t, []string{"p/..cfg/x.txt", "p/x.txt"}, f.store.Keys())
	got, _, ok := f.store.Content("p/..cfg/x.txt")
	require.True(t, ok)
	assert.Equal(t, "nested", got)
}
