package transfer

import (
	"bytes"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"example.com/ss3/pkg/objectstore/storetest"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	bucket *Bucket
	store  *storetest.MemStore
	fs     afero.Fs
	out    *syncBuffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storetest.New("test-bucket")
	fs := afero.NewMemMapFs()
	out := &syncBuffer{}
	return &fixture{
		bucket: New(store, WithFs(fs), WithOutput(out)),
		store:  store,
		fs:     fs,
		out:    out,
	}
}

func (f *fixture) writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, path, []byte(content), 0o644))
}

func (f *fixture) readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(f.fs, path)
	require.NoError(t, err)
	return string(data)
}

func itemKeys(items []StoreItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Key)
	}
	return out
}
