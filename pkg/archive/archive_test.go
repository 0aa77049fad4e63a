package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/filesystem"
	"github.com/arthur-debert/changepack/pkg/types"
)

func content(s string) Opener {
	return func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(s)), nil
	}
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func readAll(t *testing.T, fs types.FS, path string) map[string]string {
	t.Helper()
	r, err := Open(fs, path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	out := map[string]string{}
	require.NoError(t, r.Each(func(e EntryInfo, rd io.Reader) error {
		data, err := io.ReadAll(rd)
		if err != nil {
			return err
		}
		out[e.Name] = string(data)
		return nil
	}))
	return out
}

func TestBuild_WritesEntriesInOrder(t *testing.T) {
	fs := filesystem.NewMemory()
	b := NewBuilder(fs, 8)
	path := filepath.Join("/out", "102_101.zip")

	summary, err := b.Build(context.Background(), path, []Entry{
		{Name: "web.config", Open: content("<configuration/>"), ServerPath: "$/Shop/Main/web.config", Changeset: 102},
		{Name: "bin/App.dll", Open: content("binary")},
	})
	require.NoError(t, err)

	require.Len(t, summary.Entries, 2)
	assert.Equal(t, "web.config", summary.Entries[0].Name)
	assert.Equal(t, 102, summary.Entries[0].Changeset)
	assert.Equal(t, "$/Shop/Main/web.config", summary.Entries[0].ServerPath)
	assert.Equal(t, int64(6), summary.Entries[1].Size)
	// md5("binary")
	assert.Equal(t, "9d7183f16acce70658f686ae7f1a4d20", summary.Entries[1].MD5)
	assert.Positive(t, summary.Bytes)

	r, err := Open(fs, path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "web.config", entries[0].Name)
	assert.Equal(t, "bin/App.dll", entries[1].Name)
	assert.Equal(t, uint64(16), entries[0].Size)

	assert.Equal(t, map[string]string{
		"web.config":  "<configuration/>",
		"bin/App.dll": "binary",
	}, readAll(t, fs, path))
}

func TestBuild_IsDeterministic(t *testing.T) {
	fs := filesystem.NewMemory()
	b := NewBuilder(fs, 8)
	entries := func() []Entry {
		return []Entry{
			{Name: "a.txt", Open: content(strings.Repeat("a", 4096))},
			{Name: "dir/b.txt", Open: content("b")},
		}
	}

	_, err := b.Build(context.Background(), "/out/one.zip", entries())
	require.NoError(t, err)
	_, err = b.Build(context.Background(), "/out/two.zip", entries())
	require.NoError(t, err)

	one, err := fs.ReadFile("/out/one.zip")
	require.NoError(t, err)
	two, err := fs.ReadFile("/out/two.zip")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(one, two))
}

func TestBuild_ClosesSources(t *testing.T) {
	fs := filesystem.NewMemory()
	src := &trackingCloser{Reader: strings.NewReader("x")}

	_, err := NewBuilder(fs, 8).Build(context.Background(), "/out/a.zip", []Entry{
		{Name: "x.txt", Open: func(context.Context) (io.ReadCloser, error) { return src, nil }},
	})
	require.NoError(t, err)
	assert.True(t, src.closed)
}

func TestBuild_FailureRemovesArchive(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"unreadable source", []Entry{
			{Name: "a.txt", Open: content("a")},
			{Name: "b.txt", Open: func(context.Context) (io.ReadCloser, error) { return nil, fmt.Errorf("download failed") }},
		}},
		{"duplicate name", []Entry{
			{Name: "a.txt", Open: content("a")},
			{Name: "A.txt", Open: content("again")},
		}},
		{"escaping name", []Entry{{Name: "../a.txt", Open: content("a")}}},
		{"absolute name", []Entry{{Name: "/a.txt", Open: content("a")}}},
		{"missing opener", []Entry{{Name: "a.txt"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := filesystem.NewMemory()
			summary, err := NewBuilder(fs, 8).Build(context.Background(), "/out/a.zip", tt.entries)
			require.Error(t, err)
			assert.Nil(t, summary)
			assert.True(t, errors.IsErrorCode(err, errors.ErrPackagingFailed), "got %v", err)

			_, statErr := fs.Stat("/out/a.zip")
			assert.Error(t, statErr, "partial archive must be removed")
		})
	}
}

func TestBuild_Canceled(t *testing.T) {
	fs := filesystem.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(fs, 8).Build(ctx, "/out/a.zip", []Entry{{Name: "a.txt", Open: content("a")}})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCanceled))
}

func TestBuild_StoreLevelAndEmptyArchive(t *testing.T) {
	fs := filesystem.NewMemory()

	_, err := NewBuilder(fs, 0).Build(context.Background(), "/out/store.zip", []Entry{{Name: "a.txt", Open: content("plain")}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.txt": "plain"}, readAll(t, fs, "/out/store.zip"))

	summary, err := NewBuilder(fs, 8).Build(context.Background(), "/out/empty.zip", nil)
	require.NoError(t, err)
	assert.Empty(t, summary.Entries)
	assert.Empty(t, readAll(t, fs, "/out/empty.zip"))
}

func TestNewBuilder_InvalidLevel(t *testing.T) {
	assert.Equal(t, DefaultLevel, NewBuilder(filesystem.NewMemory(), 42).Level())
}

func TestOpen_Errors(t *testing.T) {
	fs := filesystem.NewMemory()

	_, err := Open(fs, "/missing.zip")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))

	require.NoError(t, fs.WriteFile("/broken.zip", []byte("not a zip"), 0644))
	_, err = Open(fs, "/broken.zip")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}
