// Package archive writes and reads the zip archives changepack produces.
//
// Archives are deterministic: entries are written in the order given, with
// a fixed deflate level, a fixed modification time and fixed permissions,
// so identical inputs always yield identical bytes. A build either
// completes or leaves nothing behind.
package archive

import (
	"archive/zip"
	"compress/flate"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/types"
)

// DefaultLevel is the deflate level used when none is configured
const DefaultLevel = 8

// entryTime is stamped on every entry; zip cannot represent earlier dates
var entryTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Opener opens the content of an entry. It is called once, right before the
// entry is written, and the stream is closed right after.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Entry is one file to write into an archive
type Entry struct {
	// Name is the root-relative entry name with forward slashes
	Name string
	Open Opener

	// ServerPath and Changeset describe where the content came from
	ServerPath string
	Changeset  int
}

// EntrySummary describes a written entry
type EntrySummary struct {
	Name       string `json:"name" yaml:"name"`
	ServerPath string `json:"serverPath,omitempty" yaml:"server_path,omitempty"`
	Changeset  int    `json:"changeset,omitempty" yaml:"changeset,omitempty"`
	Size       int64  `json:"size" yaml:"size"`
	MD5        string `json:"md5" yaml:"md5"`
}

// Summary describes a written archive
type Summary struct {
	Path    string         `json:"path" yaml:"path"`
	Entries []EntrySummary `json:"entries" yaml:"entries"`
	Bytes   int64          `json:"bytes" yaml:"bytes"`
}

// Builder writes archives through a types.FS
type Builder struct {
	fs    types.FS
	level int
}

// NewBuilder creates a builder writing with the given deflate level (0-9)
func NewBuilder(fs types.FS, level int) *Builder {
	if level < flate.NoCompression || level > flate.BestCompression {
		level = DefaultLevel
	}
	return &Builder{fs: fs, level: level}
}

// Level returns the deflate level in use
func (b *Builder) Level() int {
	return b.level
}

// Build writes entries to a new archive at path. Any failure removes the
// partial archive and returns ErrPackagingFailed (or ErrCanceled).
func (b *Builder) Build(ctx context.Context, path string, entries []Entry) (summary *Summary, err error) {
	logger := logging.GetLogger("archive").With().Str("archive", path).Logger()
	logger.Info().Int("entries", len(entries)).Int("level", b.level).Msg("Creating archive")

	if err := b.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrPackagingFailed, "failed to create directory for %s", path).
			WithDetail("archive", path)
	}

	out, err := b.fs.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPackagingFailed, "failed to create archive %s", path).
			WithDetail("archive", path)
	}

	counter := &countingWriter{w: out}
	zw := zip.NewWriter(counter)
	level := b.level
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = zw.Close()
			_ = out.Close()
		}
		if rmErr := b.fs.Remove(path); rmErr != nil {
			logger.Warn().Err(rmErr).Msg("Failed to remove partial archive")
		}
		summary = nil
	}()

	summary = &Summary{Path: path}
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(ctxErr, errors.ErrCanceled, "archive build canceled")
		}

		name, nameErr := cleanName(entry.Name)
		if nameErr != nil {
			return nil, nameErr
		}
		if seen[strings.ToLower(name)] {
			return nil, errors.Newf(errors.ErrPackagingFailed, "duplicate entry %s", name).
				WithDetail("entry", name)
		}
		seen[strings.ToLower(name)] = true

		es, writeErr := b.writeEntry(ctx, zw, name, entry)
		if writeErr != nil {
			return nil, writeErr
		}
		es.ServerPath = entry.ServerPath
		es.Changeset = entry.Changeset
		summary.Entries = append(summary.Entries, es)
		logger.Debug().Str("entry", name).Int64("size", es.Size).Msg("Packed entry")
	}

	closed = true
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return nil, errors.Wrapf(err, errors.ErrPackagingFailed, "failed to finish archive %s", path)
	}
	if err := out.Close(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrPackagingFailed, "failed to close archive %s", path)
	}

	summary.Bytes = counter.n
	logger.Info().Int("entries", len(summary.Entries)).Int64("bytes", summary.Bytes).Msg("Archive written")
	return summary, nil
}

func (b *Builder) writeEntry(ctx context.Context, zw *zip.Writer, name string, entry Entry) (EntrySummary, error) {
	if entry.Open == nil {
		return EntrySummary{}, errors.Newf(errors.ErrPackagingFailed, "entry %s has no content", name)
	}

	src, err := entry.Open(ctx)
	if err != nil {
		return EntrySummary{}, errors.Wrapf(err, errors.ErrPackagingFailed, "failed to open content of %s", name).
			WithDetails(map[string]interface{}{"entry": name, "serverPath": entry.ServerPath})
	}
	defer func() { _ = src.Close() }()

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entryTime,
	}
	if b.level == flate.NoCompression {
		header.Method = zip.Store
	}
	header.SetMode(0644)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return EntrySummary{}, errors.Wrapf(err, errors.ErrPackagingFailed, "failed to add entry %s", name)
	}

	hash := md5.New()
	n, err := io.Copy(io.MultiWriter(w, hash), src)
	if err != nil {
		return EntrySummary{}, errors.Wrapf(err, errors.ErrPackagingFailed, "failed to write entry %s", name).
			WithDetails(map[string]interface{}{"entry": name, "serverPath": entry.ServerPath})
	}

	return EntrySummary{Name: name, Size: n, MD5: hex.EncodeToString(hash.Sum(nil))}, nil
}

// cleanName checks an entry name is a relative forward-slash path
func cleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return "", errors.Newf(errors.ErrPackagingFailed, "invalid entry name %q", name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return "", errors.Newf(errors.ErrPackagingFailed, "invalid entry name %q", name)
		}
	}
	return name, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
