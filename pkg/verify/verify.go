// Package verify checks a backup archive against the files on disk.
//
// Every file entry is hashed (MD5) and compared with the file of the same
// name under the backup directory. Verification stops at the first
// mismatch. A mismatch is a result; a file that cannot be read is an error,
// since a missing file voids the rollback.
package verify

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/changepack/pkg/archive"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/paths"
	"github.com/arthur-debert/changepack/pkg/types"
)

// Mismatch describes the first entry whose content differs from disk
type Mismatch struct {
	Name        string `json:"name" yaml:"name"`
	DiskPath    string `json:"diskPath" yaml:"disk_path"`
	ArchiveHash string `json:"archiveHash" yaml:"archive_hash"`
	DiskHash    string `json:"diskHash" yaml:"disk_hash"`
	// Diff is a unified diff archive -> disk for small text files
	Diff string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Result is the outcome of a verification run
type Result struct {
	Archive  string    `json:"archive" yaml:"archive"`
	Dir      string    `json:"dir" yaml:"dir"`
	OK       bool      `json:"ok" yaml:"ok"`
	Checked  int       `json:"checked" yaml:"checked"`
	Mismatch *Mismatch `json:"mismatch,omitempty" yaml:"mismatch,omitempty"`
}

// Verifier compares archives with directories
type Verifier struct {
	fs           types.FS
	diffMaxBytes int
	logger       zerolog.Logger
}

// New creates a verifier. Mismatching text files smaller than diffMaxBytes
// (archive and disk together) get a diff; 0 disables diffs.
func New(fs types.FS, diffMaxBytes int) *Verifier {
	return &Verifier{
		fs:           fs,
		diffMaxBytes: diffMaxBytes,
		logger:       logging.GetLogger("verify"),
	}
}

// Verify checks every file entry of the archive at archivePath against dir
func (v *Verifier) Verify(ctx context.Context, archivePath, dir string) (*Result, error) {
	done := logging.LogOperationStart(v.logger, "verify")
	defer done()

	r, err := archive.Open(v.fs, archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	result := &Result{Archive: archivePath, Dir: dir, OK: true}
	errStop := errors.New(errors.ErrInternal, "stop")

	err = r.Each(func(entry archive.EntryInfo, content io.Reader) error {
		if entry.Dir {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, errors.ErrCanceled, "verification canceled")
		}

		diskPath := paths.LocalName(dir, entry.Name)
		v.logger.Info().Str("entry", entry.Name).Str("path", diskPath).Msg("Checking")

		mismatch, checkErr := v.check(entry, content, diskPath)
		if checkErr != nil {
			return checkErr
		}
		result.Checked++
		if mismatch != nil {
			result.OK = false
			result.Mismatch = mismatch
			return errStop
		}
		return nil
	})
	if err != nil && err != error(errStop) {
		return nil, err
	}

	if result.OK {
		v.logger.Info().Int("checked", result.Checked).Msg("Backup matches disk")
	} else {
		v.logger.Warn().
			Str("entry", result.Mismatch.Name).
			Str("archiveHash", result.Mismatch.ArchiveHash).
			Str("diskHash", result.Mismatch.DiskHash).
			Msg("Backup differs from disk")
	}
	return result, nil
}

// Matches reports whether the archive matches dir
func (v *Verifier) Matches(ctx context.Context, archivePath, dir string) (bool, error) {
	result, err := v.Verify(ctx, archivePath, dir)
	if err != nil {
		return false, err
	}
	return result.OK, nil
}

func (v *Verifier) check(entry archive.EntryInfo, content io.Reader, diskPath string) (*Mismatch, error) {
	limit := 0
	if v.diffMaxBytes > 0 && entry.Size <= uint64(v.diffMaxBytes) {
		limit = v.diffMaxBytes
	}

	archived, archiveHash, err := digest(content, limit)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrVerifyFailed, "failed to read archived %s", entry.Name).
			WithDetail("entry", entry.Name)
	}

	f, err := v.fs.Open(diskPath)
	if err != nil {
		msg := "failed to open %s"
		if os.IsNotExist(err) {
			msg = "%s is missing on disk"
		}
		return nil, errors.Wrapf(err, errors.ErrVerifyFailed, msg, diskPath).
			WithDetails(map[string]interface{}{"entry": entry.Name, "path": diskPath})
	}
	defer func() { _ = f.Close() }()

	// the disk side only gets what the archive side left of the limit
	diskLimit := 0
	if archived != nil {
		diskLimit = limit - len(archived)
	}
	onDisk, diskHash, err := digest(f, diskLimit)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrVerifyFailed, "failed to read %s", diskPath).
			WithDetail("path", diskPath)
	}

	if bytes.Equal(archiveHash, diskHash) {
		return nil, nil
	}

	m := &Mismatch{
		Name:        entry.Name,
		DiskPath:    diskPath,
		ArchiveHash: hex.EncodeToString(archiveHash),
		DiskHash:    hex.EncodeToString(diskHash),
	}
	if archived != nil && onDisk != nil {
		m.Diff = Diff(entry.Name, diskPath, archived, onDisk)
	}
	return m, nil
}

// digest hashes r and keeps the bytes read as long as they fit in limit.
// The kept bytes are nil when limit is not positive or r exceeds it.
func digest(r io.Reader, limit int) ([]byte, []byte, error) {
	var h hash.Hash = md5.New()
	if limit <= 0 {
		if _, err := io.Copy(h, r); err != nil {
			return nil, nil, err
		}
		return nil, h.Sum(nil), nil
	}
	kept := &boundedBuffer{limit: limit}
	if _, err := io.Copy(io.MultiWriter(h, kept), r); err != nil {
		return nil, nil, err
	}
	return kept.Bytes(), h.Sum(nil), nil
}

// boundedBuffer buffers writes up to limit bytes and drops everything once
// the limit is crossed
type boundedBuffer struct {
	buf   bytes.Buffer
	limit int
	over  bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if b.over {
		return len(p), nil
	}
	if b.buf.Len()+len(p) > b.limit {
		b.over = true
		b.buf = bytes.Buffer{}
		return len(p), nil
	}
	return b.buf.Write(p)
}

// Bytes returns the buffered content, nil once the limit was crossed
func (b *boundedBuffer) Bytes() []byte {
	if b.over {
		return nil
	}
	if b.buf.Len() == 0 {
		return []byte{}
	}
	return b.buf.Bytes()
}
