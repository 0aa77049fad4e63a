package archive

import (
	"archive/zip"
	"io"
	"os"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/types"
)

// EntryInfo describes an entry of an opened archive
type EntryInfo struct {
	Name string
	Size uint64
	Dir  bool
}

// Reader reads an archive through a types.FS
type Reader struct {
	path string
	file types.File
	zr   *zip.Reader
}

// Open opens the archive at path for reading
func Open(fs types.FS, path string) (*Reader, error) {
	f, err := fs.Open(path)
	if err != nil {
		code := errors.ErrFileAccess
		if os.IsNotExist(err) {
			code = errors.ErrFileNotFound
		}
		return nil, errors.Wrapf(err, code, "failed to open archive %s", path).WithDetail("archive", path)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat archive %s", path)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "%s is not a valid archive", path).
			WithDetail("archive", path)
	}
	return &Reader{path: path, file: f, zr: zr}, nil
}

// Path returns the archive path
func (r *Reader) Path() string {
	return r.path
}

// Entries lists the archive entries in archive order
func (r *Reader) Entries() []EntryInfo {
	out := make([]EntryInfo, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		out = append(out, info(f))
	}
	return out
}

// Each calls fn for every entry in archive order with a stream of its
// content. Directory entries get an empty stream. Iteration stops at the
// first error fn returns.
func (r *Reader) Each(fn func(entry EntryInfo, content io.Reader) error) error {
	for _, f := range r.zr.File {
		if err := r.each(f, fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) each(f *zip.File, fn func(EntryInfo, io.Reader) error) error {
	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to open entry %s", f.Name).
			WithDetails(map[string]interface{}{"archive": r.path, "entry": f.Name})
	}
	defer func() { _ = rc.Close() }()
	return fn(info(f), rc)
}

// Close releases the archive file
func (r *Reader) Close() error {
	return r.file.Close()
}

func info(f *zip.File) EntryInfo {
	return EntryInfo{
		Name: f.Name,
		Size: f.UncompressedSize64,
		Dir:  f.FileInfo().IsDir(),
	}
}
