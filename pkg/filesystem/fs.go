package filesystem

import (
	"io"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/arthur-debert/changepack/pkg/types"
)

// aferoFS adapts an afero.Fs to types.FS
type aferoFS struct {
	fs afero.Fs
}

// New wraps any afero filesystem
func New(fs afero.Fs) types.FS {
	return &aferoFS{fs: fs}
}

// NewOS returns the OS filesystem
func NewOS() types.FS {
	return New(afero.NewOsFs())
}

// NewMemory creates an empty in-memory filesystem
func NewMemory() types.FS {
	return New(afero.NewMemMapFs())
}

// notDir fails with fs.ErrInvalid when name is a directory. The memory
// filesystem happily opens directories for reading; archives and hashes
// must only ever see regular files.
func (a *aferoFS) notDir(op, name string) error {
	info, err := a.fs.Stat(name)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	return nil
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	if err := a.notDir("read", name); err != nil {
		return nil, err
	}
	return afero.ReadFile(a.fs, name)
}

func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return afero.WriteFile(a.fs, name, data, perm)
}

func (a *aferoFS) Open(name string) (types.File, error) {
	if err := a.notDir("open", name); err != nil {
		return nil, err
	}
	return a.fs.Open(name)
}

func (a *aferoFS) Create(name string) (io.WriteCloser, error) {
	return a.fs.Create(name)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) Remove(name string) error {
	return a.fs.Remove(name)
}

func (a *aferoFS) Rename(oldpath, newpath string) error {
	return a.fs.Rename(oldpath, newpath)
}
