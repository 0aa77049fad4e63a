package types

import (
	"context"
	"io"
	"io/fs"
)

// FS is the filesystem interface required for changepack operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Streaming operations, used by the archive builder and verifier so that
	// large artifacts are never held in memory
	Open(name string) (File, error)
	Create(name string) (io.WriteCloser, error)

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error

	// Other operations
	Remove(name string) error
	Rename(oldpath, newpath string) error
}

// File is a readable file handle. *os.File and afero.File both satisfy it.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
	Stat() (fs.FileInfo, error)
}

// VersionControl is the changeset-facing half of a version-control backend
type VersionControl interface {
	// GetChangeset fetches a single changeset with its changes
	GetChangeset(ctx context.Context, id int) (*Changeset, error)

	// QueryHistory returns the changesets touching serverPath (recursively)
	// between fromID and toID inclusive, changes included, in the backend's
	// natural order (newest first)
	QueryHistory(ctx context.Context, serverPath string, fromID, toID int) ([]*Changeset, error)

	// Download opens the content of item at the version it was changed in
	Download(ctx context.Context, item Item) (io.ReadCloser, error)
}

// Workspace maps between server paths and the local working folders
type Workspace interface {
	// ServerPathFor returns the server path mapped to a local path
	ServerPathFor(localPath string) (string, error)

	// LocalPathFor returns the local path of a server path, false when the
	// server path is not mapped in the workspace
	LocalPathFor(serverPath string) (string, bool)
}

// Backend is a version-control backend bound to a workspace
type Backend interface {
	VersionControl
	Workspace
}
