package paths

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/types"
)

// maxPointerSize bounds how much of a pointer file is read
const maxPointerSize = 32 * 1024

// Location is where a server item lands under the deployment root
type Location struct {
	ServerPath string
	// LocalPath is the mapped local path of the tracked item itself
	LocalPath string
	// Name is the archive entry name: root-relative, forward slashes,
	// pointer suffix stripped
	Name string
	// Pointer is set when the tracked item is a pointer file
	Pointer bool
}

// Mapper maps server items to local paths and archive entry names
type Mapper struct {
	ws            types.Workspace
	fs            types.FS
	root          string
	pointerSuffix string
}

// NewMapper creates a mapper for the deployment root. An empty pointerSuffix
// disables pointer handling.
func NewMapper(ws types.Workspace, fs types.FS, root, pointerSuffix string) *Mapper {
	return &Mapper{
		ws:            ws,
		fs:            fs,
		root:          filepath.Clean(root),
		pointerSuffix: pointerSuffix,
	}
}

// Root returns the deployment root
func (m *Mapper) Root() string {
	return m.root
}

// ToLocalPath returns the local path of serverPath, false when the
// workspace does not map it
func (m *Mapper) ToLocalPath(serverPath string) (string, bool) {
	return m.ws.LocalPathFor(serverPath)
}

// IsPointer reports whether name carries the pointer suffix
func (m *Mapper) IsPointer(name string) bool {
	if m.pointerSuffix == "" || len(name) <= len(m.pointerSuffix) {
		return false
	}
	return strings.EqualFold(name[len(name)-len(m.pointerSuffix):], m.pointerSuffix)
}

// EntryName returns the archive entry name for a local path, false when the
// path is not under the root
func (m *Mapper) EntryName(localPath string) (string, bool) {
	rel, ok := RelativeName(localPath, m.root)
	if !ok {
		return "", false
	}
	if m.IsPointer(rel) {
		rel = rel[:len(rel)-len(m.pointerSuffix)]
	}
	return filepath.ToSlash(rel), true
}

// Locate maps serverPath to its location under the root. It fails with
// ErrUnmappableItem when the workspace has no mapping for the path or the
// mapping lies outside the root.
func (m *Mapper) Locate(serverPath string) (Location, error) {
	local, ok := m.ToLocalPath(serverPath)
	if !ok {
		return Location{}, errors.Newf(errors.ErrUnmappableItem, "%s has no local mapping", serverPath).
			WithDetail("serverPath", serverPath)
	}
	name, ok := m.EntryName(local)
	if !ok {
		return Location{}, errors.Newf(errors.ErrUnmappableItem, "%s maps outside the root", serverPath).
			WithDetails(map[string]interface{}{"serverPath": serverPath, "localPath": local})
	}
	return Location{
		ServerPath: serverPath,
		LocalPath:  local,
		Name:       name,
		Pointer:    m.IsPointer(local),
	}, nil
}

// PointerTarget resolves the path written in a pointer file. Backslashes are
// accepted as separators; relative targets are resolved against the root.
func (m *Mapper) PointerTarget(pointer string) string {
	target := filepath.FromSlash(strings.ReplaceAll(pointer, `\`, "/"))
	if !filepath.IsAbs(target) {
		target = filepath.Join(m.root, target)
	}
	return filepath.Clean(target)
}

// OpenPointer reads pointer content from r and opens the file it refers to.
// r is always closed.
func (m *Mapper) OpenPointer(r io.ReadCloser) (io.ReadCloser, error) {
	pointer, err := ReadPointer(r)
	closeErr := r.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, errors.Wrap(closeErr, errors.ErrFileAccess, "failed to close pointer file")
	}

	target := m.PointerTarget(pointer)
	f, err := m.fs.Open(target)
	if err != nil {
		code := errors.ErrFileAccess
		if os.IsNotExist(err) {
			code = errors.ErrFileNotFound
		}
		return nil, errors.Wrapf(err, code, "failed to open pointer target %s", target).
			WithDetail("target", target)
	}
	return f, nil
}

// ReadPointer reads the text of a pointer file, trimming trailing line breaks
func ReadPointer(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPointerSize))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrFileAccess, "failed to read pointer file")
	}
	pointer := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(pointer) == "" {
		return "", errors.New(errors.ErrInvalidInput, "pointer file is empty")
	}
	return pointer, nil
}
