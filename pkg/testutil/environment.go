package testutil

import (
	"archive/zip"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/arthur-debert/changepack/pkg/filesystem"
	"github.com/arthur-debert/changepack/pkg/types"
	"github.com/arthur-debert/changepack/pkg/workspace"
)

// ServerRoot is the server folder mapped onto every test environment's root
const ServerRoot = "$/Shop/Main"

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory, no real filesystem
	EnvIsolated                  // Real filesystem in temp directory
)

// TestEnvironment is a deployment root mapped to ServerRoot, a backup
// directory holding the live site and an output directory for artifacts
type TestEnvironment struct {
	Root      string
	BackupDir string
	OutputDir string

	FS        types.FS
	Workspace *workspace.Workspace
	Backend   *FakeBackend

	Type EnvType

	t *testing.T
}

// NewTestEnvironment creates a new test environment
func NewTestEnvironment(t *testing.T, envType EnvType) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{t: t, Type: envType}

	base := filepath.Join(string(filepath.Separator), "work")
	switch envType {
	case EnvMemoryOnly:
		env.FS = filesystem.NewMemory()
	case EnvIsolated:
		base = t.TempDir()
		env.FS = filesystem.NewOS()
	}
	env.Root = filepath.Join(base, "site")
	env.BackupDir = filepath.Join(base, "live")
	env.OutputDir = filepath.Join(base, "out")

	for _, dir := range []string{env.Root, env.BackupDir, env.OutputDir} {
		if err := env.FS.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	ws, err := workspace.New(env.Root, workspace.Mapping{Server: ServerRoot, Local: "."})
	if err != nil {
		t.Fatalf("Failed to create workspace: %v", err)
	}
	env.Workspace = ws
	env.Root = ws.Root()
	env.Backend = NewFakeBackend(ws)

	return env
}

// ServerPath returns the server path of a root-relative forward-slash name
func ServerPath(name string) string {
	return ServerRoot + "/" + name
}

// WriteRoot writes a file under the deployment root
func (env *TestEnvironment) WriteRoot(name, content string) string {
	env.t.Helper()
	return env.write(env.Root, name, content)
}

// WriteBackup writes a file under the backup directory
func (env *TestEnvironment) WriteBackup(name, content string) string {
	env.t.Helper()
	return env.write(env.BackupDir, name, content)
}

func (env *TestEnvironment) write(dir, name, content string) string {
	env.t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := env.FS.MkdirAll(filepath.Dir(path), 0755); err != nil {
		env.t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := env.FS.WriteFile(path, []byte(content), 0644); err != nil {
		env.t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// ReadFile returns the content of path, failing the test when unreadable
func (env *TestEnvironment) ReadFile(path string) string {
	env.t.Helper()
	data, err := env.FS.ReadFile(path)
	if err != nil {
		env.t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// Exists reports whether path exists in the environment's filesystem
func (env *TestEnvironment) Exists(path string) bool {
	_, err := env.FS.Stat(path)
	return err == nil
}

// ZipEntries reads the archive at path and returns its entries by name
func (env *TestEnvironment) ZipEntries(path string) map[string]string {
	env.t.Helper()
	return ReadZip(env.t, env.FS, path)
}

// ReadZip reads every entry of the zip archive at path
func ReadZip(t *testing.T, fs types.FS, path string) map[string]string {
	t.Helper()

	f, err := fs.Open(path)
	if err != nil {
		t.Fatalf("Failed to open archive %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Failed to stat archive %s: %v", path, err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		t.Fatalf("Failed to read archive %s: %v", path, err)
	}

	entries := make(map[string]string, len(zr.File))
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", zf.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", zf.Name, err)
		}
		entries[zf.Name] = string(data)
	}
	return entries
}

// SortedKeys returns the keys of m in order
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lines splits text into lines, dropping the trailing empty line
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
