package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/changepack/pkg/errors"
)

// Environment variable names
const (
	// EnvRoot sets the deployment root when no --root flag is given
	EnvRoot = "CHANGEPACK_ROOT"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// ResolveRoot returns the absolute deployment root. An explicit root wins,
// then CHANGEPACK_ROOT, then the current working directory.
func ResolveRoot(root string) (string, error) {
	if root == "" {
		root = os.Getenv(EnvRoot)
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to get current directory")
		}
		root = cwd
	}
	return Normalize(root)
}

// Normalize expands ~, makes the path absolute and cleans it
func Normalize(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrInvalidInput, "empty path")
	}
	if strings.Contains(path, "\x00") {
		return "", errors.New(errors.ErrInvalidInput, "path contains null bytes")
	}

	abs, err := filepath.Abs(ExpandHome(path))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path")
	}
	return filepath.Clean(abs), nil
}

// ExpandHome expands a leading ~ to the home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~user is left alone
	return path
}

// RelativeName returns localPath relative to root. It reports false unless
// localPath is root itself or lies below it. The root prefix and the leading
// separator are stripped; the result keeps OS separators.
func RelativeName(localPath, root string) (string, bool) {
	if localPath == "" || root == "" {
		return "", false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(localPath))
	if err != nil {
		return "", false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// LocalName joins a forward-slash entry name onto dir
func LocalName(dir, entryName string) string {
	return filepath.Join(dir, filepath.FromSlash(entryName))
}
