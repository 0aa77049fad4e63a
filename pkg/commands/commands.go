// Package commands holds the setup shared by the changepack commands. Each
// command lives in its own subpackage with an Options struct in and a
// Result out, so the CLI layer only parses flags and renders.
package commands

import (
	"path/filepath"

	"github.com/arthur-debert/changepack/pkg/backend"
	"github.com/arthur-debert/changepack/pkg/config"
	"github.com/arthur-debert/changepack/pkg/filesystem"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/paths"
	"github.com/arthur-debert/changepack/pkg/reconcile"
	"github.com/arthur-debert/changepack/pkg/types"
)

// Session is the loaded state every packaging command runs against
type Session struct {
	Config *config.Config
	Root   string
	FS     types.FS
	// Backend is nil for offline sessions
	Backend types.Backend
}

// SessionOptions controls how a session is opened. Config, FS and Backend
// are injected as-is when set.
type SessionOptions struct {
	Root       string
	ConfigFile string
	Overrides  map[string]interface{}
	// Offline skips opening the backend, for commands that only read
	// local artifacts
	Offline bool

	Config  *config.Config
	FS      types.FS
	Backend types.Backend
}

// OpenSession resolves the deployment root, loads and validates the
// configuration and opens the backend
func OpenSession(opts SessionOptions) (*Session, error) {
	logger := logging.GetLogger("commands")

	root, err := paths.ResolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	cfg := opts.Config
	if cfg == nil {
		cfg, err = config.Load(config.LoadOptions{
			Root:       root,
			ConfigFile: opts.ConfigFile,
			Overrides:  opts.Overrides,
		})
		if err != nil {
			return nil, err
		}
	}
	if opts.Root == "" && cfg.Workspace.Root != "" {
		if root, err = paths.Normalize(cfg.Workspace.Root); err != nil {
			return nil, err
		}
	}

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	b := opts.Backend
	if b == nil && !opts.Offline {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if b, err = backend.Open(cfg, root, fs); err != nil {
			return nil, err
		}
	}

	logger.Debug().
		Str("root", root).
		Str("backend", cfg.Backend.Kind).
		Msg("Session opened")
	return &Session{Config: cfg, Root: root, FS: fs, Backend: b}, nil
}

// ServerRoot returns the server folder mapped to the deployment root
func (s *Session) ServerRoot() (string, error) {
	return s.Backend.ServerPathFor(s.Root)
}

// Mapper returns the path mapper for the session's root
func (s *Session) Mapper() *paths.Mapper {
	return paths.NewMapper(s.Backend, s.FS, s.Root, s.Config.Packaging.PointerSuffix)
}

// Exclusions combines the configured exclusions with extra substrings
func (s *Session) Exclusions(extra []string) (*reconcile.Exclusions, error) {
	substrings := append(append([]string(nil), s.Config.Packaging.Exclude...), extra...)
	return reconcile.NewExclusions(substrings, s.Config.Packaging.ExcludeGlobs)
}

// OutputDir returns the absolute directory artifacts are written to. An
// explicit dir wins over packaging.output_dir; relative dirs are resolved
// against the working directory.
func (s *Session) OutputDir(dir string) (string, error) {
	if dir == "" {
		dir = s.Config.Packaging.OutputDir
	}
	if dir == "" {
		dir = "."
	}
	return paths.Normalize(dir)
}

// ArtifactPath returns <dir>/<name><suffix>
func ArtifactPath(dir, name, suffix string) string {
	return filepath.Join(dir, name+suffix)
}
