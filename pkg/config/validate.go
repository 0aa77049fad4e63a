package config

import (
	"compress/flate"
	"strings"
	"text/template"

	"github.com/arthur-debert/changepack/pkg/errors"
)

// Validate checks the configuration for values the packager cannot work with
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendTFVC:
		if c.Backend.URL == "" {
			return errors.New(errors.ErrConfigValid, "backend.url is required for the tfvc backend")
		}
	case BackendMirror:
		if c.Backend.MirrorDir == "" {
			return errors.New(errors.ErrConfigValid, "backend.mirror_dir is required for the mirror backend")
		}
	default:
		return errors.Newf(errors.ErrConfigValid, "unknown backend kind %q", c.Backend.Kind)
	}

	if c.Backend.Timeout.Std() < 0 {
		return errors.New(errors.ErrConfigValid, "backend.timeout must not be negative")
	}

	level := c.Packaging.CompressionLevel
	if level < flate.NoCompression || level > flate.BestCompression {
		return errors.Newf(errors.ErrConfigValid, "packaging.compression_level must be between 0 and 9, got %d", level)
	}

	if s := c.Packaging.PointerSuffix; s != "" && !strings.HasPrefix(s, ".") {
		return errors.Newf(errors.ErrConfigValid, "packaging.pointer_suffix must start with a dot, got %q", s)
	}

	if c.Packaging.DeploySuffix == "" || c.Packaging.BackupSuffix == "" ||
		c.Packaging.DeploySuffix == c.Packaging.BackupSuffix {
		return errors.New(errors.ErrConfigValid, "packaging.deploy_suffix and packaging.backup_suffix must be set and distinct")
	}

	if _, err := template.New("delete").Parse(c.Packaging.DeleteCommand); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "packaging.delete_command is not a valid template")
	}

	if len(c.Workspace.Mappings) == 0 && c.Workspace.ServerRoot == "" {
		return errors.New(errors.ErrConfigValid, "workspace.server_root or at least one workspace.mappings entry is required")
	}
	if c.Workspace.ServerRoot != "" && !strings.HasPrefix(c.Workspace.ServerRoot, "$/") {
		return errors.Newf(errors.ErrConfigValid, "workspace.server_root must be a server path starting with $/, got %q", c.Workspace.ServerRoot)
	}
	for i, m := range c.Workspace.Mappings {
		if !strings.HasPrefix(m.Server, "$/") {
			return errors.Newf(errors.ErrConfigValid, "workspace.mappings[%d].server must start with $/, got %q", i, m.Server)
		}
		if m.Local == "" && !m.Cloak {
			return errors.Newf(errors.ErrConfigValid, "workspace.mappings[%d].local is required", i)
		}
	}

	return nil
}
