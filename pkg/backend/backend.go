// Package backend builds the version-control backend a run talks to and
// binds it to the workspace mappings.
package backend

import (
	"github.com/arthur-debert/changepack/pkg/backend/mirror"
	"github.com/arthur-debert/changepack/pkg/backend/tfvc"
	"github.com/arthur-debert/changepack/pkg/config"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/types"
	"github.com/arthur-debert/changepack/pkg/workspace"
)

// bound joins a VersionControl with a Workspace into a types.Backend
type bound struct {
	types.VersionControl
	types.Workspace
}

// Bind returns a backend using vc for history and content and ws for path
// mapping
func Bind(vc types.VersionControl, ws types.Workspace) types.Backend {
	return &bound{VersionControl: vc, Workspace: ws}
}

// Open builds the backend configured in cfg for the deployment root
func Open(cfg *config.Config, root string, fs types.FS) (types.Backend, error) {
	ws, err := workspace.FromConfig(cfg.Workspace, root)
	if err != nil {
		return nil, err
	}
	vc, err := OpenVersionControl(cfg.Backend, fs)
	if err != nil {
		return nil, err
	}
	return Bind(vc, ws), nil
}

// OpenVersionControl builds the version-control half of the backend
func OpenVersionControl(cfg config.Backend, fs types.FS) (types.VersionControl, error) {
	switch cfg.Kind {
	case config.BackendTFVC:
		return tfvc.New(tfvc.Options{
			URL:        cfg.URL,
			Project:    cfg.Project,
			Token:      cfg.Token,
			APIVersion: cfg.APIVersion,
			Timeout:    cfg.Timeout.Std(),
			PageSize:   cfg.PageSize,
		})
	case config.BackendMirror:
		return mirror.Open(fs, cfg.MirrorDir)
	default:
		return nil, errors.Newf(errors.ErrConfigValid, "unknown backend kind %q", cfg.Kind)
	}
}
