// Package plan resolves a changeset spec and reconciles it into the list of
// entries each archive would get, without writing anything.
package plan

import (
	"context"

	"github.com/arthur-debert/changepack/pkg/archive"
	"github.com/arthur-debert/changepack/pkg/changeset"
	"github.com/arthur-debert/changepack/pkg/commands"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/paths"
	"github.com/arthur-debert/changepack/pkg/reconcile"
	"github.com/arthur-debert/changepack/pkg/types"
)

// Options holds the inputs of a plan
type Options struct {
	Session *commands.Session
	// Spec is the changeset spec as typed: "100", "100,101" or "100~110"
	Spec string
	// BackupDir holds the live site; empty plans no backup archive
	BackupDir string
	// Exclude adds substrings to packaging.exclude
	Exclude []string
}

// Entry is one planned archive entry
type Entry struct {
	Name       string `json:"name"`
	ServerPath string `json:"serverPath"`
	Changeset  int    `json:"changeset"`
}

// Result is a reconciled changeset window
type Result struct {
	Spec       string          `json:"spec"`
	Name       string          `json:"name"`
	Changesets []int           `json:"changesets"`
	Deploy     []Entry         `json:"deploy"`
	Backup     []Entry         `json:"backup,omitempty"`
	Plan       *reconcile.Plan `json:"plan"`
	parsed     changeset.Spec
}

// ParsedSpec returns the parsed changeset spec
func (r *Result) ParsedSpec() changeset.Spec {
	return r.parsed
}

// Run resolves the spec against the session's backend and reconciles it
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.plan")

	spec, err := changeset.ParseSpec(opts.Spec)
	if err != nil {
		return nil, err
	}

	s := opts.Session
	serverRoot, err := s.ServerRoot()
	if err != nil {
		return nil, errors.Stage(err, "resolve")
	}
	changesets, err := changeset.Resolve(ctx, s.Backend, serverRoot, spec)
	if err != nil {
		return nil, errors.Stage(err, "resolve")
	}
	logger.Info().
		Str("spec", spec.String()).
		Ints("changesets", ids(changesets)).
		Msg("Changesets resolved")

	exclusions, err := s.Exclusions(opts.Exclude)
	if err != nil {
		return nil, err
	}

	backupDir := opts.BackupDir
	if backupDir != "" {
		if backupDir, err = paths.Normalize(backupDir); err != nil {
			return nil, err
		}
	}

	r := reconcile.New(s.Backend, s.Mapper(), s.FS, reconcile.Options{
		Exclusions: exclusions,
		BackupDir:  backupDir,
	})
	p, err := r.Reconcile(ctx, changesets)
	if err != nil {
		return nil, errors.Stage(err, "reconcile")
	}

	return &Result{
		Spec:       spec.String(),
		Name:       spec.Name(),
		Changesets: p.Changesets,
		Deploy:     entries(p.Deploy),
		Backup:     entries(p.Backup),
		Plan:       p,
		parsed:     spec,
	}, nil
}

func entries(in []archive.Entry) []Entry {
	out := make([]Entry, len(in))
	for i, e := range in {
		out[i] = Entry{Name: e.Name, ServerPath: e.ServerPath, Changeset: e.Changeset}
	}
	return out
}

func ids(changesets []*types.Changeset) []int {
	out := make([]int, len(changesets))
	for i, cs := range changesets {
		out[i] = cs.ID
	}
	return out
}
