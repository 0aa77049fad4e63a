// Package export writes a changeset window from the configured backend into
// an offline mirror directory that the mirror backend can package from.
package export

import (
	"context"
	"fmt"

	"github.com/arthur-debert/changepack/pkg/backend/mirror"
	"github.com/arthur-debert/changepack/pkg/changeset"
	"github.com/arthur-debert/changepack/pkg/commands"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/paths"
)

// Options holds the inputs of an export
type Options struct {
	Session *commands.Session
	Spec    string
	// Dir is the mirror directory to write
	Dir string
}

// Result describes a finished export
type Result struct {
	Spec string `json:"spec"`
	*mirror.ExportSummary
}

// Run resolves the spec and exports its changesets with their content
func Run(ctx context.Context, opts Options) (*Result, error) {
	spec, err := changeset.ParseSpec(opts.Spec)
	if err != nil {
		return nil, err
	}
	if opts.Dir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "an export directory is required")
	}
	dir, err := paths.Normalize(opts.Dir)
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

	summary, err := mirror.Export(ctx, s.Backend, s.FS, dir, changesets)
	if err != nil {
		return nil, errors.Stage(err, "export")
	}
	return &Result{Spec: spec.String(), ExportSummary: summary}, nil
}

// Status implements ui.Report
func (r *Result) Status() (string, bool) {
	return fmt.Sprintf("Exported %d changesets (%d files) to %s", r.Changesets, r.Files, r.Dir), true
}

// Markdown implements ui.Report
func (r *Result) Markdown() string {
	return ""
}
