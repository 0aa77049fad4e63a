// Package verify re-checks a backup archive against the live site.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthur-debert/changepack/pkg/changeset"
	"github.com/arthur-debert/changepack/pkg/commands"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/paths"
	verifier "github.com/arthur-debert/changepack/pkg/verify"
)

// Options holds the inputs of a verification
type Options struct {
	Session *commands.Session
	// Archive is the backup archive. When empty it is derived from Spec:
	// <output dir>/<name><backup suffix>.
	Archive   string
	Spec      string
	OutputDir string
	// BackupDir is the live site the archive was taken from
	BackupDir string
}

// Result wraps the verification outcome for rendering
type Result struct {
	*verifier.Result
}

// Run verifies the backup archive against the backup directory
func Run(ctx context.Context, opts Options) (*Result, error) {
	s := opts.Session
	if opts.BackupDir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "a backup directory is required to verify against")
	}
	dir, err := paths.Normalize(opts.BackupDir)
	if err != nil {
		return nil, err
	}

	archivePath, err := archivePath(s, opts)
	if err != nil {
		return nil, err
	}

	v := verifier.New(s.FS, s.Config.Verify.DiffMaxBytes)
	result, err := v.Verify(ctx, archivePath, dir)
	if err != nil {
		return nil, errors.Stage(err, "verify")
	}
	return &Result{Result: result}, nil
}

func archivePath(s *commands.Session, opts Options) (string, error) {
	if opts.Archive != "" {
		return paths.Normalize(opts.Archive)
	}
	if opts.Spec == "" {
		return "", errors.New(errors.ErrInvalidInput, "either an archive or a changeset spec is required")
	}
	spec, err := changeset.ParseSpec(opts.Spec)
	if err != nil {
		return "", err
	}
	outDir, err := s.OutputDir(opts.OutputDir)
	if err != nil {
		return "", err
	}
	return commands.ArtifactPath(outDir, spec.Name(), s.Config.Packaging.BackupSuffix), nil
}

// Failed reports a mismatch
func (r *Result) Failed() bool {
	return !r.OK
}

// Status implements ui.Report
func (r *Result) Status() (string, bool) {
	if r.OK {
		return fmt.Sprintf("Backup %s matches %s (%d files)", r.Archive, r.Dir, r.Checked), true
	}
	return fmt.Sprintf("Backup %s does not match %s", r.Archive, r.Dir), false
}

// Markdown implements ui.Report
func (r *Result) Markdown() string {
	if r.OK {
		return ""
	}
	m := r.Mismatch
	var b strings.Builder
	fmt.Fprintf(&b, "## Mismatch\n\n- Entry: `%s`\n- On disk: `%s`\n- Archive MD5: `%s`\n- Disk MD5: `%s`\n\n",
		m.Name, m.DiskPath, m.ArchiveHash, m.DiskHash)
	if m.Diff != "" {
		fmt.Fprintf(&b, "```diff\n%s```\n", m.Diff)
	}
	return b.String()
}
