// Package pack runs a full packaging pass: resolve the changesets,
// reconcile them, write the deploy archive, the backup archive and the
// delete script, verify the backup and record the run in a manifest.
package pack

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/changepack/pkg/archive"
	"github.com/arthur-debert/changepack/pkg/artifacts"
	"github.com/arthur-debert/changepack/pkg/commands"
	"github.com/arthur-debert/changepack/pkg/commands/plan"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/manifest"
	"github.com/arthur-debert/changepack/pkg/types"
	"github.com/arthur-debert/changepack/pkg/verify"
)

// ArtifactWriter writes the text artifacts of a run
type ArtifactWriter interface {
	Write(ctx context.Context, artifacts ...artifacts.Artifact) error
}

// Options holds the inputs of a packaging run
type Options struct {
	Session *commands.Session
	Spec    string
	// BackupDir holds the live site. Empty skips the backup archive and
	// verification.
	BackupDir string
	Exclude   []string
	// OutputDir overrides packaging.output_dir
	OutputDir string
	// Target is the directory the delete script removes files from.
	// Defaults to BackupDir, then the deployment root.
	Target string
	Verify bool
	DryRun bool

	// Writer defaults to an artifacts.Writer over the OS filesystem
	Writer ArtifactWriter
}

// Result describes a packaging run
type Result struct {
	RunID        string           `json:"runId"`
	Spec         string           `json:"spec"`
	Name         string           `json:"name"`
	Changesets   []int            `json:"changesets"`
	DryRun       bool             `json:"dryRun"`
	Plan         *plan.Result     `json:"plan"`
	Deploy       *archive.Summary `json:"deploy,omitempty"`
	Backup       *archive.Summary `json:"backup,omitempty"`
	DeleteScript string           `json:"deleteScript,omitempty"`
	Manifest     string           `json:"manifest,omitempty"`
	Verification *verify.Result   `json:"verification,omitempty"`
	Duration     time.Duration    `json:"duration"`
}

// Failed reports whether the backup archive did not match the live site
func (r *Result) Failed() bool {
	return r.Verification != nil && !r.Verification.OK
}

// Run performs the packaging run described by opts. A verification
// mismatch is reported in the result, not as an error. When a stage fails
// the artifacts already written by the run are removed.
func Run(ctx context.Context, opts Options) (_ *Result, err error) {
	logger := logging.GetLogger("commands.pack")
	start := time.Now()
	s := opts.Session
	cfg := s.Config

	planned, err := plan.Run(ctx, plan.Options{
		Session:   s,
		Spec:      opts.Spec,
		BackupDir: opts.BackupDir,
		Exclude:   opts.Exclude,
	})
	if err != nil {
		return nil, err
	}
	p := planned.Plan

	result := &Result{
		RunID:      manifest.NewRunID(),
		Spec:       planned.Spec,
		Name:       planned.Name,
		Changesets: planned.Changesets,
		DryRun:     opts.DryRun,
		Plan:       planned,
	}
	logger = logging.ForRun(logger, result.RunID, result.Spec)
	logger.Info().
		Str("name", result.Name).
		Int("deploy", len(p.Deploy)).
		Int("backup", len(p.Backup)).
		Int("deletions", len(p.Deletions)).
		Msg("Plan ready")

	if opts.DryRun {
		logger.Info().Msg("Dry run mode - no archives were written")
		result.Duration = time.Since(start)
		return result, nil
	}

	outDir, err := s.OutputDir(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	writer := opts.Writer
	if writer == nil {
		writer = artifacts.NewWriter(false)
	}
	builder := archive.NewBuilder(s.FS, cfg.Packaging.CompressionLevel)

	var written []string
	defer func() {
		if err != nil {
			discard(s.FS, written, logger)
		}
	}()

	deployPath := commands.ArtifactPath(outDir, result.Name, cfg.Packaging.DeploySuffix)
	logger.Info().Str("path", deployPath).Msg("Packing")
	if result.Deploy, err = builder.Build(ctx, deployPath, p.Deploy); err != nil {
		return nil, errors.Stage(err, "deploy archive")
	}
	written = append(written, deployPath)

	if p.BackupDir != "" {
		backupPath := commands.ArtifactPath(outDir, result.Name, cfg.Packaging.BackupSuffix)
		logger.Info().Str("path", backupPath).Msg("Packing")
		if result.Backup, err = builder.Build(ctx, backupPath, p.Backup); err != nil {
			return nil, errors.Stage(err, "backup archive")
		}
		written = append(written, backupPath)
	}

	target := opts.Target
	if target == "" {
		target = p.BackupDir
	}
	if target == "" {
		target = s.Root
	}
	script, err := artifacts.RenderDeleteScript(cfg.Packaging.DeleteCommand, target, p.Deletions)
	if err != nil {
		return nil, errors.Stage(err, "delete script")
	}
	if script != nil {
		scriptPath := commands.ArtifactPath(outDir, result.Name, cfg.Packaging.DeleteScriptSuffix)
		if err := writer.Write(ctx, artifacts.Artifact{Path: scriptPath, Content: script}); err != nil {
			return nil, errors.Stage(err, "delete script")
		}
		written = append(written, scriptPath)
		result.DeleteScript = scriptPath
	}

	if result.Backup != nil && opts.Verify {
		verifier := verify.New(s.FS, cfg.Verify.DiffMaxBytes)
		if result.Verification, err = verifier.Verify(ctx, result.Backup.Path, p.BackupDir); err != nil {
			return nil, errors.Stage(err, "verify")
		}
	}

	if cfg.Packaging.Manifest {
		m := manifest.New(result.RunID, result.Spec, result.Name, p)
		m.Deploy = manifest.FromSummary(result.Deploy)
		m.Backup = manifest.FromSummary(result.Backup)
		m.DeleteScript = result.DeleteScript
		m.Verification = result.Verification
		data, err := manifest.Render(m)
		if err != nil {
			return nil, errors.Stage(err, "manifest")
		}
		manifestPath := commands.ArtifactPath(outDir, result.Name, cfg.Packaging.ManifestSuffix)
		if err := writer.Write(ctx, artifacts.Artifact{Path: manifestPath, Content: data}); err != nil {
			return nil, errors.Stage(err, "manifest")
		}
		result.Manifest = manifestPath
	}

	result.Duration = time.Since(start)
	logger.Info().
		Str("name", result.Name).
		Dur("duration", result.Duration).
		Bool("failed", result.Failed()).
		Msg("Packaging completed")
	return result, nil
}

// discard removes the artifacts of a failed run
func discard(fs types.FS, written []string, logger zerolog.Logger) {
	for _, path := range written {
		if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to remove artifact of failed run")
			continue
		}
		logger.Debug().Str("path", path).Msg("Removed artifact of failed run")
	}
}
