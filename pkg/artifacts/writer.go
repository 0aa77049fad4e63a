// Package artifacts writes the text artifacts of a run (delete script and
// manifest) through a synthfs pipeline.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
)

// Artifact is one file to write
type Artifact struct {
	Path    string
	Content []byte
	Mode    os.FileMode
}

// Writer writes artifacts to the OS filesystem
type Writer struct {
	logger     zerolog.Logger
	filesystem filesystem.FullFileSystem
	dryRun     bool
}

// NewWriter returns a writer over the OS filesystem. Artifact paths must be
// absolute. A dry-run writer only logs.
func NewWriter(dryRun bool) *Writer {
	osfs := filesystem.NewOSFileSystem("/")
	return &Writer{
		logger:     logging.GetLogger("artifacts"),
		filesystem: synthfs.NewPathAwareFileSystem(osfs, "/").WithAbsolutePaths(),
		dryRun:     dryRun,
	}
}

// Write writes all artifacts, replacing existing files. Either every
// artifact is written or the ones already written are rolled back.
func (w *Writer) Write(ctx context.Context, artifacts ...Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	if w.dryRun {
		for _, a := range artifacts {
			w.logger.Info().Str("path", a.Path).Int("bytes", len(a.Content)).Msg("Would write file")
		}
		return nil
	}

	sfs := synthfs.New()
	ops := make([]synthfs.Operation, 0, len(artifacts))
	for i, a := range artifacts {
		if !filepath.IsAbs(a.Path) {
			return errors.Newf(errors.ErrInvalidInput, "artifact path must be absolute: %s", a.Path)
		}
		target := a.Path
		content := a.Content
		mode := a.Mode
		if mode == 0 {
			mode = 0644
		}
		id := fmt.Sprintf("artifact_%d_%s", i, filepath.Base(target))
		ops = append(ops, sfs.CustomOperationWithID(id, func(ctx context.Context, fs filesystem.FileSystem) error {
			if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := fs.Remove(target); err != nil && !os.IsNotExist(err) {
				return err
			}
			return fs.WriteFile(target, content, mode)
		}))
	}

	options := synthfs.DefaultPipelineOptions()
	options.RollbackOnError = true

	w.logger.Debug().Int("operationCount", len(ops)).Msg("Executing synthfs operations")
	if _, err := synthfs.RunWithOptions(ctx, w.filesystem, options, ops...); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to write artifacts")
	}
	for _, a := range artifacts {
		w.logger.Info().Str("path", a.Path).Int("bytes", len(a.Content)).Msg("Wrote file")
	}
	return nil
}
