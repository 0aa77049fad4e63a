// Package reconcile decides what goes into each archive.
//
// Changesets are walked newest first and, within a changeset, in change
// order. For each pass the first change to claim a server path wins and
// later (older) changes of the same path are skipped, which leaves the
// newest surviving version of every touched file. Entry names are claimed
// the same way, since a pointer file and the file it stands in for share
// one:
//
//   - deploy: files that were not deleted, content from version control
//   - backup: files that were not added, content from the live copy under
//     the backup directory, i.e. what the deploy is about to overwrite
//   - delete: files that no longer exist in the workspace
//
// A change that cannot be packaged is skipped and logged; reconciliation
// itself only fails on I/O errors or cancellation.
package reconcile

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/changepack/pkg/archive"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/paths"
	"github.com/arthur-debert/changepack/pkg/types"
)

// Options configures a reconciler
type Options struct {
	Exclusions *Exclusions
	// BackupDir holds the live copy of the site. Empty disables the backup
	// pass.
	BackupDir string
}

// Reconciler holds the per-run dedup state. Use one per packaging run.
type Reconciler struct {
	vc         types.VersionControl
	mapper     *paths.Mapper
	fs         types.FS
	exclusions *Exclusions
	backupDir  string

	deployed map[string]bool
	backedUp map[string]bool
	deleted  map[string]bool

	// entry names already claimed per pass
	deployedNames map[string]bool
	backedUpNames map[string]bool
	deletedNames  map[string]bool

	skipped []Skipped
	counts  map[Pass]PassCount

	logger zerolog.Logger
}

// New creates a reconciler with fresh dedup state
func New(vc types.VersionControl, mapper *paths.Mapper, fs types.FS, opts Options) *Reconciler {
	return &Reconciler{
		vc:         vc,
		mapper:     mapper,
		fs:         fs,
		exclusions: opts.Exclusions,
		backupDir:  opts.BackupDir,
		deployed:   make(map[string]bool),
		backedUp:   make(map[string]bool),
		deleted:    make(map[string]bool),

		deployedNames: make(map[string]bool),
		backedUpNames: make(map[string]bool),
		deletedNames:  make(map[string]bool),

		counts: make(map[Pass]PassCount),
		logger: logging.GetLogger("reconcile"),
	}
}

// key folds server paths, which TFVC compares case-insensitively
func key(serverPath string) string {
	return strings.ToLower(serverPath)
}

// ClassifyForDeploy decides whether change goes into the deploy archive.
// An included change claims its server path for the rest of the run.
func (r *Reconciler) ClassifyForDeploy(change types.Change) Decision {
	item := change.Item
	if !item.IsFile() {
		return Decision{Reason: ReasonFolder}
	}
	if excluded, _ := r.exclusions.Excluded(item.ServerPath); excluded {
		return Decision{Reason: ReasonExcluded}
	}
	if r.deployed[key(item.ServerPath)] {
		return Decision{Reason: ReasonAlreadyDeployed}
	}
	if change.Type.IsDelete() {
		return Decision{Reason: ReasonDeleted}
	}

	loc, err := r.mapper.Locate(item.ServerPath)
	if err != nil {
		return Decision{Reason: ReasonUnmapped}
	}
	if r.deployedNames[key(loc.Name)] {
		return Decision{Reason: ReasonAlreadyDeployed, Name: loc.Name}
	}

	r.deployed[key(item.ServerPath)] = true
	r.deployedNames[key(loc.Name)] = true
	return Decision{Verdict: Include, Name: loc.Name, Pointer: loc.Pointer}
}

// ClassifyForBackup decides whether change goes into the backup archive.
// The source is the live file under the backup directory; a missing source
// is a skip (a merge that really is an add, or a file never deployed).
func (r *Reconciler) ClassifyForBackup(change types.Change) Decision {
	item := change.Item
	if !item.IsFile() {
		return Decision{Reason: ReasonFolder}
	}
	if excluded, _ := r.exclusions.Excluded(item.ServerPath); excluded {
		return Decision{Reason: ReasonExcluded}
	}
	if r.backedUp[key(item.ServerPath)] {
		return Decision{Reason: ReasonAlreadyBackedUp}
	}
	if change.Type.IsAdd() {
		return Decision{Reason: ReasonAdded}
	}

	loc, err := r.mapper.Locate(item.ServerPath)
	if err != nil {
		return Decision{Reason: ReasonUnmapped}
	}
	if r.backedUpNames[key(loc.Name)] {
		return Decision{Reason: ReasonAlreadyBackedUp, Name: loc.Name}
	}

	source := paths.LocalName(r.backupDir, loc.Name)
	info, err := r.fs.Stat(source)
	if err != nil || info.IsDir() {
		return Decision{Reason: ReasonMissingSource, Name: loc.Name, Source: source}
	}

	r.backedUp[key(item.ServerPath)] = true
	r.backedUpNames[key(loc.Name)] = true
	return Decision{Verdict: Include, Name: loc.Name, Source: source, Pointer: loc.Pointer}
}

// ClassifyForDelete decides whether change yields a deletion: the item is
// mapped under the root and no longer exists in the workspace
func (r *Reconciler) ClassifyForDelete(change types.Change) Decision {
	item := change.Item
	if !item.IsFile() {
		return Decision{Reason: ReasonFolder}
	}
	if excluded, _ := r.exclusions.Excluded(item.ServerPath); excluded {
		return Decision{Reason: ReasonExcluded}
	}
	if r.deleted[key(item.ServerPath)] {
		return Decision{Reason: ReasonAlreadyListed}
	}

	loc, err := r.mapper.Locate(item.ServerPath)
	if err != nil {
		return Decision{Reason: ReasonUnmapped}
	}
	// any answer from Stat other than "does not exist" keeps the file
	if _, err := r.fs.Stat(loc.LocalPath); err == nil || !os.IsNotExist(err) {
		r.deleted[key(item.ServerPath)] = true
		return Decision{Reason: ReasonExists, Name: loc.Name}
	}

	r.deleted[key(item.ServerPath)] = true
	if r.deletedNames[key(loc.Name)] {
		return Decision{Reason: ReasonAlreadyListed, Name: loc.Name}
	}
	r.deletedNames[key(loc.Name)] = true
	return Decision{Verdict: Include, Name: loc.Name, Pointer: loc.Pointer}
}

// DeployEntries walks changesets and returns the deploy archive entries.
// Content is downloaded lazily when the archive is written; pointer files
// are replaced by the file they point to.
func (r *Reconciler) DeployEntries(ctx context.Context, changesets []*types.Changeset) ([]archive.Entry, error) {
	var entries []archive.Entry
	err := r.walk(ctx, PassDeploy, changesets, r.ClassifyForDeploy, func(cs *types.Changeset, change types.Change, d Decision) {
		entries = append(entries, archive.Entry{
			Name:       d.Name,
			Open:       r.deployOpener(change.Item, d.Pointer),
			ServerPath: change.Item.ServerPath,
			Changeset:  cs.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// BackupEntries walks changesets and returns the backup archive entries,
// sourced from the backup directory
func (r *Reconciler) BackupEntries(ctx context.Context, changesets []*types.Changeset) ([]archive.Entry, error) {
	if r.backupDir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "backup pass needs a backup directory")
	}

	var entries []archive.Entry
	err := r.walk(ctx, PassBackup, changesets, r.ClassifyForBackup, func(cs *types.Changeset, change types.Change, d Decision) {
		entries = append(entries, archive.Entry{
			Name:       d.Name,
			Open:       r.fileOpener(d.Source),
			ServerPath: change.Item.ServerPath,
			Changeset:  cs.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Deletions walks changesets and returns the files to remove from the target
func (r *Reconciler) Deletions(ctx context.Context, changesets []*types.Changeset) ([]Deletion, error) {
	var deletions []Deletion
	err := r.walk(ctx, PassDelete, changesets, r.ClassifyForDelete, func(cs *types.Changeset, change types.Change, d Decision) {
		deletions = append(deletions, Deletion{
			Name:       d.Name,
			ServerPath: change.Item.ServerPath,
			Changeset:  cs.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return deletions, nil
}

// Reconcile runs the deploy pass, the backup pass when a backup directory
// is set, and the delete pass
func (r *Reconciler) Reconcile(ctx context.Context, changesets []*types.Changeset) (*Plan, error) {
	done := logging.LogOperationStart(r.logger, "reconcile")
	defer done()

	plan := &Plan{BackupDir: r.backupDir}
	for _, cs := range changesets {
		plan.Changesets = append(plan.Changesets, cs.ID)
	}

	var err error
	if plan.Deploy, err = r.DeployEntries(ctx, changesets); err != nil {
		return nil, err
	}
	if r.backupDir != "" {
		if plan.Backup, err = r.BackupEntries(ctx, changesets); err != nil {
			return nil, err
		}
	}
	if plan.Deletions, err = r.Deletions(ctx, changesets); err != nil {
		return nil, err
	}

	plan.Skipped = append([]Skipped(nil), r.skipped...)
	plan.Summary = make(map[Pass]PassCount, len(r.counts))
	for pass, c := range r.counts {
		plan.Summary[pass] = c
	}
	return plan, nil
}

type classifier func(types.Change) Decision

type collector func(cs *types.Changeset, change types.Change, d Decision)

func (r *Reconciler) walk(ctx context.Context, pass Pass, changesets []*types.Changeset, classify classifier, collect collector) error {
	for _, cs := range changesets {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, errors.ErrCanceled, "%s pass canceled", pass)
		}
		r.logger.Info().Str("pass", string(pass)).Int("changeset", cs.ID).Msg("Processing changeset")

		for _, change := range cs.Changes {
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, errors.ErrCanceled, "%s pass canceled", pass)
			}

			d := classify(change)
			count := r.counts[pass]
			if !d.Included() {
				count.Skipped++
				r.counts[pass] = count
				r.skip(pass, cs, change, d)
				continue
			}
			count.Included++
			r.counts[pass] = count

			r.logger.Debug().
				Str("pass", string(pass)).
				Int("changeset", cs.ID).
				Str("serverPath", change.Item.ServerPath).
				Str("entry", d.Name).
				Bool("pointer", d.Pointer).
				Msg("Including change")
			collect(cs, change, d)
		}
	}
	return nil
}

func (r *Reconciler) skip(pass Pass, cs *types.Changeset, change types.Change, d Decision) {
	r.logger.Debug().
		Str("pass", string(pass)).
		Int("changeset", cs.ID).
		Str("serverPath", change.Item.ServerPath).
		Str("change", change.Type.String()).
		Str("reason", d.Reason).
		Msg("Skipping change")
	// files still on disk are the normal case for the delete pass
	if pass == PassDelete {
		return
	}
	r.skipped = append(r.skipped, Skipped{
		Pass:       pass,
		ServerPath: change.Item.ServerPath,
		Changeset:  cs.ID,
		Change:     change.Type.String(),
		Reason:     d.Reason,
	})
}

func (r *Reconciler) deployOpener(item types.Item, pointer bool) archive.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		rc, err := r.vc.Download(ctx, item)
		if err != nil {
			return nil, err
		}
		if !pointer {
			return rc, nil
		}
		return r.mapper.OpenPointer(rc)
	}
}

func (r *Reconciler) fileOpener(path string) archive.Opener {
	return func(context.Context) (io.ReadCloser, error) {
		f, err := r.fs.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrMissingBackupSource, "failed to open %s", path).
				WithDetail("path", path)
		}
		return f, nil
	}
}
