package mirror

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/types"
)

// ExportSummary describes a finished export
type ExportSummary struct {
	Dir        string `json:"dir"`
	Changesets int    `json:"changesets"`
	Files      int    `json:"files"`
}

// Export writes changesets and the content of every non-deleted file they
// touch into a mirror directory at dir. Existing history is replaced.
func Export(ctx context.Context, vc types.VersionControl, fs types.FS, dir string, changesets []*types.Changeset) (*ExportSummary, error) {
	logger := logging.GetLogger("mirror")
	m := &Mirror{dir: dir, fs: fs}
	summary := &ExportSummary{Dir: dir}

	for _, cs := range changesets {
		for _, ch := range cs.Changes {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrCanceled, "export canceled")
			}
			if !ch.Item.IsFile() || ch.Type.IsDelete() {
				continue
			}
			if err := m.writeContent(ctx, vc, ch.Item); err != nil {
				return nil, err
			}
			summary.Files++
		}
		summary.Changesets++
		logger.Info().Int("changeset", cs.ID).Msg("Exported changeset")
	}

	data, err := RenderHistory(changesets)
	if err != nil {
		return nil, err
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", dir)
	}
	historyPath := filepath.Join(dir, HistoryFile)
	if err := fs.WriteFile(historyPath, data, 0644); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", historyPath)
	}
	return summary, nil
}

func (m *Mirror) writeContent(ctx context.Context, vc types.VersionControl, item types.Item) error {
	path := m.ContentPath(item.ServerPath, item.Version)
	if err := m.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", filepath.Dir(path))
	}

	src, err := vc.Download(ctx, item)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := m.fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "failed to create %s", path)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", path)
	}
	if err := dst.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to close %s", path)
	}
	return nil
}

// RenderHistory renders changesets as a history.xml document
func RenderHistory(changesets []*types.Changeset) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("history")

	for _, cs := range changesets {
		el := root.CreateElement("changeset")
		el.CreateAttr("id", strconv.Itoa(cs.ID))
		if cs.Owner != "" {
			el.CreateAttr("owner", cs.Owner)
		}
		if !cs.CreatedAt.IsZero() {
			el.CreateAttr("date", cs.CreatedAt.UTC().Format(time.RFC3339))
		}
		if cs.Comment != "" {
			el.CreateElement("comment").SetText(cs.Comment)
		}
		for _, ch := range cs.Changes {
			chEl := el.CreateElement("change")
			chEl.CreateAttr("type", ch.Type.String())
			chEl.CreateAttr("path", ch.Item.ServerPath)
			if !ch.Item.IsFile() {
				chEl.CreateAttr("kind", ch.Item.Kind.String())
			}
			if ch.Item.Version != 0 && ch.Item.Version != cs.ID {
				chEl.CreateAttr("version", strconv.Itoa(ch.Item.Version))
			}
		}
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render history")
	}
	return data, nil
}
