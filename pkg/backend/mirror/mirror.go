// Package mirror is an offline version-control backend over an exported
// history directory:
//
//	history.xml                      changesets and their changes
//	content/<changeset>/<path>       item content at that changeset,
//	                                 <path> being the server path without "$/"
//
// history.xml looks like:
//
//	<history>
//	  <changeset id="102" owner="CORP\dev" date="2024-05-01T10:00:00Z">
//	    <comment>Remove b</comment>
//	    <change type="delete" path="$/Shop/Main/b.txt"/>
//	  </changeset>
//	</history>
//
// A change may carry kind="folder" and a version attribute when the content
// belongs to another changeset.
package mirror

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/types"
)

const (
	// HistoryFile is the name of the history index in a mirror directory
	HistoryFile = "history.xml"
	// ContentDir holds the item content per changeset
	ContentDir = "content"
)

// Mirror implements types.VersionControl over a mirror directory
type Mirror struct {
	dir        string
	fs         types.FS
	changesets map[int]*types.Changeset
}

// Open loads the history of the mirror directory dir
func Open(fs types.FS, dir string) (*Mirror, error) {
	historyPath := filepath.Join(dir, HistoryFile)
	data, err := fs.ReadFile(historyPath)
	if err != nil {
		code := errors.ErrBackendUnavailable
		if os.IsNotExist(err) {
			code = errors.ErrNotFound
		}
		return nil, errors.Wrapf(err, code, "failed to read %s", historyPath).WithDetail("path", historyPath)
	}

	changesets, err := parseHistory(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrBackendResponse, "invalid history in %s", historyPath).
			WithDetail("path", historyPath)
	}

	logger := logging.GetLogger("mirror")
	logger.Debug().
		Str("dir", dir).
		Int("changesets", len(changesets)).
		Msg("Mirror loaded")
	return &Mirror{dir: dir, fs: fs, changesets: changesets}, nil
}

// Dir returns the mirror directory
func (m *Mirror) Dir() string {
	return m.dir
}

// GetChangeset implements types.VersionControl
func (m *Mirror) GetChangeset(ctx context.Context, id int) (*types.Changeset, error) {
	cs, ok := m.changesets[id]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "changeset %d is not in the mirror", id).
			WithDetail("changeset", id)
	}
	return clone(cs), nil
}

// QueryHistory implements types.VersionControl
func (m *Mirror) QueryHistory(ctx context.Context, serverPath string, fromID, toID int) ([]*types.Changeset, error) {
	folder := strings.ToLower(strings.TrimRight(serverPath, "/"))

	var out []*types.Changeset
	for id, cs := range m.changesets {
		if id < fromID || id > toID {
			continue
		}
		if touches(cs, folder) {
			out = append(out, clone(cs))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Download implements types.VersionControl
func (m *Mirror) Download(ctx context.Context, item types.Item) (io.ReadCloser, error) {
	path := m.ContentPath(item.ServerPath, item.Version)
	f, err := m.fs.Open(path)
	if err != nil {
		code := errors.ErrBackendUnavailable
		if os.IsNotExist(err) {
			code = errors.ErrNotFound
		}
		return nil, errors.Wrapf(err, code, "no content for %s at changeset %d", item.ServerPath, item.Version).
			WithDetail("path", path)
	}
	return f, nil
}

// ContentPath returns where the content of serverPath at version lives
func (m *Mirror) ContentPath(serverPath string, version int) string {
	rel := strings.TrimPrefix(strings.ReplaceAll(serverPath, `\`, "/"), "$/")
	return filepath.Join(m.dir, ContentDir, strconv.Itoa(version), filepath.FromSlash(rel))
}

func touches(cs *types.Changeset, folder string) bool {
	for _, ch := range cs.Changes {
		p := strings.ToLower(ch.Item.ServerPath)
		if p == folder || strings.HasPrefix(p, folder+"/") {
			return true
		}
	}
	return false
}

func clone(cs *types.Changeset) *types.Changeset {
	c := *cs
	c.Changes = append([]types.Change(nil), cs.Changes...)
	return &c
}

func parseHistory(data []byte) (map[int]*types.Changeset, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.SelectElement("history")
	if root == nil {
		return nil, errors.New(errors.ErrBackendResponse, "missing <history> element")
	}

	changesets := make(map[int]*types.Changeset)
	for _, el := range root.SelectElements("changeset") {
		id, err := strconv.Atoi(el.SelectAttrValue("id", ""))
		if err != nil || id <= 0 {
			return nil, errors.Newf(errors.ErrBackendResponse, "changeset with invalid id %q", el.SelectAttrValue("id", ""))
		}
		if _, dup := changesets[id]; dup {
			return nil, errors.Newf(errors.ErrBackendResponse, "changeset %d listed twice", id)
		}

		cs := &types.Changeset{ID: id, Owner: el.SelectAttrValue("owner", "")}
		if date := el.SelectAttrValue("date", ""); date != "" {
			cs.CreatedAt, err = time.Parse(time.RFC3339, date)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrBackendResponse, "changeset %d has an invalid date", id)
			}
		}
		if comment := el.SelectElement("comment"); comment != nil {
			cs.Comment = strings.TrimSpace(comment.Text())
		}

		for _, chEl := range el.SelectElements("change") {
			change, err := parseChange(chEl, id)
			if err != nil {
				return nil, err
			}
			cs.Changes = append(cs.Changes, change)
		}
		changesets[id] = cs
	}
	return changesets, nil
}

func parseChange(el *etree.Element, changesetID int) (types.Change, error) {
	path := el.SelectAttrValue("path", "")
	if !strings.HasPrefix(path, "$/") {
		return types.Change{}, errors.Newf(errors.ErrBackendResponse,
			"changeset %d has a change with invalid path %q", changesetID, path)
	}
	ct, err := types.ParseChangeType(el.SelectAttrValue("type", ""))
	if err != nil {
		return types.Change{}, errors.Wrapf(err, errors.ErrBackendResponse, "changeset %d: %s", changesetID, path)
	}

	kind := types.ItemFile
	if strings.EqualFold(el.SelectAttrValue("kind", "file"), "folder") {
		kind = types.ItemFolder
	}
	version := changesetID
	if v := el.SelectAttrValue("version", ""); v != "" {
		if version, err = strconv.Atoi(v); err != nil {
			return types.Change{}, errors.Newf(errors.ErrBackendResponse,
				"changeset %d: invalid version %q for %s", changesetID, v, path)
		}
	}

	return types.Change{
		Type: ct,
		Item: types.Item{ServerPath: path, Kind: kind, Version: version},
	}, nil
}
