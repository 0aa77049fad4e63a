package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/types"
)

type contentKey struct {
	path    string
	version int
}

// FakeBackend is an in-memory types.Backend. Changesets are built with
// Add/Edit/Delete/Touch; every call records the content of the item at that
// changeset.
type FakeBackend struct {
	mu         sync.Mutex
	ws         types.Workspace
	changesets map[int]*types.Changeset
	content    map[contentKey][]byte
	failures   map[string]error

	// Call records
	GetChangesetCalls []int
	HistoryCalls      int
	Downloads         []string
}

// NewFakeBackend creates an empty backend bound to ws
func NewFakeBackend(ws types.Workspace) *FakeBackend {
	return &FakeBackend{
		ws:         ws,
		changesets: make(map[int]*types.Changeset),
		content:    make(map[contentKey][]byte),
		failures:   make(map[string]error),
	}
}

// Add records an add of serverPath in changeset id
func (f *FakeBackend) Add(id int, serverPath, content string) *FakeBackend {
	return f.Touch(id, types.ChangeAdd|types.ChangeEdit|types.ChangeEncoding, serverPath, content)
}

// Edit records an edit of serverPath in changeset id
func (f *FakeBackend) Edit(id int, serverPath, content string) *FakeBackend {
	return f.Touch(id, types.ChangeEdit, serverPath, content)
}

// Delete records a delete of serverPath in changeset id
func (f *FakeBackend) Delete(id int, serverPath string) *FakeBackend {
	return f.Touch(id, types.ChangeDelete, serverPath, "")
}

// Folder records a change to a folder item
func (f *FakeBackend) Folder(id int, ct types.ChangeType, serverPath string) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs := f.changeset(id)
	cs.Changes = append(cs.Changes, types.Change{
		Type: ct,
		Item: types.Item{ServerPath: serverPath, Kind: types.ItemFolder, Version: id},
	})
	return f
}

// Touch records a file change of any type. Content is stored unless the
// change is a delete.
func (f *FakeBackend) Touch(id int, ct types.ChangeType, serverPath, content string) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs := f.changeset(id)
	cs.Changes = append(cs.Changes, types.Change{
		Type: ct,
		Item: types.Item{ServerPath: serverPath, Kind: types.ItemFile, Version: id},
	})
	if !ct.IsDelete() {
		f.content[contentKey{strings.ToLower(serverPath), id}] = []byte(content)
	}
	return f
}

// FailDownload makes every download of serverPath fail with err
func (f *FakeBackend) FailDownload(serverPath string, err error) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[strings.ToLower(serverPath)] = err
	return f
}

func (f *FakeBackend) changeset(id int) *types.Changeset {
	cs, ok := f.changesets[id]
	if !ok {
		cs = &types.Changeset{ID: id, Owner: "builder", Comment: "test changeset"}
		f.changesets[id] = cs
	}
	return cs
}

// GetChangeset implements types.VersionControl
func (f *FakeBackend) GetChangeset(ctx context.Context, id int) (*types.Changeset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetChangesetCalls = append(f.GetChangesetCalls, id)
	cs, ok := f.changesets[id]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "changeset %d does not exist", id)
	}
	return cloneChangeset(cs), nil
}

// QueryHistory implements types.VersionControl. Changesets touching
// serverPath between fromID and toID are returned newest first.
func (f *FakeBackend) QueryHistory(ctx context.Context, serverPath string, fromID, toID int) ([]*types.Changeset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HistoryCalls++

	prefix := strings.ToLower(strings.TrimRight(serverPath, "/"))
	var out []*types.Changeset
	for id, cs := range f.changesets {
		if id < fromID || id > toID {
			continue
		}
		for _, ch := range cs.Changes {
			p := strings.ToLower(ch.Item.ServerPath)
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				out = append(out, cloneChangeset(cs))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Download implements types.VersionControl
func (f *FakeBackend) Download(ctx context.Context, item types.Item) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Downloads = append(f.Downloads, item.ServerPath)
	if err, ok := f.failures[strings.ToLower(item.ServerPath)]; ok {
		return nil, err
	}
	data, ok := f.content[contentKey{strings.ToLower(item.ServerPath), item.Version}]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "no content for %s;C%d", item.ServerPath, item.Version)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// LocalPathFor implements types.Workspace
func (f *FakeBackend) LocalPathFor(serverPath string) (string, bool) {
	return f.ws.LocalPathFor(serverPath)
}

// ServerPathFor implements types.Workspace
func (f *FakeBackend) ServerPathFor(localPath string) (string, error) {
	return f.ws.ServerPathFor(localPath)
}

func cloneChangeset(cs *types.Changeset) *types.Changeset {
	c := *cs
	c.Changes = append([]types.Change(nil), cs.Changes...)
	return &c
}

// MockVersionControl is a function-field implementation of
// types.VersionControl. Unset functions fail the call.
type MockVersionControl struct {
	GetChangesetFunc func(ctx context.Context, id int) (*types.Changeset, error)
	QueryHistoryFunc func(ctx context.Context, serverPath string, fromID, toID int) ([]*types.Changeset, error)
	DownloadFunc     func(ctx context.Context, item types.Item) (io.ReadCloser, error)
}

// GetChangeset runs the mock's GetChangesetFunc
func (m *MockVersionControl) GetChangeset(ctx context.Context, id int) (*types.Changeset, error) {
	if m.GetChangesetFunc != nil {
		return m.GetChangesetFunc(ctx, id)
	}
	return nil, errors.New(errors.ErrInternal, "unexpected GetChangeset call")
}

// QueryHistory runs the mock's QueryHistoryFunc
func (m *MockVersionControl) QueryHistory(ctx context.Context, serverPath string, fromID, toID int) ([]*types.Changeset, error) {
	if m.QueryHistoryFunc != nil {
		return m.QueryHistoryFunc(ctx, serverPath, fromID, toID)
	}
	return nil, errors.New(errors.ErrInternal, "unexpected QueryHistory call")
}

// Download runs the mock's DownloadFunc
func (m *MockVersionControl) Download(ctx context.Context, item types.Item) (io.ReadCloser, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, item)
	}
	return nil, errors.New(errors.ErrInternal, "unexpected Download call")
}
