package mirror

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/filesystem"
	"github.com/arthur-debert/changepack/pkg/testutil"
	"github.com/arthur-debert/changepack/pkg/types"
)

const history = `<?xml version="1.0" encoding="UTF-8"?>
<history>
  <changeset id="100" owner="CORP\dev" date="2024-05-01T10:00:00Z">
    <comment>Add a</comment>
    <change type="add, edit, encoding" path="$/Shop/Main/a.txt"/>
    <change type="add" kind="folder" path="$/Shop/Main/Views"/>
  </changeset>
  <changeset id="101">
    <change type="edit" path="$/Shop/Main/a.txt"/>
    <change type="merge, branch" path="$/Shop/Main/lib.dll" version="99"/>
  </changeset>
  <changeset id="102">
    <change type="delete" path="$/Shop/Main/b.txt"/>
  </changeset>
  <changeset id="103">
    <change type="edit" path="$/Other/c.txt"/>
  </changeset>
</history>
`

func newMirror(t *testing.T) (*Mirror, types.FS) {
	t.Helper()
	fs := filesystem.NewMemory()
	dir := "/export"
	require.NoError(t, fs.MkdirAll(filepath.Join(dir, ContentDir, "101", "Shop", "Main"), 0755))
	require.NoError(t, fs.WriteFile(filepath.Join(dir, HistoryFile), []byte(history), 0644))
	require.NoError(t, fs.WriteFile(filepath.Join(dir, ContentDir, "101", "Shop", "Main", "a.txt"), []byte("a at 101"), 0644))

	m, err := Open(fs, dir)
	require.NoError(t, err)
	return m, fs
}

func TestOpen_ParsesHistory(t *testing.T) {
	m, _ := newMirror(t)

	cs, err := m.GetChangeset(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, `CORP\dev`, cs.Owner)
	assert.Equal(t, "Add a", cs.Comment)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), cs.CreatedAt)
	require.Len(t, cs.Changes, 2)
	assert.Equal(t, types.ChangeAdd|types.ChangeEdit|types.ChangeEncoding, cs.Changes[0].Type)
	assert.Equal(t, types.ItemFolder, cs.Changes[1].Item.Kind)

	cs, err = m.GetChangeset(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, 101, cs.Changes[0].Item.Version)
	assert.Equal(t, 99, cs.Changes[1].Item.Version)
	assert.True(t, cs.Changes[1].Type.IsMerge())

	_, err = m.GetChangeset(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestGetChangeset_ReturnsCopies(t *testing.T) {
	m, _ := newMirror(t)

	cs, err := m.GetChangeset(context.Background(), 100)
	require.NoError(t, err)
	cs.Changes[0].Item.ServerPath = "mutated"

	again, err := m.GetChangeset(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "$/Shop/Main/a.txt", again.Changes[0].Item.ServerPath)
}

func TestQueryHistory(t *testing.T) {
	m, _ := newMirror(t)

	got, err := m.QueryHistory(context.Background(), "$/Shop/Main", 100, 103)
	require.NoError(t, err)
	var ids []int
	for _, cs := range got {
		ids = append(ids, cs.ID)
	}
	assert.Equal(t, []int{102, 101, 100}, ids)

	got, err = m.QueryHistory(context.Background(), "$/shop/main/", 101, 101)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestDownload(t *testing.T) {
	m, _ := newMirror(t)

	rc, err := m.Download(context.Background(), types.Item{ServerPath: "$/Shop/Main/a.txt", Version: 101})
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a at 101", string(data))

	_, err = m.Download(context.Background(), types.Item{ServerPath: "$/Shop/Main/a.txt", Version: 100})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestOpen_Errors(t *testing.T) {
	fs := filesystem.NewMemory()

	_, err := Open(fs, "/missing")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	for name, doc := range map[string]string{
		"not xml":     "{",
		"no history":  "<changesets/>",
		"bad id":      `<history><changeset id="x"/></history>`,
		"duplicate":   `<history><changeset id="1"/><changeset id="1"/></history>`,
		"bad date":    `<history><changeset id="1" date="yesterday"/></history>`,
		"bad path":    `<history><changeset id="1"><change type="edit" path="a.txt"/></changeset></history>`,
		"bad type":    `<history><changeset id="1"><change type="teleport" path="$/a.txt"/></changeset></history>`,
		"bad version": `<history><changeset id="1"><change type="edit" path="$/a.txt" version="v2"/></changeset></history>`,
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, fs.WriteFile("/bad/history.xml", []byte(doc), 0644))
			_, err := Open(fs, "/bad")
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrBackendResponse))
		})
	}
}

func TestExport_RoundTrip(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.Backend.
		Add(100, testutil.ServerPath("a.txt"), "a at 100").
		Folder(100, types.ChangeAdd, testutil.ServerPath("Views")).
		Edit(101, testutil.ServerPath("a.txt"), "a at 101").
		Delete(102, testutil.ServerPath("b.txt"))

	var changesets []*types.Changeset
	for _, id := range []int{102, 101, 100} {
		cs, err := env.Backend.GetChangeset(context.Background(), id)
		require.NoError(t, err)
		changesets = append(changesets, cs)
	}

	summary, err := Export(context.Background(), env.Backend, env.FS, "/export", changesets)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Changesets)
	assert.Equal(t, 2, summary.Files)

	m, err := Open(env.FS, "/export")
	require.NoError(t, err)

	got, err := m.QueryHistory(context.Background(), testutil.ServerRoot, 100, 102)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, changesets[0].Changes, got[0].Changes)
	assert.Equal(t, changesets[2].Changes, got[2].Changes)
	assert.Equal(t, "builder", got[1].Owner)

	rc, err := m.Download(context.Background(), types.Item{ServerPath: testutil.ServerPath("a.txt"), Version: 100})
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "a at 100", string(data))
}
