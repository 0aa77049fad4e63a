package export

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/changepack/pkg/backend"
	"github.com/arthur-debert/changepack/pkg/backend/mirror"
	"github.com/arthur-debert/changepack/pkg/commands"
	"github.com/arthur-debert/changepack/pkg/config"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/testutil"
)

func TestRun(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.Backend.
		Add(100, testutil.ServerPath("a.txt"), "a v100").
		Edit(101, testutil.ServerPath("a.txt"), "a v101").
		Delete(102, testutil.ServerPath("b.txt"))
	cfg, err := config.Default()
	require.NoError(t, err)
	session := &commands.Session{Config: cfg, Root: env.Root, FS: env.FS, Backend: env.Backend}

	dir := filepath.Join(env.OutputDir, "mirror")
	result, err := Run(context.Background(), Options{Session: session, Spec: "100~102", Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Changesets)
	assert.Equal(t, 2, result.Files)
	status, _ := result.Status()
	assert.Equal(t, "Exported 3 changesets (2 files) to "+dir, status)

	// the mirror serves the same history and content
	m, err := mirror.Open(env.FS, dir)
	require.NoError(t, err)
	offline := backend.Bind(m, env.Workspace)
	cs, err := offline.GetChangeset(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, cs.Changes, 1)
	rc, err := offline.Download(context.Background(), cs.Changes[0].Item)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a v101", string(data))
}

func TestRun_Errors(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	cfg, err := config.Default()
	require.NoError(t, err)
	session := &commands.Session{Config: cfg, Root: env.Root, FS: env.FS, Backend: env.Backend}

	_, err = Run(context.Background(), Options{Session: session, Spec: "x", Dir: "/tmp/m"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidSpec))

	_, err = Run(context.Background(), Options{Session: session, Spec: "100"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = Run(context.Background(), Options{Session: session, Spec: "100", Dir: "/work/m"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}
