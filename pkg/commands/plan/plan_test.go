package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/changepack/pkg/commands"
	"github.com/arthur-debert/changepack/pkg/config"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/testutil"
)

func newSession(t *testing.T, env *testutil.TestEnvironment) *commands.Session {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Workspace.ServerRoot = testutil.ServerRoot
	return &commands.Session{Config: cfg, Root: env.Root, FS: env.FS, Backend: env.Backend}
}

func setupScenario(env *testutil.TestEnvironment) {
	env.Backend.
		Add(100, testutil.ServerPath("a.txt"), "a v100").
		Edit(101, testutil.ServerPath("a.txt"), "a v101").
		Delete(102, testutil.ServerPath("b.txt"))
	env.WriteRoot("a.txt", "a v101")
	env.WriteBackup("a.txt", "a live")
	env.WriteBackup("b.txt", "b live")
}

func TestRun(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	setupScenario(env)

	result, err := Run(context.Background(), Options{
		Session:   newSession(t, env),
		Spec:      "100~102",
		BackupDir: env.BackupDir,
	})
	require.NoError(t, err)

	assert.Equal(t, "100~102", result.Name)
	assert.Equal(t, []int{102, 101, 100}, result.Changesets)
	assert.Equal(t, []Entry{{Name: "a.txt", ServerPath: testutil.ServerPath("a.txt"), Changeset: 101}}, result.Deploy)
	require.Len(t, result.Backup, 2)
	assert.Equal(t, "b.txt", result.Backup[0].Name)
	assert.Equal(t, "a.txt", result.Backup[1].Name)
	require.Len(t, result.Plan.Deletions, 1)
	assert.Equal(t, "b.txt", result.Plan.Deletions[0].Name)

	status, ok := result.Status()
	assert.True(t, ok)
	assert.Equal(t, "Plan 100~102: 1 to deploy, 2 to back up, 1 to delete", status)

	md := result.Markdown()
	assert.Contains(t, md, "# Plan 100~102")
	assert.Contains(t, md, "| `a.txt` | 101 |")
	assert.Contains(t, md, "## Backup from `"+env.BackupDir+"`")
	assert.Contains(t, md, "| `b.txt` | 102 |")
	assert.Contains(t, md, "## Skipped")
}

func TestRun_NoBackup(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	setupScenario(env)

	result, err := Run(context.Background(), Options{Session: newSession(t, env), Spec: "101, 100"})
	require.NoError(t, err)

	assert.Equal(t, "101_100", result.Name)
	assert.Empty(t, result.Backup)
	status, _ := result.Status()
	assert.Equal(t, "Plan 101_100: 1 to deploy, 0 to delete", status)
	assert.NotContains(t, result.Markdown(), "## Backup")
	assert.Equal(t, []int{101, 100}, env.Backend.GetChangesetCalls)
}

func TestRun_Exclude(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.Backend.
		Add(100, testutil.ServerPath("a.txt"), "a").
		Add(100, testutil.ServerPath("Web.config"), "cfg")
	session := newSession(t, env)
	session.Config.Packaging.ExcludeGlobs = []string{"**/*.config"}

	result, err := Run(context.Background(), Options{Session: session, Spec: "100", Exclude: []string{"a.txt"}})
	require.NoError(t, err)
	assert.Empty(t, result.Deploy)
	assert.Equal(t, 2, result.Plan.Summary["deploy"].Skipped)
}

func TestRun_Errors(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	session := newSession(t, env)

	_, err := Run(context.Background(), Options{Session: session, Spec: "abc"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidSpec))
	assert.Empty(t, env.Backend.GetChangesetCalls)

	_, err = Run(context.Background(), Options{Session: session, Spec: "404"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.Equal(t, "resolve", errors.GetErrorDetails(err)["stage"])
}
