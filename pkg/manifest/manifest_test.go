package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/changepack/pkg/archive"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/reconcile"
	"github.com/arthur-debert/changepack/pkg/verify"
)

func samplePlan() *reconcile.Plan {
	return &reconcile.Plan{
		Changesets: []int{102, 101},
		Deletions: []reconcile.Deletion{
			{Name: "old/b.txt", ServerPath: "$/Shop/Main/old/b.txt", Changeset: 102},
		},
		Summary: map[reconcile.Pass]reconcile.PassCount{
			reconcile.PassDeploy: {Included: 1, Skipped: 2},
		},
	}
}

func TestNew(t *testing.T) {
	m := New("run-1", "101,102", "102_101", samplePlan())

	assert.Equal(t, Version, m.Version)
	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, []int{102, 101}, m.Changesets)
	assert.Len(t, m.Deletions, 1)
	assert.Equal(t, 1, m.Summary[reconcile.PassDeploy].Included)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestRenderParse(t *testing.T) {
	m := New("run-1", "101,102", "102_101", samplePlan())
	m.Deploy = FromSummary(&archive.Summary{
		Path:  "/out/102_101.zip",
		Bytes: 120,
		Entries: []archive.EntrySummary{
			{Name: "a.txt", ServerPath: "$/Shop/Main/a.txt", Changeset: 101, Size: 3, MD5: "abc"},
		},
	})
	m.Verification = &verify.Result{Archive: "/out/102_101_rollback.zip", Dir: "/live", OK: true, Checked: 1}

	data, err := Render(m)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "run_id: run-1")
	assert.Contains(t, text, "server_path: $/Shop/Main/a.txt")
	assert.Contains(t, text, "deploy:\n    included: 1")
	assert.NotContains(t, text, "backup:\n  path")

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, parsed.RunID)
	assert.Equal(t, m.Changesets, parsed.Changesets)
	assert.Equal(t, m.Deploy, parsed.Deploy)
	assert.Nil(t, parsed.Backup)
	assert.Equal(t, m.Deletions, parsed.Deletions)
	assert.True(t, parsed.Verification.OK)
	assert.True(t, m.CreatedAt.Equal(parsed.CreatedAt))
}

func TestFromSummary_Nil(t *testing.T) {
	assert.Nil(t, FromSummary(nil))
}

func TestParse_Invalid(t *testing.T) {
	for name, input := range map[string]string{
		"not yaml":   "run_id: [",
		"no run id":  "spec: \"100\"\n",
		"wrong type": "changesets: nope\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
		})
	}
}
