package changeset

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/testutil"
	"github.com/arthur-debert/changepack/pkg/types"
)

func newBackend(t *testing.T) *testutil.FakeBackend {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	return env.Backend.
		Add(100, testutil.ServerPath("a.txt"), "v100").
		Edit(101, testutil.ServerPath("a.txt"), "v101").
		Delete(102, testutil.ServerPath("b.txt")).
		Add(103, "$/Other/c.txt", "other")
}

func ids(changesets []*types.Changeset) []int {
	out := make([]int, len(changesets))
	for i, cs := range changesets {
		out[i] = cs.ID
	}
	return out
}

func TestResolve_ListIsDescending(t *testing.T) {
	backend := newBackend(t)

	got, err := Resolve(context.Background(), backend, testutil.ServerRoot, List(100, 102, 101))
	require.NoError(t, err)
	assert.Equal(t, []int{102, 101, 100}, ids(got))
	assert.Equal(t, []int{100, 102, 101}, backend.GetChangesetCalls)
	assert.Zero(t, backend.HistoryCalls)
}

func TestResolve_ListKeepsDuplicates(t *testing.T) {
	backend := newBackend(t)

	got, err := Resolve(context.Background(), backend, testutil.ServerRoot, List(101, 100, 101))
	require.NoError(t, err)
	assert.Equal(t, []int{101, 101, 100}, ids(got))
}

func TestResolve_Single(t *testing.T) {
	backend := newBackend(t)

	got, err := Resolve(context.Background(), backend, testutil.ServerRoot, Single(101))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 101, got[0].ID)
	require.Len(t, got[0].Changes, 1)
	assert.True(t, got[0].Changes[0].Type.Has(types.ChangeEdit))
}

func TestResolve_RangeUsesHistory(t *testing.T) {
	backend := newBackend(t)

	got, err := Resolve(context.Background(), backend, testutil.ServerRoot, Range(103, 100))
	require.NoError(t, err)
	// 103 only touches another folder
	assert.Equal(t, []int{102, 101, 100}, ids(got))
	assert.Equal(t, 1, backend.HistoryCalls)
	assert.Empty(t, backend.GetChangesetCalls)
}

func TestResolve_RangeKeepsBackendOrder(t *testing.T) {
	mock := &testutil.MockVersionControl{
		QueryHistoryFunc: func(ctx context.Context, serverPath string, fromID, toID int) ([]*types.Changeset, error) {
			assert.Equal(t, testutil.ServerRoot, serverPath)
			assert.Equal(t, 100, fromID)
			assert.Equal(t, 102, toID)
			return []*types.Changeset{{ID: 101}, {ID: 102}, {ID: 100}}, nil
		},
	}

	got, err := Resolve(context.Background(), mock, testutil.ServerRoot, Range(100, 102))
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102, 100}, ids(got))
}

func TestResolve_InvalidSpecMakesNoBackendCall(t *testing.T) {
	mock := &testutil.MockVersionControl{}

	for _, spec := range []Spec{
		{Kind: KindList},
		{Kind: KindSingle, IDs: []int{1, 2}},
		List(100, -1),
		Range(0, 10),
	} {
		_, err := Resolve(context.Background(), mock, testutil.ServerRoot, spec)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidSpec))
	}
}

func TestResolve_BackendErrors(t *testing.T) {
	t.Run("coded errors keep their code", func(t *testing.T) {
		backend := newBackend(t)
		_, err := Resolve(context.Background(), backend, testutil.ServerRoot, List(101, 999))
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})

	t.Run("plain errors mean the backend is unavailable", func(t *testing.T) {
		mock := &testutil.MockVersionControl{
			GetChangesetFunc: func(ctx context.Context, id int) (*types.Changeset, error) {
				return nil, fmt.Errorf("connection refused")
			},
		}
		_, err := Resolve(context.Background(), mock, testutil.ServerRoot, Single(1))
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrBackendUnavailable))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Resolve(ctx, newBackend(t), testutil.ServerRoot, List(100, 101))
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCanceled))
	})
}
