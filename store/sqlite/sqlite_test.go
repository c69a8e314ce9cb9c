package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/smallnest/stepgraph/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SqliteRunStore {
	t.Helper()

	s, err := NewSqliteRunStore(SqliteOptions{
		Path: filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqliteRunStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "code_review_v1", map[string]any{"code": "x = 1", "iteration": 0})
	require.NoError(t, err)
	assert.Regexp(t, `^run_[0-9a-f-]{36}$`, id)

	run, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "code_review_v1", run.GraphID)
	assert.Equal(t, store.StatusCreated, run.Status)
	assert.Empty(t, run.Log)
	assert.Equal(t, "x = 1", run.State["code"])
	assert.Equal(t, float64(0), run.State["iteration"])

	err = s.Update(ctx, id, store.RunUpdate{
		State:  map[string]any{"issues": []string{"Line 1: TODO comment present"}},
		Log:    []store.LogEntry{{Step: 1, NodeID: "issues", DurationMs: 0.05, Summary: "issues=1"}},
		Status: store.StatusRunning,
	})
	require.NoError(t, err)

	run, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusRunning, run.Status)
	assert.Equal(t, []any{"Line 1: TODO comment present"}, run.State["issues"])
	assert.Equal(t, []store.LogEntry{{Step: 1, NodeID: "issues", DurationMs: 0.05, Summary: "issues=1"}}, run.Log)

	err = s.Update(ctx, id, store.RunUpdate{State: run.State, Log: run.Log, Status: store.StatusFailed, Error: "node issues: boom"})
	require.NoError(t, err)

	run, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
	assert.Equal(t, "node issues: boom", run.Error)
}

func TestSqliteRunStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "run_missing")
	assert.ErrorIs(t, err, store.ErrRunNotFound)

	err = s.Update(ctx, "run_missing", store.RunUpdate{Status: store.StatusRunning})
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestSqliteRunStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("run_%d", seq)
	}

	for _, graphID := range []string{"a", "b", "a"} {
		_, err := s.Create(ctx, graphID, nil)
		require.NoError(t, err)
	}
	require.NoError(t, s.Update(ctx, "run_3", store.RunUpdate{Status: store.StatusCompleted}))

	all, err := s.List(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"run_1", "run_2", "run_3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	onlyA, err := s.List(ctx, store.RunFilter{GraphID: "a"})
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	done, err := s.List(ctx, store.RunFilter{GraphID: "a", Status: store.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "run_3", done[0].ID)
}

func TestSqliteRunStore_InMemory(t *testing.T) {
	s, err := NewSqliteRunStore(SqliteOptions{Path: ":memory:"})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	id, err := s.Create(ctx, "g", nil)
	require.NoError(t, err)

	run, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
}
