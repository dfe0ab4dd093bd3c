package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRuns(t *testing.T, s *Store, base time.Time, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for i, id := range ids {
		s.now = func() time.Time { return base.Add(time.Duration(i) * 24 * time.Hour) }
		require.NoError(t, s.CreateRun(ctx, Run{ID: id, Platform: "p", Input: "i", OutputDir: "o", Total: 1}))
		require.NoError(t, s.StartTask(ctx, id, "lab1_task1", "o/lab1_task1"))
		require.NoError(t, s.FinishTask(ctx, id, "lab1_task1", nil))
		require.NoError(t, s.FinishRun(ctx, id, StatusOK, 0))
	}
}

func TestPruneRuns_KeepLast(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedRuns(t, s, base, "r1", "r2", "r3", "r4")

	res, err := s.PruneRuns(ctx, RetentionPolicy{KeepLast: 2}, true)
	require.NoError(t, err)
	assert.Equal(t, PruneResult{Considered: 4, Kept: 2, Deleted: 2}, res)
	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	res, err = s.PruneRuns(ctx, RetentionPolicy{KeepLast: 2}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)

	all, err = s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r4", all[0].ID)
	assert.Equal(t, "r3", all[1].ID)

	tasks, err := s.ListTasks(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPruneRuns_KeepDaysAndRunning(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedRuns(t, s, base, "old", "mid", "new")

	s.now = func() time.Time { return base }
	require.NoError(t, s.CreateRun(ctx, Run{ID: "stuck", Platform: "p", Input: "i", OutputDir: "o"}))

	s.now = func() time.Time { return base.Add(60 * time.Hour) }
	res, err := s.PruneRuns(ctx, RetentionPolicy{KeepDays: 2}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	_, err = s.GetRun(ctx, "old")
	require.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.GetRun(ctx, "stuck")
	require.NoError(t, err)
}

func TestPruneRuns_NoPolicyIsNoop(t *testing.T) {
	s := openStore(t)
	seedRuns(t, s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "r1")

	res, err := s.PruneRuns(context.Background(), RetentionPolicy{}, false)
	require.NoError(t, err)
	assert.Zero(t, res)
}
