package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/orbit-planner/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "orbit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot() model.Snapshot {
	deadline := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	return model.Snapshot{
		Tasks: []model.Task{
			{
				ID:        "t1",
				Title:     "write report",
				Deadline:  deadline,
				Urgency:   4,
				Status:    model.TaskStatusActive,
				Color:     model.DefaultColor,
				CreatedAt: deadline.Add(-48 * time.Hour),
			},
			{
				ID:        "t2",
				Title:     "ship release",
				Deadline:  deadline.AddDate(0, 0, 1),
				Urgency:   5,
				Status:    model.TaskStatusCompleted,
				Color:     "#aa3355",
				XPAwarded: true,
				CreatedAt: deadline.Add(-24 * time.Hour),
			},
		},
		XP:                520,
		Level:             2,
		Streak:            3,
		Achievements:      []string{"first_mission", "streak_3"},
		LastCompletedDate: "2026-03-08",
	}
}

func TestSaveAndLoadSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot()))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)

	require.Len(t, loaded.Tasks, 2)
	assert.Equal(t, "t1", loaded.Tasks[0].ID)
	assert.Equal(t, "write report", loaded.Tasks[0].Title)
	assert.False(t, loaded.Tasks[0].XPAwarded)
	assert.True(t, loaded.Tasks[1].XPAwarded)
	assert.Equal(t, model.TaskStatusCompleted, loaded.Tasks[1].Status)

	assert.Equal(t, 520, loaded.XP)
	assert.Equal(t, 2, loaded.Level)
	assert.Equal(t, 3, loaded.Streak)
	assert.Equal(t, []string{"first_mission", "streak_3"}, loaded.Achievements)
	assert.Equal(t, "2026-03-08", loaded.LastCompletedDate)
}

func TestSaveSnapshotReplacesWholesale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot()))

	smaller := model.Snapshot{
		Tasks:        []model.Task{{ID: "t3", Title: "only one", Deadline: time.Now().UTC(), Urgency: 1, Status: model.TaskStatusActive, CreatedAt: time.Now().UTC()}},
		XP:           600,
		Streak:       1,
		Achievements: []string{"first_mission"},
	}
	require.NoError(t, s.SaveSnapshot(ctx, smaller))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Tasks, 1)
	assert.Equal(t, "t3", loaded.Tasks[0].ID)
	assert.Equal(t, 600, loaded.XP)
	assert.Equal(t, []string{"first_mission"}, loaded.Achievements)
}

func TestLoadSnapshotFromEmptyCache(t *testing.T) {
	s := newTestStore(t)

	loaded, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)

	assert.Empty(t, loaded.Tasks)
	assert.Equal(t, 0, loaded.XP)
	assert.Equal(t, 1, loaded.Level)
	assert.Empty(t, loaded.Achievements)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orbit.db")

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.SaveSnapshot(context.Background(), sampleSnapshot()))
	require.NoError(t, s1.Close())

	// Reopening runs migrations again; existing data survives.
	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	loaded, err := s2.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded.Tasks, 2)
}
