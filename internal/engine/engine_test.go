package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/orbit-planner/internal/clock"
	"github.com/nhle/orbit-planner/internal/model"
)

var testDay = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

func newTestEngine() (*Engine, *clock.FakeClock) {
	fake := clock.NewFakeClock(testDay)
	return New(WithClock(fake)), fake
}

func addTask(t *testing.T, e *Engine, title string, urgency int, deadline time.Time) model.Task {
	t.Helper()
	task, _, err := e.AddTask(model.TaskFields{
		Title:    title,
		Urgency:  urgency,
		Deadline: deadline,
	})
	require.NoError(t, err)
	return task
}

func TestAddTaskDefaults(t *testing.T) {
	e, _ := newTestEngine()

	task, snap, err := e.AddTask(model.TaskFields{Title: "X", Deadline: testDay})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, model.TaskStatusActive, task.Status)
	assert.Equal(t, model.UrgencyMin, task.Urgency)
	assert.Equal(t, model.DefaultColor, task.Color)
	assert.False(t, task.XPAwarded)
	assert.Equal(t, testDay, task.CreatedAt)
	assert.Len(t, snap.Tasks, 1)
}

func TestAddTaskRejectsEmptyTitle(t *testing.T) {
	e, _ := newTestEngine()

	_, _, err := e.AddTask(model.TaskFields{Title: "   "})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Empty(t, e.Snapshot().Tasks)
}

func TestUpdateTaskMergesFieldsOnly(t *testing.T) {
	e, _ := newTestEngine()
	task := addTask(t, e, "before", 2, testDay)

	title := "after"
	urgency := 4
	updated, snap, err := e.UpdateTask(task.ID, model.TaskPatch{Title: &title, Urgency: &urgency})
	require.NoError(t, err)

	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, 4, updated.Urgency)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)

	// Edits never touch gamification state.
	assert.Equal(t, 0, snap.XP)
	assert.Equal(t, 0, snap.Streak)
}

func TestUpdateTaskUnknownID(t *testing.T) {
	e, _ := newTestEngine()
	_, _, err := e.UpdateTask("nope", model.TaskPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteTaskAwardsXPOnce(t *testing.T) {
	e, _ := newTestEngine()
	task := addTask(t, e, "X", 3, testDay)

	snap, err := e.CompleteTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, snap.XP)
	assert.Equal(t, 1, snap.Level)

	// Second completion is a no-op.
	snap, err = e.CompleteTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, snap.XP)
	assert.Equal(t, 1, snap.Level)
}

func TestCompleteTaskUnknownIDIsNoop(t *testing.T) {
	e, _ := newTestEngine()
	addTask(t, e, "X", 3, testDay)

	snap, err := e.CompleteTask("missing")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.XP)
}

func TestRecallKeepsXP(t *testing.T) {
	e, _ := newTestEngine()
	task := addTask(t, e, "X", 5, testDay)

	_, err := e.CompleteTask(task.ID)
	require.NoError(t, err)

	snap, err := e.RecallTask(task.ID)
	require.NoError(t, err)

	recalled, err := e.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusActive, recalled.Status)
	assert.True(t, recalled.XPAwarded)
	assert.Equal(t, 100, snap.XP)

	// Re-completion after recall earns nothing more.
	snap, err = e.CompleteTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, snap.XP)
}

func TestFiveUrgentTasksReachLevelTwo(t *testing.T) {
	e, _ := newTestEngine()

	var snap model.Snapshot
	for i := 0; i < 5; i++ {
		task := addTask(t, e, fmt.Sprintf("X%d", i), 5, testDay)
		var err error
		snap, err = e.CompleteTask(task.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, 500, snap.XP)
	assert.Equal(t, 2, snap.Level)
	assert.Equal(t, 1, snap.Streak)
}

func TestStreakAcrossDays(t *testing.T) {
	e, fake := newTestEngine()

	t1 := addTask(t, e, "day1", 1, testDay)
	snap, err := e.CompleteTask(t1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Streak)

	fake.Advance(24 * time.Hour)
	t2 := addTask(t, e, "day2", 1, fake.Now())
	snap, err = e.CompleteTask(t2.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Streak)

	// Skip a day: streak resets to 1.
	fake.Advance(48 * time.Hour)
	t3 := addTask(t, e, "day4", 1, fake.Now())
	snap, err = e.CompleteTask(t3.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Streak)
}

func TestSetAllStatusCompletesInOneCommit(t *testing.T) {
	e, _ := newTestEngine()

	urgencies := []int{2, 3, 5}
	for i, u := range urgencies {
		addTask(t, e, fmt.Sprintf("X%d", i), u, testDay)
	}
	// A task on the next day must be untouched.
	other := addTask(t, e, "other", 5, testDay.AddDate(0, 0, 1))

	snap, err := e.SetAllStatus(testDay, model.TaskStatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, (2+3+5)*20, snap.XP)
	assert.Equal(t, 1, snap.Streak)

	untouched, err := e.Task(other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusActive, untouched.Status)
}

func TestSetAllStatusMatchesIndividualCompletions(t *testing.T) {
	bulk, _ := newTestEngine()
	oneByOne, _ := newTestEngine()

	urgencies := []int{1, 2, 3, 4, 5}
	var ids []string
	for i, u := range urgencies {
		addTask(t, bulk, fmt.Sprintf("X%d", i), u, testDay)
		task := addTask(t, oneByOne, fmt.Sprintf("X%d", i), u, testDay)
		ids = append(ids, task.ID)
	}

	bulkSnap, err := bulk.SetAllStatus(testDay, model.TaskStatusCompleted)
	require.NoError(t, err)

	var singleSnap model.Snapshot
	for _, id := range ids {
		singleSnap, err = oneByOne.CompleteTask(id)
		require.NoError(t, err)
	}

	assert.Equal(t, singleSnap.XP, bulkSnap.XP)
	assert.Equal(t, singleSnap.Streak, bulkSnap.Streak)
	assert.Equal(t, singleSnap.Level, bulkSnap.Level)
}

func TestSetAllStatusRecallsWithoutRevokingXP(t *testing.T) {
	e, _ := newTestEngine()
	addTask(t, e, "X", 5, testDay)
	addTask(t, e, "Y", 5, testDay)

	snap, err := e.SetAllStatus(testDay, model.TaskStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, 200, snap.XP)

	snap, err = e.SetAllStatus(testDay, model.TaskStatusActive)
	require.NoError(t, err)
	assert.Equal(t, 200, snap.XP)
	for _, task := range snap.Tasks {
		assert.Equal(t, model.TaskStatusActive, task.Status)
		assert.True(t, task.XPAwarded)
	}
}

func TestSetAllStatusRejectsUnknownStatus(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.SetAllStatus(testDay, "paused")
	assert.Error(t, err)
}

func TestDeleteTasksByDateRemovesOnlyThatDay(t *testing.T) {
	e, _ := newTestEngine()

	onDay := addTask(t, e, "on", 1, testDay)
	completed := addTask(t, e, "done", 1, testDay.Add(3*time.Hour))
	_, err := e.CompleteTask(completed.ID)
	require.NoError(t, err)
	dayBefore := addTask(t, e, "before", 1, testDay.AddDate(0, 0, -1))
	dayAfter := addTask(t, e, "after", 1, testDay.AddDate(0, 0, 1))

	snap, err := e.DeleteTasksByDate(testDay)
	require.NoError(t, err)

	require.Len(t, snap.Tasks, 2)
	_, err = e.Task(onDay.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.Task(completed.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.Task(dayBefore.ID)
	assert.NoError(t, err)
	_, err = e.Task(dayAfter.ID)
	assert.NoError(t, err)
}

func TestReplaceAllDropsDemoTasks(t *testing.T) {
	e, _ := newTestEngine()
	addTask(t, e, "demo 1", 1, testDay)
	addTask(t, e, "demo 2", 1, testDay)

	hydrated := []model.Task{
		{ID: "r1", Title: "remote 1", Status: model.TaskStatusActive},
		{ID: "r2", Title: "remote 2", Status: model.TaskStatusActive},
		{ID: "r3", Title: "remote 3", Status: model.TaskStatusCompleted, XPAwarded: true},
	}
	snap, err := e.ReplaceAll(hydrated)
	require.NoError(t, err)

	require.Len(t, snap.Tasks, 3)
	for i, task := range snap.Tasks {
		assert.Equal(t, hydrated[i].ID, task.ID)
	}
}

func TestListenersFireAfterCommit(t *testing.T) {
	e, _ := newTestEngine()

	var upserted []model.Task
	var deleted []model.Task
	var replaced int
	e.Subscribe(ListenerFuncs{
		Upserted: func(task model.Task) { upserted = append(upserted, task) },
		Deleted:  func(tasks []model.Task) { deleted = append(deleted, tasks...) },
		Replaced: func(tasks []model.Task) { replaced = len(tasks) },
	})

	task := addTask(t, e, "X", 2, testDay)
	require.Len(t, upserted, 1)
	assert.Equal(t, model.TaskStatusActive, upserted[0].Status)

	_, err := e.CompleteTask(task.ID)
	require.NoError(t, err)
	require.Len(t, upserted, 2)
	// The listener sees the committed, completed task.
	assert.Equal(t, model.TaskStatusCompleted, upserted[1].Status)
	assert.True(t, upserted[1].XPAwarded)

	_, err = e.DeleteTasksByDate(testDay)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, task.ID, deleted[0].ID)

	_, err = e.ReplaceAll([]model.Task{{ID: "r1", Title: "r"}})
	require.NoError(t, err)
	assert.Equal(t, 1, replaced)
}

func TestSnapshotExposesNewAchievementsOnce(t *testing.T) {
	e, _ := newTestEngine()
	task := addTask(t, e, "X", 1, testDay)

	snap, err := e.CompleteTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_mission"}, snap.NewAchievements)

	// A later read does not repeat the transient field.
	assert.Empty(t, e.Snapshot().NewAchievements)
	assert.Contains(t, e.Snapshot().Achievements, "first_mission")
}

func TestRestoreState(t *testing.T) {
	e, _ := newTestEngine()

	e.RestoreState(
		[]model.Task{{ID: "t1", Title: "restored", Status: model.TaskStatusCompleted, XPAwarded: true}},
		model.GamificationState{XP: 700, Streak: 3, Achievements: []string{"first_mission"}, LastCompletedDate: "2026-03-08"},
	)

	snap := e.Snapshot()
	assert.Len(t, snap.Tasks, 1)
	assert.Equal(t, 700, snap.XP)
	assert.Equal(t, 2, snap.Level)
	assert.Equal(t, 3, snap.Streak)
	assert.Equal(t, []string{"first_mission"}, snap.Achievements)
}
