package gamify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/orbit-planner/internal/model"
)

func TestCatalogKeysAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range Catalog {
		assert.False(t, seen[def.Key], "duplicate key %s", def.Key)
		assert.NotEmpty(t, def.Label)
		assert.NotNil(t, def.Predicate)
		seen[def.Key] = true
	}
}

func TestFirstCompletionUnlocksFirstMission(t *testing.T) {
	task := activeTask("t1", 1, day1)
	res := Complete(model.GamificationState{}, []model.Task{task}, task, day1)

	assert.Equal(t, []string{"first_mission"}, res.NewAchievements)
	assert.True(t, res.State.HasAchievement("first_mission"))
}

func TestUnlockedAchievementIsNotReturnedAgain(t *testing.T) {
	t1 := activeTask("t1", 1, day1)
	res := Complete(model.GamificationState{}, []model.Task{t1}, t1, day1)
	require.Contains(t, res.NewAchievements, "first_mission")

	t2 := activeTask("t2", 1, day1)
	res = Complete(res.State, []model.Task{res.Tasks[0], t2}, t2, day1)
	assert.NotContains(t, res.NewAchievements, "first_mission")
}

func TestSimultaneousUnlocksQueueInCatalogOrder(t *testing.T) {
	// Five max-urgency tasks completed at once: first_mission, task_5,
	// and daily_5 all become true in the same event.
	var tasks []model.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, activeTask(fmt.Sprintf("t%d", i), 5, day1))
	}
	res := CompleteBatch(model.GamificationState{}, tasks, tasks, day1)

	assert.Equal(t, []string{"first_mission", "task_5", "daily_5"}, res.NewAchievements)
}

func TestStreakAchievementUnlocks(t *testing.T) {
	state := model.GamificationState{}
	var all []model.Task
	var unlocked []string

	for i := 0; i < 3; i++ {
		day := day1.AddDate(0, 0, i)
		task := activeTask(fmt.Sprintf("t%d", i), 1, day)
		all = append(all, task)
		res := Complete(state, all, task, day)
		state = res.State
		all[len(all)-1] = res.Tasks[0]
		unlocked = append(unlocked, res.NewAchievements...)
	}

	assert.Contains(t, unlocked, "streak_3")
	assert.NotContains(t, unlocked, "streak_7")
}

func TestAchievementsAreAppendOnly(t *testing.T) {
	t1 := activeTask("t1", 1, day1)
	res := Complete(model.GamificationState{}, []model.Task{t1}, t1, day1)
	before := len(res.State.Achievements)

	// A recall removes no achievements.
	recalled := Recall(res.State, res.Tasks[0])
	assert.Len(t, recalled.State.Achievements, before)
}

func TestCatalogByKey(t *testing.T) {
	def, ok := CatalogByKey("streak_7")
	require.True(t, ok)
	assert.Equal(t, "Solar Week", def.Label)

	_, ok = CatalogByKey("unknown_key")
	assert.False(t, ok)
}

func TestCompletedTodayCountsByLastCompletedDay(t *testing.T) {
	yesterday := day1.AddDate(0, 0, -1)
	old := activeTask("t0", 1, yesterday)
	old.Status = model.TaskStatusCompleted
	old.XPAwarded = true

	state := model.GamificationState{LastCompletedDate: "2026-03-09"}
	today := activeTask("t1", 1, day1)
	today.Status = model.TaskStatusCompleted

	stats := collectStats(state, []model.Task{old, today})
	assert.Equal(t, 2, stats.CompletedTotal)
	assert.Equal(t, 1, stats.CompletedToday)
}
