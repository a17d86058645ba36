// Package gamify computes XP awards, streak continuation, and
// achievement unlocks for task completion events. Everything here is
// pure: callers pass state in and commit the returned state themselves.
package gamify

import (
	"time"

	"github.com/nhle/orbit-planner/internal/clock"
	"github.com/nhle/orbit-planner/internal/model"
)

// XPPerUrgency is the XP multiplier per urgency point: a completed task
// awards Urgency * XPPerUrgency.
const XPPerUrgency = 20

// Award returns the XP a task grants on completion.
func Award(t model.Task) int {
	return model.ClampUrgency(t.Urgency) * XPPerUrgency
}

// Result is the outcome of applying a completion event.
type Result struct {
	// State is the updated gamification state to commit.
	State model.GamificationState

	// Tasks are the updated copies of the tasks the event touched,
	// with status and XPAwarded applied.
	Tasks []model.Task

	// NewAchievements lists keys unlocked by this event, in catalog
	// order, for sequential one-at-a-time display.
	NewAchievements []string

	// AwardedXP is the XP granted by this event (0 for no-ops).
	AwardedXP int
}

// Complete applies a single-task completion at time now.
//
// Completing an already-completed task is an idempotent no-op. XP is
// granted only when XPAwarded was false going in; the flag is never
// reset, so a recalled and re-completed task earns nothing twice.
func Complete(state model.GamificationState, all []model.Task, t model.Task, now time.Time) Result {
	if t.Completed() {
		return Result{State: state, Tasks: []model.Task{t}}
	}
	return CompleteBatch(state, all, []model.Task{t}, now)
}

// CompleteBatch applies a bulk completion of tasks sharing the calendar
// day of `day`. The XP total equals the sum of per-task awards over
// eligible tasks, and the streak advances at most once, bucketed by
// day's date rather than the wall clock. This keeps retroactive
// completion of a past date in that date's streak bucket.
func CompleteBatch(state model.GamificationState, all []model.Task, batch []model.Task, day time.Time) Result {
	next := state.Clone()

	res := Result{}
	completedOne := false
	for _, t := range batch {
		if !t.Completed() {
			completedOne = true
			if !t.XPAwarded {
				res.AwardedXP += Award(t)
				t.XPAwarded = true
			}
			t.Status = model.TaskStatusCompleted
		}
		res.Tasks = append(res.Tasks, t)
	}

	next.XP += res.AwardedXP

	// Streak advances once per distinct calendar day, not per task.
	if completedOne {
		dayKey := clock.DayString(day)
		if next.LastCompletedDate != dayKey {
			if clock.IsYesterday(next.LastCompletedDate, day) {
				next.Streak++
			} else {
				next.Streak = 1
			}
			next.LastCompletedDate = dayKey
		}
	}

	// Fold the updated tasks back into the full list the achievement
	// predicates see.
	updated := make(map[string]model.Task, len(res.Tasks))
	for _, t := range res.Tasks {
		updated[t.ID] = t
	}
	merged := make([]model.Task, len(all))
	for i, t := range all {
		if u, ok := updated[t.ID]; ok {
			merged[i] = u
		} else {
			merged[i] = t
		}
	}

	res.NewAchievements = evaluate(&next, merged)
	res.State = next
	return res
}

// Recall is the gamification side of reverting a completed task to
// active. The award is sunk: XP, streak, and XPAwarded all stay as they
// are. Recalling an active task is a no-op.
func Recall(state model.GamificationState, t model.Task) Result {
	if !t.Completed() {
		return Result{State: state, Tasks: []model.Task{t}}
	}
	t.Status = model.TaskStatusActive
	return Result{State: state, Tasks: []model.Task{t}}
}

// evaluate appends every newly-satisfied achievement to state and
// returns the new keys in catalog order.
func evaluate(state *model.GamificationState, tasks []model.Task) []string {
	stats := collectStats(*state, tasks)

	var unlocked []string
	for _, def := range Catalog {
		if state.HasAchievement(def.Key) {
			continue
		}
		if def.Predicate(stats) {
			state.Achievements = append(state.Achievements, def.Key)
			unlocked = append(unlocked, def.Key)
		}
	}
	return unlocked
}
