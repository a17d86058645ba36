package gamify

import (
	"github.com/nhle/orbit-planner/internal/clock"
	"github.com/nhle/orbit-planner/internal/model"
)

// Stats is the snapshot of progression state fed to achievement
// predicates after an event's XP and streak changes have been applied.
type Stats struct {
	XP             int
	Level          int
	Streak         int
	CompletedTotal int
	CompletedToday int
	UrgentDone     int // completed tasks with max urgency
}

// Achievement defines a single unlockable milestone. Keys are stable
// because clients persist them.
type Achievement struct {
	Key         string
	Icon        string
	Label       string
	Description string
	Predicate   func(Stats) bool
}

// Catalog is the canonical ordered list of achievements. Evaluation and
// unlock order follow this slice, so newly-satisfied milestones queue
// for display deterministically.
var Catalog = []Achievement{
	{
		Key:         "first_mission",
		Icon:        "🚀",
		Label:       "Liftoff",
		Description: "Complete your first task",
		Predicate:   func(s Stats) bool { return s.CompletedTotal >= 1 },
	},
	{
		Key:         "task_5",
		Icon:        "🛰️",
		Label:       "In Orbit",
		Description: "Complete 5 tasks",
		Predicate:   func(s Stats) bool { return s.CompletedTotal >= 5 },
	},
	{
		Key:         "task_25",
		Icon:        "🌌",
		Label:       "Deep Space",
		Description: "Complete 25 tasks",
		Predicate:   func(s Stats) bool { return s.CompletedTotal >= 25 },
	},
	{
		Key:         "level_5",
		Icon:        "⭐",
		Label:       "Commander",
		Description: "Reach level 5",
		Predicate:   func(s Stats) bool { return s.Level >= 5 },
	},
	{
		Key:         "streak_3",
		Icon:        "🔥",
		Label:       "Ignition",
		Description: "Keep a 3-day completion streak",
		Predicate:   func(s Stats) bool { return s.Streak >= 3 },
	},
	{
		Key:         "streak_7",
		Icon:        "☀️",
		Label:       "Solar Week",
		Description: "Keep a 7-day completion streak",
		Predicate:   func(s Stats) bool { return s.Streak >= 7 },
	},
	{
		Key:         "daily_5",
		Icon:        "🌠",
		Label:       "Meteor Shower",
		Description: "Complete 5 tasks in a single day",
		Predicate:   func(s Stats) bool { return s.CompletedToday >= 5 },
	},
	{
		Key:         "urgent_10",
		Icon:        "🧯",
		Label:       "Firefighter",
		Description: "Complete 10 maximum-urgency tasks",
		Predicate:   func(s Stats) bool { return s.UrgentDone >= 10 },
	},
}

// CatalogByKey returns the definition for key, or false when the key is
// unknown (e.g. hydrated from a newer client).
func CatalogByKey(key string) (Achievement, bool) {
	for _, def := range Catalog {
		if def.Key == key {
			return def, true
		}
	}
	return Achievement{}, false
}

// collectStats derives predicate inputs from the post-event state and
// task list. "Today" is the state's last completed day, which is the
// day the triggering event was bucketed into.
func collectStats(state model.GamificationState, tasks []model.Task) Stats {
	stats := Stats{
		XP:     state.XP,
		Level:  state.Level(),
		Streak: state.Streak,
	}
	for _, t := range tasks {
		if !t.Completed() {
			continue
		}
		stats.CompletedTotal++
		if t.Urgency >= model.UrgencyMax {
			stats.UrgentDone++
		}
		if clock.DayString(t.Deadline) == state.LastCompletedDate {
			stats.CompletedToday++
		}
	}
	return stats
}
