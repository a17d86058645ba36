package app

import (
	"time"

	"github.com/nhle/orbit-planner/internal/clock"
	"github.com/nhle/orbit-planner/internal/engine"
	"github.com/nhle/orbit-planner/internal/model"
)

// seedDemoTasks populates an empty session with placeholder tasks so
// there is something in orbit before the first hydration. They are
// ordinary tasks; a successful hydration replaces them wholesale.
func seedDemoTasks(e *engine.Engine, c clock.Clock) {
	now := c.Now()

	demos := []model.TaskFields{
		{
			Title:       "Plan the week",
			Description: "Sketch the next few days before they sketch you.",
			Deadline:    now.Add(26 * time.Hour),
			Urgency:     3,
			Color:       "#d79b2e",
		},
		{
			Title:    "Clear the inbox",
			Deadline: now.Add(50 * time.Hour),
			Urgency:  2,
		},
		{
			Title:       "Take a walk",
			Description: "Orbits are healthier with momentum.",
			Deadline:    now.Add(8 * time.Hour),
			Urgency:     1,
			Color:       "#5da271",
		},
	}

	for _, fields := range demos {
		// Seeding failures are not fatal; an empty scene still works.
		_, _, _ = e.AddTask(fields)
	}
}
