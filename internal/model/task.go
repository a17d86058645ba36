package model

import "time"

// Task status constants.
const (
	TaskStatusActive    = "active"
	TaskStatusCompleted = "completed"
)

// Urgency bounds. Urgency multiplies the XP award on completion.
const (
	UrgencyMin = 1
	UrgencyMax = 5
)

// DefaultColor is assigned to tasks created without an explicit color.
const DefaultColor = "#4f8fba"

// Task is a schedulable unit of work owned by the local engine.
type Task struct {
	// ID is the locally-assigned unique identifier, stable for the
	// task's lifetime. It doubles as the remote upsert key.
	ID string `json:"id" db:"id"`

	// Title is the non-empty display string.
	Title string `json:"title" db:"title"`

	// Description is free-form presentation text with no invariant.
	Description string `json:"description" db:"description"`

	// Deadline drives reminder timing and the orbital placement
	// computed by presentation layers.
	Deadline time.Time `json:"deadline" db:"deadline"`

	// Urgency is an integer in [1,5]; the XP award on completion is
	// Urgency * gamify.XPPerUrgency.
	Urgency int `json:"urgency" db:"urgency"`

	// Status is either "active" or "completed". The forward transition
	// happens through completion; it is reversed only by explicit recall.
	Status string `json:"status" db:"status"`

	// Color is presentation-only.
	Color string `json:"color" db:"color"`

	// XPAwarded guards XP idempotence: once true, XP for this task has
	// been counted exactly once and is never granted again, even after a
	// recall and re-completion.
	XPAwarded bool `json:"xp_awarded" db:"xp_awarded"`

	// CreatedAt is the immutable creation timestamp.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Completed reports whether the task has been completed.
func (t Task) Completed() bool {
	return t.Status == TaskStatusCompleted
}

// ClampUrgency forces u into the valid [UrgencyMin, UrgencyMax] range.
func ClampUrgency(u int) int {
	if u < UrgencyMin {
		return UrgencyMin
	}
	if u > UrgencyMax {
		return UrgencyMax
	}
	return u
}

// TaskFields carries the caller-supplied fields for task creation.
// Zero values fall back to defaults (urgency 1, default color).
type TaskFields struct {
	Title       string
	Description string
	Deadline    time.Time
	Urgency     int
	Color       string
}

// TaskPatch is a partial update applied to an existing task. Nil fields
// are left unchanged. Patching never touches gamification state.
type TaskPatch struct {
	Title       *string
	Description *string
	Deadline    *time.Time
	Urgency     *int
	Color       *string
}
