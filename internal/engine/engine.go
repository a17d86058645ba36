// Package engine owns the canonical task collection and gamification
// state as a single consistent aggregate. Every mutation is atomic:
// task fields, XP, streak, and achievements commit together or not at
// all, and every operation returns a fully-updated snapshot.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/orbit-planner/internal/clock"
	"github.com/nhle/orbit-planner/internal/gamify"
	"github.com/nhle/orbit-planner/internal/model"
)

// ErrNotFound is returned by operations that require an existing task id
// and treat absence as a caller error rather than a no-op.
var ErrNotFound = errors.New("task not found")

// ErrEmptyTitle rejects task creation and title updates with a blank title
// before any state change happens.
var ErrEmptyTitle = errors.New("task title must not be empty")

// Engine is the authoritative in-memory aggregate. All mutations
// serialize through its mutex; listeners are notified after commit,
// outside the lock, and must never block or call back into the engine.
type Engine struct {
	mu     sync.Mutex
	tasks  []model.Task
	gam    model.GamificationState
	clock  clock.Clock
	logger *slog.Logger

	listeners []Listener
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithClock overrides the time source (used by tests).
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:  clock.RealClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers a post-commit listener. Not safe to call
// concurrently with mutations; wire listeners during session setup.
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

// AddTask creates a task from fields, assigns a fresh id, and appends it.
// Defaults: urgency 1, default color, active, XP not yet awarded.
func (e *Engine) AddTask(fields model.TaskFields) (model.Task, model.Snapshot, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return model.Task{}, model.Snapshot{}, ErrEmptyTitle
	}

	urgency := fields.Urgency
	if urgency == 0 {
		urgency = model.UrgencyMin
	}
	color := fields.Color
	if color == "" {
		color = model.DefaultColor
	}

	task := model.Task{
		ID:          uuid.New().String(),
		Title:       fields.Title,
		Description: fields.Description,
		Deadline:    fields.Deadline,
		Urgency:     model.ClampUrgency(urgency),
		Status:      model.TaskStatusActive,
		Color:       color,
		XPAwarded:   false,
		CreatedAt:   e.clock.Now(),
	}

	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	snap := e.snapshotLocked(nil)
	e.mu.Unlock()

	e.logger.Debug("task added", "id", task.ID, "title", task.Title)
	e.notify(func(l Listener) { l.TaskUpserted(task) })
	return task, snap, nil
}

// UpdateTask merges patch into the task with the given id. Gamification
// state is never touched by an edit.
func (e *Engine) UpdateTask(id string, patch model.TaskPatch) (model.Task, model.Snapshot, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Task{}, model.Snapshot{}, ErrEmptyTitle
	}

	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return model.Task{}, model.Snapshot{}, fmt.Errorf("updating task %s: %w", id, ErrNotFound)
	}

	t := e.tasks[idx]
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Deadline != nil {
		t.Deadline = *patch.Deadline
	}
	if patch.Urgency != nil {
		t.Urgency = model.ClampUrgency(*patch.Urgency)
	}
	if patch.Color != nil {
		t.Color = *patch.Color
	}
	e.tasks[idx] = t
	snap := e.snapshotLocked(nil)
	e.mu.Unlock()

	e.notify(func(l Listener) { l.TaskUpserted(t) })
	return t, snap, nil
}

// CompleteTask marks the task completed and applies the gamification
// side effects in the same commit. Absent or already-completed ids are
// successful no-ops.
func (e *Engine) CompleteTask(id string) (model.Snapshot, error) {
	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 || e.tasks[idx].Completed() {
		snap := e.snapshotLocked(nil)
		e.mu.Unlock()
		return snap, nil
	}

	res := gamify.Complete(e.gam, e.tasks, e.tasks[idx], e.clock.Now())
	e.tasks[idx] = res.Tasks[0]
	e.gam = res.State
	task := e.tasks[idx]
	snap := e.snapshotLocked(res.NewAchievements)
	e.mu.Unlock()

	e.logger.Debug("task completed",
		"id", task.ID, "awarded_xp", res.AwardedXP, "xp", snap.XP, "streak", snap.Streak)
	e.notify(func(l Listener) { l.TaskUpserted(task) })
	return snap, nil
}

// RecallTask reverts a completed task to active. The XP award is sunk:
// neither the total nor the XPAwarded flag changes, so re-completion
// earns nothing. Recalling an active or absent task is a no-op.
func (e *Engine) RecallTask(id string) (model.Snapshot, error) {
	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 || !e.tasks[idx].Completed() {
		snap := e.snapshotLocked(nil)
		e.mu.Unlock()
		return snap, nil
	}

	res := gamify.Recall(e.gam, e.tasks[idx])
	e.tasks[idx] = res.Tasks[0]
	e.gam = res.State
	task := e.tasks[idx]
	snap := e.snapshotLocked(nil)
	e.mu.Unlock()

	e.notify(func(l Listener) { l.TaskUpserted(task) })
	return snap, nil
}

// DeleteTasksByDate removes every task whose deadline falls on the same
// calendar day as date, regardless of status. Irreversible; no
// tombstones are kept.
func (e *Engine) DeleteTasksByDate(day time.Time) (model.Snapshot, error) {
	e.mu.Lock()
	var kept []model.Task
	var removed []model.Task
	for _, t := range e.tasks {
		if clock.SameDay(t.Deadline, day) {
			removed = append(removed, t)
		} else {
			kept = append(kept, t)
		}
	}
	e.tasks = kept
	snap := e.snapshotLocked(nil)
	e.mu.Unlock()

	if len(removed) > 0 {
		e.logger.Debug("tasks deleted by date", "day", clock.DayString(day), "count", len(removed))
		e.notify(func(l Listener) { l.TasksDeleted(removed) })
	}
	return snap, nil
}

// SetAllStatus bulk-completes or bulk-recalls every task due on day's
// calendar date. Bulk completion awards exactly the sum of the
// individual awards and advances the streak at most once, bucketed by
// the target date rather than the wall clock.
func (e *Engine) SetAllStatus(day time.Time, status string) (model.Snapshot, error) {
	if status != model.TaskStatusActive && status != model.TaskStatusCompleted {
		return model.Snapshot{}, fmt.Errorf("setting bulk status: unknown status %q", status)
	}

	e.mu.Lock()
	var batch []model.Task
	for _, t := range e.tasks {
		if clock.SameDay(t.Deadline, day) {
			batch = append(batch, t)
		}
	}
	if len(batch) == 0 {
		snap := e.snapshotLocked(nil)
		e.mu.Unlock()
		return snap, nil
	}

	var changed []model.Task
	var newAch []string
	if status == model.TaskStatusCompleted {
		res := gamify.CompleteBatch(e.gam, e.tasks, batch, day)
		e.gam = res.State
		newAch = res.NewAchievements
		changed = res.Tasks
	} else {
		for _, t := range batch {
			res := gamify.Recall(e.gam, t)
			e.gam = res.State
			changed = append(changed, res.Tasks[0])
		}
	}
	for _, t := range changed {
		if idx := e.indexLocked(t.ID); idx >= 0 {
			e.tasks[idx] = t
		}
	}
	snap := e.snapshotLocked(newAch)
	e.mu.Unlock()

	e.notify(func(l Listener) {
		for _, t := range changed {
			l.TaskUpserted(t)
		}
	})
	return snap, nil
}

// ReplaceAll swaps the entire local collection wholesale. Used once per
// session when hydration from the remote store succeeds; demo and
// placeholder tasks do not survive it.
func (e *Engine) ReplaceAll(tasks []model.Task) (model.Snapshot, error) {
	replacement := make([]model.Task, len(tasks))
	copy(replacement, tasks)

	e.mu.Lock()
	e.tasks = replacement
	snap := e.snapshotLocked(nil)
	e.mu.Unlock()

	e.logger.Debug("task collection replaced", "count", len(replacement))
	e.notify(func(l Listener) { l.TasksReplaced(replacement) })
	return snap, nil
}

// RestoreState seeds both tasks and gamification state, e.g. from the
// local snapshot cache at session start. It does not fire listeners.
func (e *Engine) RestoreState(tasks []model.Task, gam model.GamificationState) {
	e.mu.Lock()
	e.tasks = make([]model.Task, len(tasks))
	copy(e.tasks, tasks)
	e.gam = gam.Clone()
	e.mu.Unlock()
}

// Snapshot returns the current consistent view of the aggregate.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(nil)
}

// Task returns a copy of the task with the given id.
func (e *Engine) Task(id string) (model.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.indexLocked(id)
	if idx < 0 {
		return model.Task{}, fmt.Errorf("getting task %s: %w", id, ErrNotFound)
	}
	return e.tasks[idx], nil
}

// indexLocked returns the index of id in e.tasks, or -1.
func (e *Engine) indexLocked(id string) int {
	for i, t := range e.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// snapshotLocked builds a snapshot with copied slices so callers can
// hold it without racing later mutations.
func (e *Engine) snapshotLocked(newAchievements []string) model.Snapshot {
	tasks := make([]model.Task, len(e.tasks))
	copy(tasks, e.tasks)
	achievements := make([]string, len(e.gam.Achievements))
	copy(achievements, e.gam.Achievements)

	return model.Snapshot{
		Tasks:             tasks,
		XP:                e.gam.XP,
		Level:             e.gam.Level(),
		Streak:            e.gam.Streak,
		Achievements:      achievements,
		NewAchievements:   newAchievements,
		LastCompletedDate: e.gam.LastCompletedDate,
	}
}

// notify fans an event out to all listeners after a commit.
func (e *Engine) notify(fn func(Listener)) {
	for _, l := range e.listeners {
		fn(l)
	}
}
