package engine

import "github.com/nhle/orbit-planner/internal/model"

// Listener receives post-commit notifications from the engine. The
// sync gateway, notification scheduler, and snapshot cache subscribe to
// mirror the committed state. Implementations must return quickly and
// must never block on network I/O; detached side effects go through
// their own queues.
type Listener interface {
	// TaskUpserted fires after a task is created, edited, completed,
	// or recalled. The task carries its committed state.
	TaskUpserted(task model.Task)

	// TasksDeleted fires after tasks are removed from the collection.
	TasksDeleted(tasks []model.Task)

	// TasksReplaced fires after a wholesale hydration replace.
	TasksReplaced(tasks []model.Task)
}

// ListenerFuncs adapts plain functions to the Listener interface; nil
// fields are no-ops.
type ListenerFuncs struct {
	Upserted func(model.Task)
	Deleted  func([]model.Task)
	Replaced func([]model.Task)
}

func (l ListenerFuncs) TaskUpserted(task model.Task) {
	if l.Upserted != nil {
		l.Upserted(task)
	}
}

func (l ListenerFuncs) TasksDeleted(tasks []model.Task) {
	if l.Deleted != nil {
		l.Deleted(tasks)
	}
}

func (l ListenerFuncs) TasksReplaced(tasks []model.Task) {
	if l.Replaced != nil {
		l.Replaced(tasks)
	}
}
