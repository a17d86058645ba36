// Package notify schedules one-shot local reminders a fixed lead time
// before each active task's deadline. The scheduler holds at most one
// pending timer per task id; any mutation that changes or removes a
// task cancels its existing handle before arming a new one.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/orbit-planner/internal/clock"
	"github.com/nhle/orbit-planner/internal/model"
)

// DefaultLeadTime is how long before a deadline the reminder fires.
const DefaultLeadTime = 15 * time.Minute

// Notifier receives fired reminders. Implementations surface them as
// platform alerts; failures are theirs to swallow.
type Notifier interface {
	Alert(taskID, title string, deadline time.Time)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(taskID, title string, deadline time.Time)

func (f NotifierFunc) Alert(taskID, title string, deadline time.Time) {
	f(taskID, title, deadline)
}

// Scheduler maintains the pending reminder timers. When permission is
// not granted it silently arms nothing; that is a no-op branch, not an
// error.
type Scheduler struct {
	notifier  Notifier
	leadTime  time.Duration
	clock     clock.Clock
	logger    *slog.Logger
	permitted bool

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLeadTime overrides the reminder lead time.
func WithLeadTime(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.leadTime = d
		}
	}
}

// WithClock overrides the time source (used by tests).
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithPermission sets whether notification permission is granted.
// Denied permission disables all scheduling.
func WithPermission(granted bool) Option {
	return func(s *Scheduler) { s.permitted = granted }
}

// New creates a Scheduler delivering alerts to notifier.
func New(notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		notifier:  notifier,
		leadTime:  DefaultLeadTime,
		clock:     clock.RealClock{},
		logger:    slog.Default(),
		permitted: true,
		timers:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleForTask cancels any existing timer for id and arms a new
// one-shot timer at deadline minus the lead time. Nothing is armed when
// the fire time is already past or permission is denied.
func (s *Scheduler) ScheduleForTask(id, title string, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(id)

	if !s.permitted {
		return
	}

	fireIn := deadline.Add(-s.leadTime).Sub(s.clock.Now())
	if fireIn <= 0 {
		return
	}

	s.timers[id] = time.AfterFunc(fireIn, func() {
		s.fire(id, title, deadline)
	})
	s.logger.Debug("reminder armed", "id", id, "fire_in", fireIn)
}

// CancelForTask cancels and removes the pending timer if present.
func (s *Scheduler) CancelForTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(id)
}

// RescheduleAll resynchronizes the timer set with the given tasks in
// one pass: every timer without a matching active, future-deadline task
// is cancelled, and each qualifying task is (re)armed. Used after bulk
// state changes such as hydration or bulk completion.
func (s *Scheduler) RescheduleAll(tasks []model.Task) {
	wanted := make(map[string]model.Task)
	now := s.clock.Now()
	for _, t := range tasks {
		if t.Status == model.TaskStatusActive && t.Deadline.After(now) {
			wanted[t.ID] = t
		}
	}

	s.mu.Lock()
	for id := range s.timers {
		if _, ok := wanted[id]; !ok {
			s.cancelLocked(id)
		}
	}
	s.mu.Unlock()

	for _, t := range wanted {
		s.ScheduleForTask(t.ID, t.Title, t.Deadline)
	}
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close cancels every pending timer. Called at session teardown.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.timers {
		s.cancelLocked(id)
	}
}

// fire delivers the alert and removes the spent handle.
func (s *Scheduler) fire(id, title string, deadline time.Time) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	s.logger.Info("reminder fired", "id", id, "title", title)
	s.notifier.Alert(id, title, deadline)
}

// cancelLocked stops and removes the timer for id if present.
// Callers hold s.mu.
func (s *Scheduler) cancelLocked(id string) {
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
}
