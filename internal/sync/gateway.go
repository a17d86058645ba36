// Package sync pushes committed local mutations to the remote mission
// service and hydrates local state at session start. Network failures
// are logged and swallowed here; they never propagate back into the
// engine or roll back an already-applied local mutation.
package sync

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/nhle/orbit-planner/internal/model"
	"github.com/nhle/orbit-planner/internal/remote"
)

// State represents the current state of the gateway.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

// Status holds the gateway's observable sync state.
type Status struct {
	State    State
	LastSync time.Time
	Pending  int
	Error    error
}

// pushTimeout bounds a single push operation.
const pushTimeout = 30 * time.Second

// commandKind discriminates queued sync commands.
type commandKind int

const (
	cmdUpsert commandKind = iota
	cmdDelete
)

// command is one unit of work for the sync worker.
type command struct {
	kind  commandKind
	task  model.Task
	tasks []model.Task
}

// Service abstracts the remote client so tests can substitute a fake.
type Service interface {
	FetchMissions(ctx context.Context, userID string) ([]model.Task, error)
	UpsertMission(ctx context.Context, task model.Task, identity model.Identity) error
	DeleteMission(ctx context.Context, taskID string) error
}

// Gateway owns all network I/O for task persistence. Mutations enqueue
// commands on a buffered channel consumed by a single worker goroutine;
// enqueueing never blocks the mutation path. Delivery is at-most-once
// per command, relying on idempotent upserts keyed by task id, so a
// dropped or duplicated push is harmless.
type Gateway struct {
	svc      Service
	identity model.Identity
	logger   *slog.Logger

	cmdCh  chan command
	stopCh chan struct{}
	doneCh chan struct{}

	mu      gosync.Mutex
	status  Status
	running bool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithQueueSize overrides the command queue capacity.
func WithQueueSize(n int) Option {
	return func(g *Gateway) { g.cmdCh = make(chan command, n) }
}

// New creates a Gateway for the given remote service and identity.
func New(svc Service, identity model.Identity, opts ...Option) *Gateway {
	g := &Gateway{
		svc:      svc,
		identity: identity,
		logger:   slog.Default(),
		cmdCh:    make(chan command, 64),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start launches the worker goroutine. Safe to call once per session.
func (g *Gateway) Start() {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return
	}
	g.running = true
	g.mu.Unlock()

	go g.run()
}

// Stop drains queued commands and waits for the worker to exit.
// In-flight requests run to completion; nothing is cancelled mid-push.
func (g *Gateway) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	g.mu.Unlock()

	close(g.stopCh)
	<-g.doneCh
}

// Hydrate fetches the full remote task list for the session identity.
// On failure the caller keeps whatever local state it has; there is no
// automatic retry, the next user-driven mutation syncs normally.
func (g *Gateway) Hydrate(ctx context.Context) ([]model.Task, error) {
	if g.identity.Email == "" {
		return nil, remote.ErrMissingIdentity
	}

	tasks, err := g.svc.FetchMissions(ctx, g.identity.Email)
	if err != nil {
		g.setStatus(StateError, err)
		g.logger.Warn("hydration failed, keeping local state", "error", err)
		return nil, err
	}

	g.setStatus(StateIdle, nil)
	g.logger.Info("hydrated from remote", "count", len(tasks))
	return tasks, nil
}

// EnqueueUpsert queues a fire-and-forget push of the task's committed
// state. When the queue is full the command is dropped with a log line;
// a later mutation of the same task will push the newer state anyway.
func (g *Gateway) EnqueueUpsert(task model.Task) {
	select {
	case g.cmdCh <- command{kind: cmdUpsert, task: task}:
	default:
		g.logger.Warn("sync queue full, dropping upsert", "id", task.ID)
	}
}

// EnqueueDelete queues remote deletion of the given tasks. Partial
// failure mid-sequence is tolerated: already-deleted records are gone,
// the rest stay stale until a later bulk action covers them.
func (g *Gateway) EnqueueDelete(tasks []model.Task) {
	if len(tasks) == 0 {
		return
	}
	batch := make([]model.Task, len(tasks))
	copy(batch, tasks)

	select {
	case g.cmdCh <- command{kind: cmdDelete, tasks: batch}:
	default:
		g.logger.Warn("sync queue full, dropping delete", "count", len(batch))
	}
}

// Status returns the current observable sync state.
func (g *Gateway) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.status
	st.Pending = len(g.cmdCh)
	return st
}

// run is the worker loop. It is the only goroutine that touches the
// network for pushes, so remote calls never interleave with each other.
func (g *Gateway) run() {
	defer close(g.doneCh)

	for {
		select {
		case cmd := <-g.cmdCh:
			g.process(cmd)
		case <-g.stopCh:
			// Drain what is already queued, then exit.
			for {
				select {
				case cmd := <-g.cmdCh:
					g.process(cmd)
				default:
					return
				}
			}
		}
	}
}

// process executes a single command, logging and swallowing failures.
func (g *Gateway) process(cmd command) {
	g.setStatus(StateRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	switch cmd.kind {
	case cmdUpsert:
		if err := g.svc.UpsertMission(ctx, cmd.task, g.identity); err != nil {
			g.setStatus(StateError, err)
			g.logger.Warn("push failed, local state unaffected",
				"id", cmd.task.ID, "error", err)
			return
		}
	case cmdDelete:
		// Sequential per-item deletes; the service has no bulk endpoint.
		failed := false
		for _, t := range cmd.tasks {
			if err := g.svc.DeleteMission(ctx, t.ID); err != nil {
				failed = true
				g.setStatus(StateError, err)
				g.logger.Warn("remote delete failed", "id", t.ID, "error", err)
			}
		}
		if failed {
			return
		}
	}

	g.setStatus(StateIdle, nil)
}

// setStatus updates the observable state.
func (g *Gateway) setStatus(state State, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.status.State = state
	g.status.Error = err
	if state == StateIdle && err == nil {
		g.status.LastSync = time.Now()
	}
}
