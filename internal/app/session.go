// Package app wires the engine, sync gateway, notification scheduler,
// and snapshot cache into one session with an explicit lifecycle:
// built at startup, torn down at exit, injected into consumers instead
// of living as ambient global state.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/orbit-planner/internal/clock"
	"github.com/nhle/orbit-planner/internal/credential"
	"github.com/nhle/orbit-planner/internal/engine"
	"github.com/nhle/orbit-planner/internal/model"
	"github.com/nhle/orbit-planner/internal/notify"
	"github.com/nhle/orbit-planner/internal/remote"
	"github.com/nhle/orbit-planner/internal/store"
	appsync "github.com/nhle/orbit-planner/internal/sync"
)

// Session owns every long-lived component for one run of the planner.
type Session struct {
	Engine    *engine.Engine
	Gateway   *appsync.Gateway
	Scheduler *notify.Scheduler

	cfg    *model.AppConfig
	cache  *store.SQLiteStore
	logger *slog.Logger
}

// SessionOption configures a Session before wiring completes.
type SessionOption func(*sessionSetup)

type sessionSetup struct {
	logger   *slog.Logger
	clock    clock.Clock
	notifier notify.Notifier
	service  appsync.Service
}

// WithLogger sets the structured logger shared by all components.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *sessionSetup) { s.logger = l }
}

// WithClock overrides the time source (used by tests).
func WithClock(c clock.Clock) SessionOption {
	return func(s *sessionSetup) { s.clock = c }
}

// WithNotifier overrides where reminders are delivered.
func WithNotifier(n notify.Notifier) SessionOption {
	return func(s *sessionSetup) { s.notifier = n }
}

// WithService overrides the remote service client (used by tests).
func WithService(svc appsync.Service) SessionOption {
	return func(s *sessionSetup) { s.service = svc }
}

// NewSession builds a fully-wired session from cfg. Local state is
// restored from the snapshot cache when present, otherwise seeded with
// demo tasks when cfg.SeedDemo is set. Hydration from the remote is the
// caller's next step via Hydrate.
func NewSession(cfg *model.AppConfig, opts ...SessionOption) (*Session, error) {
	setup := &sessionSetup{
		logger: slog.Default(),
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		opt(setup)
	}
	if setup.notifier == nil {
		setup.notifier = logNotifier{logger: setup.logger}
	}

	eng := engine.New(
		engine.WithClock(setup.clock),
		engine.WithLogger(setup.logger),
	)

	var cache *store.SQLiteStore
	if cfg.DatabasePath != "" {
		var err error
		cache, err = store.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("opening snapshot cache: %w", err)
		}
	}

	svc := setup.service
	if svc == nil && cfg.Remote.Enabled && cfg.Remote.BaseURL != "" {
		token := remoteToken(setup.logger)
		svc = remote.NewClient(
			cfg.Remote.BaseURL,
			token,
			time.Duration(cfg.Remote.TimeoutSec)*time.Second,
		)
	}

	var gateway *appsync.Gateway
	if svc != nil {
		gateway = appsync.New(svc, cfg.Identity, appsync.WithLogger(setup.logger))
	}

	scheduler := notify.New(
		setup.notifier,
		notify.WithClock(setup.clock),
		notify.WithLogger(setup.logger),
		notify.WithLeadTime(time.Duration(cfg.Notify.LeadTimeMin)*time.Minute),
		notify.WithPermission(cfg.Notify.Enabled),
	)

	s := &Session{
		Engine:    eng,
		Gateway:   gateway,
		Scheduler: scheduler,
		cfg:       cfg,
		cache:     cache,
		logger:    setup.logger,
	}

	s.restoreOrSeed(setup.clock)
	s.wireListeners()

	if gateway != nil {
		gateway.Start()
	}
	scheduler.RescheduleAll(eng.Snapshot().Tasks)
	return s, nil
}

// Hydrate performs the once-per-session remote fetch and, on success,
// replaces the local collection wholesale. On failure local state is
// kept as-is and the session continues; the next mutation still syncs.
func (s *Session) Hydrate(ctx context.Context) error {
	if s.Gateway == nil {
		return nil
	}
	tasks, err := s.Gateway.Hydrate(ctx)
	if err != nil {
		return err
	}
	if _, err := s.Engine.ReplaceAll(tasks); err != nil {
		return err
	}
	return nil
}

// Close tears the session down: pending reminders are cancelled, the
// sync queue drains, and the final state lands in the snapshot cache.
func (s *Session) Close() error {
	s.Scheduler.Close()
	if s.Gateway != nil {
		s.Gateway.Stop()
	}

	var errs []error
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.cache.SaveSnapshot(ctx, s.Engine.Snapshot()); err != nil {
			errs = append(errs, fmt.Errorf("saving final snapshot: %w", err))
		}
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing snapshot cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// restoreOrSeed loads the cached aggregate, falling back to demo tasks
// so the scene is never empty before hydration.
func (s *Session) restoreOrSeed(c clock.Clock) {
	if s.cache != nil {
		snap, err := s.cache.LoadSnapshot(context.Background())
		if err != nil {
			s.logger.Warn("snapshot cache unreadable, starting fresh", "error", err)
		} else if len(snap.Tasks) > 0 || snap.XP > 0 {
			s.Engine.RestoreState(snap.Tasks, model.GamificationState{
				XP:                snap.XP,
				Streak:            snap.Streak,
				Achievements:      snap.Achievements,
				LastCompletedDate: snap.LastCompletedDate,
			})
			return
		}
	}

	if s.cfg.SeedDemo {
		seedDemoTasks(s.Engine, c)
	}
}

// wireListeners connects post-commit engine events to the gateway,
// scheduler, and snapshot cache.
func (s *Session) wireListeners() {
	if s.Gateway != nil {
		s.Engine.Subscribe(engine.ListenerFuncs{
			Upserted: s.Gateway.EnqueueUpsert,
			Deleted:  s.Gateway.EnqueueDelete,
		})
	}

	s.Engine.Subscribe(engine.ListenerFuncs{
		Upserted: func(t model.Task) {
			if t.Status == model.TaskStatusActive {
				s.Scheduler.ScheduleForTask(t.ID, t.Title, t.Deadline)
			} else {
				s.Scheduler.CancelForTask(t.ID)
			}
		},
		Deleted: func(tasks []model.Task) {
			for _, t := range tasks {
				s.Scheduler.CancelForTask(t.ID)
			}
		},
		Replaced: func(tasks []model.Task) {
			s.Scheduler.RescheduleAll(tasks)
		},
	})

	if s.cache != nil {
		persist := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.cache.SaveSnapshot(ctx, s.Engine.Snapshot()); err != nil {
				s.logger.Warn("snapshot persist failed", "error", err)
			}
		}
		s.Engine.Subscribe(engine.ListenerFuncs{
			Upserted: func(model.Task) { persist() },
			Deleted:  func([]model.Task) { persist() },
			Replaced: func([]model.Task) { persist() },
		})
	}
}

// remoteToken loads the API token from the keyring; a missing token is
// fine for services that accept anonymous per-user partitions.
func remoteToken(logger *slog.Logger) string {
	creds, err := credential.Open()
	if err != nil {
		logger.Debug("keyring unavailable, proceeding without token", "error", err)
		return ""
	}
	token, err := creds.RemoteToken()
	if err != nil {
		if !errors.Is(err, credential.ErrNotSet) {
			logger.Debug("remote token unreadable", "error", err)
		}
		return ""
	}
	return token
}

// logNotifier is the default alert sink when no platform notifier is
// wired: it just logs the reminder.
type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Alert(taskID, title string, deadline time.Time) {
	n.logger.Info("task reminder", "id", taskID, "title", title, "deadline", deadline)
}
