// Package store persists the engine aggregate to a local SQLite cache
// so a session that cannot hydrate from the remote still restores its
// last known state. The cache mirrors the engine wholesale: one
// transaction per snapshot, matching the atomicity of engine commits.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/orbit-planner/internal/model"
)

// SQLiteStore implements the snapshot cache using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveSnapshot replaces the cached aggregate with snap in one
// transaction. Either everything lands or nothing does.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}

	const insertTask = `
		INSERT INTO tasks (
			id, title, description, deadline, urgency,
			status, color, xp_awarded, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, insertTask)
	if err != nil {
		return fmt.Errorf("preparing task insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range snap.Tasks {
		_, err = stmt.ExecContext(ctx,
			t.ID, t.Title, t.Description, t.Deadline.UTC(), t.Urgency,
			t.Status, t.Color, boolToInt(t.XPAwarded), t.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO gamification (id, xp, streak, last_completed_date, updated_at)
		VALUES (1, ?, ?, ?, ?)`,
		snap.XP, snap.Streak, snap.LastCompletedDate, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("saving gamification state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM achievements"); err != nil {
		return fmt.Errorf("clearing achievements: %w", err)
	}
	for i, key := range snap.Achievements {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO achievements (key, sort_order) VALUES (?, ?)", key, i,
		); err != nil {
			return fmt.Errorf("inserting achievement %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot restores the cached aggregate. An empty cache yields an
// empty snapshot, not an error.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot

	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, title, description, deadline, urgency,
		       status, color, xp_awarded, created_at
		FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return model.Snapshot{}, err
		}
		snap.Tasks = append(snap.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, fmt.Errorf("iterating tasks: %w", err)
	}

	var gam struct {
		XP                int    `db:"xp"`
		Streak            int    `db:"streak"`
		LastCompletedDate string `db:"last_completed_date"`
	}
	err = s.db.GetContext(ctx, &gam,
		"SELECT xp, streak, last_completed_date FROM gamification WHERE id = 1")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, fmt.Errorf("reading gamification state: %w", err)
	}
	snap.XP = gam.XP
	snap.Streak = gam.Streak
	snap.LastCompletedDate = gam.LastCompletedDate
	snap.Level = model.GamificationState{XP: gam.XP}.Level()

	if err := s.db.SelectContext(ctx, &snap.Achievements,
		"SELECT key FROM achievements ORDER BY sort_order"); err != nil {
		return model.Snapshot{}, fmt.Errorf("reading achievements: %w", err)
	}

	return snap, nil
}

// scanTask scans a task row from a sqlx.Rows result set.
func scanTask(rows *sqlx.Rows) (model.Task, error) {
	var (
		t         model.Task
		deadline  time.Time
		awarded   int
		createdAt time.Time
	)

	err := rows.Scan(
		&t.ID, &t.Title, &t.Description, &deadline, &t.Urgency,
		&t.Status, &t.Color, &awarded, &createdAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	t.Deadline = deadline
	t.XPAwarded = awarded != 0
	t.CreatedAt = createdAt
	return t, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
