package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	deadline    DATETIME NOT NULL,
	urgency     INTEGER NOT NULL DEFAULT 1,
	status      TEXT NOT NULL DEFAULT 'active',
	color       TEXT NOT NULL DEFAULT '',
	xp_awarded  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS gamification (
	id                  INTEGER PRIMARY KEY CHECK (id = 1),
	xp                  INTEGER NOT NULL DEFAULT 0,
	streak              INTEGER NOT NULL DEFAULT 0,
	last_completed_date TEXT NOT NULL DEFAULT '',
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS achievements (
	key        TEXT PRIMARY KEY,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
