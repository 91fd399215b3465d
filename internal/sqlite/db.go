package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite database connection. The pool holds a single
// connection: SQLite has one writer, and every capacity check runs inside a
// transaction that must not interleave with another.
func New(dataSourceName string) (*DB, error) {
	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("failed to register sql functions: %w", err)
	}

	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{db}, nil
}

// withTx runs fn in a transaction. fn must only use tx: the pool has one
// connection and the transaction holds it.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RunMigrations creates the schema if it does not exist yet.
func (db *DB) RunMigrations() error {
	migration := `
CREATE TABLE IF NOT EXISTS skill_nodes (
    id TEXT PRIMARY KEY,
    parent_id TEXT REFERENCES skill_nodes(id),
    name TEXT NOT NULL,
    aliases TEXT NOT NULL DEFAULT '[]',
    depth INTEGER NOT NULL DEFAULT 0,
    is_leaf INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_skill_parent ON skill_nodes(parent_id);

CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    bio TEXT NOT NULL DEFAULT '',
    interests TEXT NOT NULL DEFAULT '[]',
    languages TEXT NOT NULL DEFAULT '[]',
    lat REAL,
    lng REAL,
    location_mode TEXT NOT NULL DEFAULT 'either' CHECK(location_mode IN ('remote', 'in_person', 'either')),
    timezone TEXT NOT NULL DEFAULT 'UTC',
    hours_per_week INTEGER NOT NULL DEFAULT 0,
    experience_level INTEGER NOT NULL DEFAULT 0,
    notify_applications INTEGER NOT NULL DEFAULT 1,
    notify_matches INTEGER NOT NULL DEFAULT 1,
    notify_meetings INTEGER NOT NULL DEFAULT 1,
    embedding TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS profile_skills (
    profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    skill_id TEXT NOT NULL REFERENCES skill_nodes(id),
    level INTEGER NOT NULL CHECK(level BETWEEN 0 AND 10),
    PRIMARY KEY (profile_id, skill_id)
);

CREATE TABLE IF NOT EXISTS postings (
    id TEXT PRIMARY KEY,
    creator_id TEXT NOT NULL REFERENCES profiles(id),
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    mode TEXT NOT NULL CHECK(mode IN ('remote', 'hybrid', 'onsite')),
    location TEXT NOT NULL DEFAULT '',
    team_size_min INTEGER NOT NULL,
    team_size_max INTEGER NOT NULL,
    hours_per_week INTEGER NOT NULL DEFAULT 0,
    experience_level INTEGER NOT NULL DEFAULT 0,
    auto_accept INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL CHECK(status IN ('open', 'filled', 'closed', 'expired')),
    expires_at TIMESTAMP NOT NULL,
    embedding TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posting_creator ON postings(creator_id);
CREATE INDEX IF NOT EXISTS idx_posting_status_expiry ON postings(status, expires_at);

CREATE TABLE IF NOT EXISTS posting_skills (
    posting_id TEXT NOT NULL REFERENCES postings(id) ON DELETE CASCADE,
    skill_id TEXT NOT NULL REFERENCES skill_nodes(id),
    min_level INTEGER,
    PRIMARY KEY (posting_id, skill_id)
);

CREATE TABLE IF NOT EXISTS applications (
    id TEXT PRIMARY KEY,
    posting_id TEXT NOT NULL REFERENCES postings(id) ON DELETE CASCADE,
    applicant_id TEXT NOT NULL REFERENCES profiles(id),
    status TEXT NOT NULL CHECK(status IN ('pending', 'accepted', 'rejected', 'waitlisted', 'withdrawn')),
    message TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_application_posting ON applications(posting_id, status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_application_active
    ON applications(posting_id, applicant_id) WHERE status != 'withdrawn';

CREATE TABLE IF NOT EXISTS matches (
    id TEXT PRIMARY KEY,
    profile_id TEXT NOT NULL REFERENCES profiles(id),
    posting_id TEXT NOT NULL REFERENCES postings(id) ON DELETE CASCADE,
    score REAL NOT NULL,
    semantic REAL NOT NULL,
    skills_overlap REAL NOT NULL,
    experience_match REAL NOT NULL,
    commitment_match REAL NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('pending', 'applied', 'accepted', 'declined')),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (profile_id, posting_id)
);
CREATE INDEX IF NOT EXISTS idx_match_posting ON matches(posting_id);

CREATE TABLE IF NOT EXISTS availability_windows (
    id TEXT PRIMARY KEY,
    owner_kind TEXT NOT NULL CHECK(owner_kind IN ('profile', 'posting')),
    owner_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK(kind IN ('recurring', 'specific')),
    day_of_week INTEGER NOT NULL DEFAULT 0,
    start_minutes INTEGER NOT NULL DEFAULT 0,
    end_minutes INTEGER NOT NULL DEFAULT 0,
    date TEXT NOT NULL DEFAULT '',
    starts_at TIMESTAMP,
    ends_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_window_owner ON availability_windows(owner_kind, owner_id);

CREATE TABLE IF NOT EXISTS busy_blocks (
    id TEXT PRIMARY KEY,
    profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    connection_id TEXT NOT NULL,
    start_minute INTEGER NOT NULL,
    end_minute INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    CHECK (0 <= start_minute AND start_minute < end_minute AND end_minute <= 10080)
);
CREATE INDEX IF NOT EXISTS idx_busy_profile ON busy_blocks(profile_id, connection_id);

CREATE TABLE IF NOT EXISTS meeting_proposals (
    id TEXT PRIMARY KEY,
    posting_id TEXT NOT NULL REFERENCES postings(id) ON DELETE CASCADE,
    proposer_id TEXT NOT NULL REFERENCES profiles(id),
    starts_at TIMESTAMP NOT NULL,
    ends_at TIMESTAMP NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('proposed', 'confirmed', 'cancelled')),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_proposal_posting ON meeting_proposals(posting_id, status);

CREATE TABLE IF NOT EXISTS meeting_responses (
    proposal_id TEXT NOT NULL REFERENCES meeting_proposals(id) ON DELETE CASCADE,
    profile_id TEXT NOT NULL REFERENCES profiles(id),
    available INTEGER NOT NULL,
    responded_at TIMESTAMP NOT NULL,
    PRIMARY KEY (proposal_id, profile_id)
);

CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    posting_id TEXT,
    application_id TEXT,
    read INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notification_profile ON notifications(profile_id, read, created_at);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
