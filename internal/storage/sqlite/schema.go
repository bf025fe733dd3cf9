package sqlite

const schema = `
-- Runs table: one row per command execution. Workflow (do) runs carry the
-- state machine in status; other commands record running/succeeded/failed.
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    command TEXT NOT NULL,
    assignment_id INTEGER NOT NULL DEFAULT 0,
    mode TEXT NOT NULL DEFAULT '',
    goal TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    artifacts TEXT NOT NULL DEFAULT '{}',
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_updated_at ON runs(updated_at);
CREATE INDEX IF NOT EXISTS idx_runs_assignment ON runs(assignment_id, command);

-- Review tokens: single-use confirmation credentials. Only the SHA-256 hash
-- of the token value is stored. Rows are never deleted; consumed_at marks use.
CREATE TABLE IF NOT EXISTS review_tokens (
    token_hash TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    assignment_id INTEGER NOT NULL DEFAULT 0,
    issued_at TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    consumed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_review_tokens_run ON review_tokens(run_id);

-- Submission idempotency ledger: immutable once written. result holds the
-- exact marshaled bytes returned to the first caller.
CREATE TABLE IF NOT EXISTS submission_idempotency (
    idempotency_key TEXT PRIMARY KEY,
    run_id TEXT NOT NULL DEFAULT '',
    assignment_id INTEGER NOT NULL DEFAULT 0,
    file_path TEXT NOT NULL DEFAULT '',
    result TEXT NOT NULL,
    created_at TEXT NOT NULL
);

-- Persisted assignment step plans (plan command).
CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    assignment_id INTEGER NOT NULL,
    steps TEXT NOT NULL,
    created_at TEXT NOT NULL
);

-- Instructor feedback memory, scoped by course and optionally assignment.
CREATE TABLE IF NOT EXISTS feedback_memory (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    course_id INTEGER NOT NULL DEFAULT 0,
    assignment_id INTEGER NOT NULL DEFAULT 0,
    feedback_text TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT 'manual',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_scope ON feedback_memory(course_id, assignment_id);

-- Action log: commands append rows; failures append command='error' with
-- the taxonomy code as payload. Feeds the metrics summary.
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TEXT NOT NULL,
    command TEXT NOT NULL,
    payload TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_events_command ON events(command);
`
