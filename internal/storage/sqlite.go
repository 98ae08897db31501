// Package storage opens and migrates COCO's single workspace sqlite database.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"coco/internal/cocoerr"

	_ "modernc.org/sqlite"
)

// DB wraps the shared workspace database handle and the migration ledger.
// Every store (facts, semantic, episodic, summary, scheduler) uses this one
// connection; the facts, semantic, episodic and summary stores serialize
// their access through DB's single RWMutex (Lock/RLock), while the
// scheduler store does not take it.
type DB struct {
	mu   sync.RWMutex
	sql  *sql.DB
	path string
}

// Open opens (creating if absent) the sqlite database at <workdir>/coco.db
// and applies every migration that has not yet run.
func Open(workdir string) (*DB, error) {
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, cocoerr.Wrap(cocoerr.Internal, "create workspace dir", err)
	}
	path := filepath.Join(workdir, "coco.db")
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.Internal, "open sqlite database", err)
	}
	sqlDB.SetMaxOpenConns(1) // modernc.org/sqlite: one writer, serialize via our own mutex

	db := &DB{sql: sqlDB, path: path}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

// Path returns the on-disk database file path.
func (d *DB) Path() string { return d.path }

// Conn exposes the underlying *sql.DB for store packages to run their own
// statements. Callers must hold RLock/Lock as appropriate for their access
// pattern; DB does not serialize callers itself beyond the single
// max-open-conn.
func (d *DB) Conn() *sql.DB { return d.sql }

func (d *DB) Lock()    { d.mu.Lock() }
func (d *DB) Unlock()  { d.mu.Unlock() }
func (d *DB) RLock()   { d.mu.RLock() }
func (d *DB) RUnlock() { d.mu.RUnlock() }

// migration is one additive, idempotent schema step.
type migration struct {
	version int
	stmt    string
}

var migrations = []migration{
	{1, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`},
	{2, `CREATE TABLE IF NOT EXISTS facts (
		id TEXT PRIMARY KEY,
		row_id INTEGER,
		fact_type TEXT NOT NULL,
		content TEXT NOT NULL,
		context TEXT,
		importance REAL NOT NULL,
		access_count INTEGER NOT NULL DEFAULT 0,
		episode_id TEXT,
		session_id TEXT,
		created_at DATETIME NOT NULL,
		last_accessed DATETIME
	)`},
	{3, `CREATE INDEX IF NOT EXISTS idx_facts_type ON facts(fact_type)`},
	{4, `CREATE INDEX IF NOT EXISTS idx_facts_importance ON facts(importance)`},
	{5, `CREATE INDEX IF NOT EXISTS idx_facts_created ON facts(created_at)`},
	{6, `CREATE INDEX IF NOT EXISTS idx_facts_episode ON facts(episode_id)`},
	{7, `CREATE INDEX IF NOT EXISTS idx_facts_session ON facts(session_id)`},
	{8, `CREATE TABLE IF NOT EXISTS semantic_entries (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		importance REAL NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME NOT NULL
	)`},
	{9, `CREATE TABLE IF NOT EXISTS exchanges (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_text TEXT NOT NULL,
		assistant_text TEXT NOT NULL,
		tool_calls_json TEXT,
		autonomous INTEGER NOT NULL DEFAULT 0,
		summarized INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`},
	{10, `CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id)`},
	{11, `CREATE INDEX IF NOT EXISTS idx_exchanges_summarized ON exchanges(summarized)`},
	{12, `CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		covers_from TEXT,
		covers_to TEXT,
		token_estimate INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	)`},
	{13, `CREATE TABLE IF NOT EXISTS scheduler_tasks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		schedule_text TEXT NOT NULL,
		cron_expr TEXT NOT NULL,
		timezone TEXT NOT NULL,
		template_name TEXT NOT NULL,
		config_json TEXT,
		state TEXT NOT NULL,
		next_run_at DATETIME,
		requires_approval INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`},
	{14, `CREATE TABLE IF NOT EXISTS scheduler_executions (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		output TEXT,
		FOREIGN KEY(task_id) REFERENCES scheduler_tasks(id)
	)`},
	{15, `CREATE INDEX IF NOT EXISTS idx_executions_task ON scheduler_executions(task_id, started_at)`},
	{16, `CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		approved INTEGER NOT NULL DEFAULT 0
	)`},
}

func (d *DB) migrate() error {
	if _, err := d.sql.Exec(migrations[0].stmt); err != nil {
		return cocoerr.Wrap(cocoerr.SchemaIncompatible, "create schema_version table", err)
	}

	applied := map[int]bool{}
	rows, err := d.sql.Query(`SELECT version FROM schema_version`)
	if err != nil {
		return cocoerr.Wrap(cocoerr.SchemaIncompatible, "read schema_version", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return cocoerr.Wrap(cocoerr.SchemaIncompatible, "scan schema_version", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if _, err := d.sql.Exec(m.stmt); err != nil {
			return cocoerr.Wrap(cocoerr.SchemaIncompatible, fmt.Sprintf("apply migration %d", m.version), err)
		}
		if _, err := d.sql.Exec(`INSERT INTO schema_version(version) VALUES (?)`, m.version); err != nil {
			return cocoerr.Wrap(cocoerr.SchemaIncompatible, fmt.Sprintf("record migration %d", m.version), err)
		}
	}
	return nil
}
