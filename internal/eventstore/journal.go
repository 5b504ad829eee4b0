// Package eventstore persists the daemon's publish-run journal in SQLite.
// The journal records operational history (what ran, when, with what result),
// never note state: compiled notes live only in the garden repository.
package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Trigger kinds recorded with each run.
const (
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Run is one recorded publish attempt.
type Run struct {
	ID        int64
	SessionID string
	Trigger   string
	StartedAt time.Time
	Success   bool
	Pushed    bool
	CommitSHA string
	Created   int
	Updated   int
	Deleted   int
	Duration  time.Duration
	Error     string
}

// Journal is a SQLite-backed publish-run log.
type Journal struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and if needed initializes) the journal database.
// Use ":memory:" for an in-memory journal, or a file path for persistence.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	// One connection keeps ":memory:" databases coherent and serializes
	// writers the way SQLite wants anyway.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS publish_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		trigger_kind TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		success INTEGER NOT NULL,
		pushed INTEGER NOT NULL,
		commit_sha TEXT NOT NULL DEFAULT '',
		created_files INTEGER NOT NULL DEFAULT 0,
		updated_files INTEGER NOT NULL DEFAULT 0,
		deleted_files INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_publish_runs_started_at ON publish_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_publish_runs_session_id ON publish_runs(session_id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends a run to the journal and returns its row id.
func (j *Journal) Record(ctx context.Context, run Run) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO publish_runs
		 (session_id, trigger_kind, started_at, success, pushed, commit_sha,
		  created_files, updated_files, deleted_files, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.SessionID, run.Trigger, run.StartedAt.Unix(),
		boolInt(run.Success), boolInt(run.Pushed), run.CommitSHA,
		run.Created, run.Updated, run.Deleted,
		run.Duration.Milliseconds(), run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("insert publish run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("publish run id: %w", err)
	}
	return id, nil
}

const runColumns = `id, session_id, trigger_kind, started_at, success, pushed,
	commit_sha, created_files, updated_files, deleted_files, duration_ms, error`

// Recent returns the latest runs, newest first. A non-positive limit returns
// up to 20 runs.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM publish_runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query publish runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// LastPushed returns the most recent run that pushed a commit, or nil when
// the garden has never been published from this journal.
func (j *Journal) LastPushed(ctx context.Context) (*Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	row := j.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM publish_runs WHERE pushed = 1 ORDER BY id DESC LIMIT 1")

	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last pushed run: %w", err)
	}
	return &run, nil
}

// Prune deletes runs that started before the cutoff and reports how many
// rows were removed.
func (j *Journal) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.ExecContext(ctx,
		"DELETE FROM publish_runs WHERE started_at < ?", olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune publish runs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune row count: %w", err)
	}
	return n, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan publish run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publish runs: %w", err)
	}
	return runs, nil
}

func scanRun(scan func(dest ...any) error) (Run, error) {
	var (
		run             Run
		startedUnix     int64
		success, pushed int
		durationMS      int64
	)
	err := scan(&run.ID, &run.SessionID, &run.Trigger, &startedUnix, &success, &pushed,
		&run.CommitSHA, &run.Created, &run.Updated, &run.Deleted, &durationMS, &run.Error)
	if err != nil {
		return Run{}, err
	}

	run.StartedAt = time.Unix(startedUnix, 0)
	run.Success = success != 0
	run.Pushed = pushed != 0
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
