package journal

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docfold/mdrebase/internal/batch"
)

// Actions recorded per file.
const (
	ActionRewrite = "rewrite"
	ActionDelete  = "delete"
)

// Run is one recorded invocation.
type Run struct {
	ID         string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      int
	Changed    int
	Deleted    int
	Refs       int
	DryRun     bool
	Error      string
}

// Action is one recorded file mutation within a run.
type Action struct {
	Path   string
	Action string
	Refs   int
}

// ErrNotFound reports that no run matched the given id.
var ErrNotFound = errors.New("journal: run not found")

// ErrAmbiguous reports that an id prefix matched more than one run.
var ErrAmbiguous = errors.New("journal: id prefix is ambiguous")

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ActionsFor converts batch outcomes to journal actions. Files that were
// neither rewritten nor deleted are not recorded. A file that was rewritten
// and then pruned records as a delete, keeping its ref count.
func ActionsFor(outcomes []batch.Outcome) []Action {
	var actions []Action
	for _, o := range outcomes {
		switch {
		case o.Deleted:
			actions = append(actions, Action{Path: o.Path, Action: ActionDelete, Refs: len(o.Refs)})
		case o.Changed:
			actions = append(actions, Action{Path: o.Path, Action: ActionRewrite, Refs: len(o.Refs)})
		}
	}
	return actions
}

// RecordRun stores a run and its actions in one transaction. Aborted runs
// are recorded too, with their error text and the counters reached before
// the failure.
func (db *DB) RecordRun(run Run, actions []Action) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO runs (id, root, started_at, finished_at, files, changed, deleted, refs, dry_run, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Root, run.StartedAt, run.FinishedAt, run.Files, run.Changed, run.Deleted, run.Refs, run.DryRun, run.Error)
	if err != nil {
		return fmt.Errorf("journal: insert run: %w", err)
	}

	if len(actions) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO actions (run_id, path, action, refs) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("journal: prepare action insert: %w", err)
		}
		defer stmt.Close()
		for _, a := range actions {
			if _, err := stmt.Exec(run.ID, a.Path, a.Action, a.Refs); err != nil {
				return fmt.Errorf("journal: insert action: %w", err)
			}
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less means no limit.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT id, root, started_at, finished_at, files, changed, deleted, refs, dry_run, error
		FROM runs ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Root, &r.StartedAt, &r.FinishedAt, &r.Files, &r.Changed, &r.Deleted, &r.Refs, &r.DryRun, &r.Error); err != nil {
			return nil, fmt.Errorf("journal: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose id matches exactly, or uniquely by prefix.
func (db *DB) GetRun(id string) (Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, root, started_at, finished_at, files, changed, deleted, refs, dry_run, error
		FROM runs WHERE id = ? OR id LIKE ? LIMIT 2
	`, id, id+"%")
	if err != nil {
		return Run{}, fmt.Errorf("journal: get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Root, &r.StartedAt, &r.FinishedAt, &r.Files, &r.Changed, &r.Deleted, &r.Refs, &r.DryRun, &r.Error); err != nil {
			return Run{}, fmt.Errorf("journal: scan run: %w", err)
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}

	switch len(matches) {
	case 0:
		return Run{}, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		// An exact id that is also a prefix of another still wins.
		for _, m := range matches {
			if m.ID == id {
				return m, nil
			}
		}
		return Run{}, ErrAmbiguous
	}
}

// RunActions returns a run's actions in the order they were recorded.
func (db *DB) RunActions(runID string) ([]Action, error) {
	rows, err := db.conn.Query(`SELECT path, action, refs FROM actions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: list actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.Path, &a.Action, &a.Refs); err != nil {
			return nil, fmt.Errorf("journal: scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
