// Package ledger records stage runs and per-paper progress in SQLite,
// so partial-failure history survives across invocations.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spacebio/biolit/pkg/biolit/report"
)

// Ledger is a SQLite-backed run history.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database with WAL mode enabled.
func Open(ctx context.Context, path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{db: db}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	stage TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	attempted INTEGER NOT NULL,
	succeeded INTEGER NOT NULL,
	status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_skips (
	run_id TEXT NOT NULL,
	paper_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS paper_stages (
	paper_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	status TEXT NOT NULL,
	detail TEXT,
	updated_at TEXT NOT NULL,
	PRIMARY KEY(paper_id, stage)
);

CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(stage, started_at);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init ledger schema: %w", err)
	}
	return nil
}

// RecordRun persists a finished stage run and its skip list.
func (l *Ledger) RecordRun(ctx context.Context, r report.Run) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, stage, started_at, finished_at, attempted, succeeded, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Stage,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.Attempted, r.Succeeded, string(r.Status))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, skip := range r.Skipped {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_skips (run_id, paper_id, reason) VALUES (?, ?, ?)`,
			r.RunID, skip.ID, skip.Reason)
		if err != nil {
			return fmt.Errorf("insert skip: %w", err)
		}
	}

	return tx.Commit()
}

// LastRun returns the most recent run for a stage.
func (l *Ledger) LastRun(ctx context.Context, stage string) (report.Run, bool, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT run_id, stage, started_at, finished_at, attempted, succeeded, status
		FROM runs WHERE stage = ? ORDER BY started_at DESC LIMIT 1`, stage)

	var r report.Run
	var started, finished, status string
	err := row.Scan(&r.RunID, &r.Stage, &started, &finished, &r.Attempted, &r.Succeeded, &status)
	if err == sql.ErrNoRows {
		return report.Run{}, false, nil
	}
	if err != nil {
		return report.Run{}, false, fmt.Errorf("scan run: %w", err)
	}

	r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	r.Status = report.Status(status)

	rows, err := l.db.QueryContext(ctx,
		`SELECT paper_id, reason FROM run_skips WHERE run_id = ?`, r.RunID)
	if err != nil {
		return report.Run{}, false, fmt.Errorf("query skips: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s report.Skip
		if err := rows.Scan(&s.ID, &s.Reason); err != nil {
			return report.Run{}, false, err
		}
		r.Skipped = append(r.Skipped, s)
	}
	if err := rows.Err(); err != nil {
		return report.Run{}, false, err
	}

	return r, true, nil
}

// SetPaperStage upserts the status of one paper at one stage.
func (l *Ledger) SetPaperStage(ctx context.Context, paperID, stage, status, detail string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO paper_stages (paper_id, stage, status, detail, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(paper_id, stage) DO UPDATE SET
			status = excluded.status,
			detail = excluded.detail,
			updated_at = excluded.updated_at`,
		paperID, stage, status, detail, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set paper stage: %w", err)
	}
	return nil
}

// PaperStages returns stage → status for one paper.
func (l *Ledger) PaperStages(ctx context.Context, paperID string) (map[string]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT stage, status FROM paper_stages WHERE paper_id = ?`, paperID)
	if err != nil {
		return nil, fmt.Errorf("query paper stages: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var stage, status string
		if err := rows.Scan(&stage, &status); err != nil {
			return nil, err
		}
		out[stage] = status
	}
	return out, rows.Err()
}

// StageCounts returns status → paper count for one stage.
func (l *Ledger) StageCounts(ctx context.Context, stage string) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM paper_stages WHERE stage = ? GROUP BY status`, stage)
	if err != nil {
		return nil, fmt.Errorf("query stage counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
