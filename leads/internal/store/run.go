package store

import (
	"context"
	"fmt"
	"time"
)

// Run statuses.
const (
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// InsertRun records the start of a pipeline run.
func (s *Store) InsertRun(ctx context.Context, id, mode string) (*Run, error) {
	r := &Run{ID: id, Mode: mode, Status: RunRunning, StartedAt: time.Now().UnixMilli()}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO runs (id, mode, status, started_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Mode, r.Status, r.StartedAt,
	)
	if err != nil {
		return nil, classify("store: insert run", err)
	}
	return r, nil
}

// FinishRun stores the final counts of r. A non-empty r.Error marks the run
// as failed.
func (s *Store) FinishRun(ctx context.Context, r *Run) error {
	r.Status = RunDone
	if r.Error != "" {
		r.Status = RunFailed
	}
	now := time.Now().UnixMilli()
	r.FinishedAt = &now
	_, err := s.DB.ExecContext(ctx, `
		UPDATE runs SET status = ?, signals = ?, new_signals = ?, enrichments = ?, scores = ?,
			drafts = ?, notified = ?, failures = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		r.Status, r.Signals, r.NewSignals, r.Enrichments, r.Scores,
		r.Drafts, r.Notified, r.Failures, r.Error, now, r.ID,
	)
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	return nil
}

const runColumns = `id, mode, status, signals, new_signals, enrichments, scores, drafts, notified,
	failures, error, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*Run, error) {
	r := &Run{}
	err := sc.Scan(&r.ID, &r.Mode, &r.Status, &r.Signals, &r.NewSignals,
		&r.Enrichments, &r.Scores, &r.Drafts, &r.Notified, &r.Failures, &r.Error,
		&r.StartedAt, &r.FinishedAt)
	return r, err
}

// GetRun returns one run, or nil if id is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(s.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
