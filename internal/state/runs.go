package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning RunStatus = "running"
	RunStatusPassed  RunStatus = "passed"
	RunStatusIssues  RunStatus = "issues"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one check invocation against a scene.
type Run struct {
	ID          string     `json:"id"`
	Scene       string     `json:"scene"`
	Collection  string     `json:"collection"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Errors      int        `json:"errors"`
	Warnings    int        `json:"warnings"`
	Error       string     `json:"error,omitempty"`
}

// Finding is the persisted summary of one rule result.
type Finding struct {
	RunID   string `json:"run_id"`
	RuleID  string `json:"rule_id"`
	Urgency string `json:"urgency"`
	Status  string `json:"status"`
	Items   int    `json:"items"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Fix is one recorded fix attempt.
type Fix struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	RuleID    string    `json:"rule_id"`
	Item      string    `json:"item"`
	Success   bool      `json:"success"`
	Skipped   bool      `json:"skipped"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRun starts a new run record.
func (s *Store) CreateRun(ctx context.Context, scenePath, collection string) (*Run, error) {
	run := &Run{
		ID:         newID(),
		Scene:      scenePath,
		Collection: collection,
		Status:     RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	s.logger.Debug("creating run", "id", run.ID, "scene", scenePath, "collection", collection)

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO runs (id, scene, collection, status, started_at) VALUES (?, ?, ?, ?, ?)`),
		run.ID, run.Scene, run.Collection, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// SaveResults replaces the findings of a run with results and updates the
// run's error and warning counts.
func (s *Store) SaveResults(ctx context.Context, runID string, results []*qa.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM findings WHERE run_id = ?`), runID); err != nil {
		return fmt.Errorf("failed to clear findings: %w", err)
	}

	var errs, warns int
	for _, r := range results {
		switch r.State() {
		case qa.UrgencyError:
			errs++
		case qa.UrgencyWarning:
			warns++
		}
		_, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO findings (run_id, rule_id, urgency, status, items, message, reason) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			runID, r.RuleID, r.Urgency.String(), r.Status.String(), len(r.Items), r.Message, r.Reason,
		)
		if err != nil {
			return fmt.Errorf("failed to save finding %s: %w", r.RuleID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE runs SET errors = ?, warnings = ? WHERE id = ?`),
		errs, warns, runID); err != nil {
		return fmt.Errorf("failed to update run counts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit findings: %w", err)
	}
	return nil
}

// RecordFix stores the outcome of a fix attempt.
func (s *Store) RecordFix(ctx context.Context, runID string, outcome qa.FixOutcome) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO fixes (id, run_id, rule_id, item, success, skipped, reason, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		newID(), runID, outcome.RuleID, outcome.Item, outcome.Success, outcome.Skipped, outcome.Reason, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record fix: %w", err)
	}
	return nil
}

// CompleteRun closes a run with its final status.
func (s *Store) CompleteRun(ctx context.Context, runID string, status RunStatus, errMsg string) error {
	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`),
		string(status), time.Now().UTC(), errVal, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `id, scene, collection, status, started_at, completed_at, errors, warnings, error`

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Findings returns the findings of a run ordered by rule ID.
func (s *Store) Findings(ctx context.Context, runID string) ([]Finding, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT run_id, rule_id, urgency, status, items, message, reason FROM findings WHERE run_id = ? ORDER BY rule_id`), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Finding
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.RunID, &f.RuleID, &f.Urgency, &f.Status, &f.Items, &f.Message, &f.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Fixes returns the fix attempts of a run, oldest first.
func (s *Store) Fixes(ctx context.Context, runID string) ([]Fix, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, run_id, rule_id, item, success, skipped, reason, created_at FROM fixes WHERE run_id = ? ORDER BY created_at, id`), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Fix
	for rows.Next() {
		var f Fix
		if err := rows.Scan(&f.ID, &f.RunID, &f.RuleID, &f.Item, &f.Success, &f.Skipped, &f.Reason, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fix: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Scene, &run.Collection, &status, &run.StartedAt,
		&completedAt, &run.Errors, &run.Warnings, &errMsg); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.Error = errMsg.String
	return &run, nil
}
