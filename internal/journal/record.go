package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/bookcheck/internal/harness"
)

// RunRecord is the stored summary of one completed run.
type RunRecord struct {
	ID        string    `json:"id"`
	Script    string    `json:"script"`
	StartedAt time.Time `json:"started_at"`
	Pass      bool      `json:"pass"`
	Verdicts  int       `json:"verdicts"`
	Failures  int       `json:"failures"`
}

// RecordRun writes a run and its verdicts in one transaction and returns
// the assigned run ID.
func (j *Journal) RecordRun(ctx context.Context, startedAt time.Time, res *harness.RunResult) (string, error) {
	id := j.newID()
	failures := res.Failures()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, script, started_at, pass, verdict_count, failure_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		id,
		res.Script,
		startedAt.UTC().Format(time.RFC3339Nano),
		failures == 0,
		len(res.Verdicts),
		failures,
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}

	for i, v := range res.Verdicts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO verdicts (run_id, position, kind, order_id, filled_qty, message, success)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			id, i, v.Kind, int64(v.OrderID), int64(v.FilledQty), v.Message, v.Success,
		)
		if err != nil {
			return "", fmt.Errorf("record run: verdict %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// ReadRun returns a run's summary and its verdicts ordered by position.
func (j *Journal) ReadRun(ctx context.Context, id string) (RunRecord, []harness.Verdict, error) {
	var (
		rec       RunRecord
		startedAt string
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT id, script, started_at, pass, verdict_count, failure_count
		FROM runs WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Script, &startedAt, &rec.Pass, &rec.Verdicts, &rec.Failures)
	if err == sql.ErrNoRows {
		return RunRecord{}, nil, fmt.Errorf("read run: no run %q", id)
	}
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("read run: %w", err)
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return RunRecord{}, nil, fmt.Errorf("read run: bad started_at: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, order_id, filled_qty, message, success
		FROM verdicts WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("read run: %w", err)
	}
	defer rows.Close()

	var verdicts []harness.Verdict
	for rows.Next() {
		var (
			v         harness.Verdict
			orderID   int64
			filledQty int64
		)
		if err := rows.Scan(&v.Kind, &orderID, &filledQty, &v.Message, &v.Success); err != nil {
			return RunRecord{}, nil, fmt.Errorf("read run: %w", err)
		}
		v.OrderID = uint64(orderID)
		v.FilledQty = uint64(filledQty)
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return RunRecord{}, nil, fmt.Errorf("read run: %w", err)
	}
	return rec, verdicts, nil
}

// Runs lists all recorded runs, most recent first.
func (j *Journal) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, script, started_at, pass, verdict_count, failure_count
		FROM runs ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec       RunRecord
			startedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Script, &startedAt, &rec.Pass, &rec.Verdicts, &rec.Failures); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("list runs: bad started_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
