package resume

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/db"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/logger"
)

// ManualRunID marks checkpoints written by `harvest checkpoint set`.
const ManualRunID = "manual"

// Record is the checkpoint of one input source.
type Record struct {
	Input      string
	ContractID contract.ID
	Status     contract.Status // StatusUnknown for manual checkpoints
	RunID      string
	UpdatedAt  time.Time
}

// RunSummary aggregates the outcomes recorded by one run.
type RunSummary struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Total     int
	Succeeded int
}

// Checkpoint is the SQLite resume store. Every outcome is appended to the
// outcomes table and the checkpoint row of its input advances in the same
// transaction, so the two never disagree.
type Checkpoint struct {
	db     *sql.DB
	input  string
	now    func() time.Time
	logger *zap.SugaredLogger
}

// InputKey normalizes an input file path into the key checkpoints are stored
// under.
func InputKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// NewCheckpoint returns the checkpoint store for one input source.
func NewCheckpoint(database *sql.DB, input string) *Checkpoint {
	return &Checkpoint{
		db:     database,
		input:  input,
		now:    time.Now,
		logger: logger.AddDBSymbol(logger.ComponentLogger("resume.checkpoint")),
	}
}

// Input returns the key this store reads and writes.
func (c *Checkpoint) Input() string { return c.input }

// LastProcessed returns the checkpointed contract, or "" when this input has
// no checkpoint. Store errors are returned, unlike the folder heuristic.
func (c *Checkpoint) LastProcessed(ctx context.Context) (contract.ID, error) {
	rec, err := c.Get(ctx)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	return rec.ContractID, nil
}

// Record appends o for runID and moves the checkpoint to o.ID atomically.
func (c *Checkpoint) Record(ctx context.Context, runID string, o contract.Outcome) error {
	now := c.now().UnixMilli()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return c.wrap(err, "failed to begin checkpoint transaction")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, input, contract_id, status, duration_ms, file_path, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, c.input, string(o.ID), o.Status.String(), o.Duration.Milliseconds(), o.FilePath, now,
	)
	if err != nil {
		tx.Rollback()
		return c.wrap(err, "failed to record outcome")
	}

	if err := upsert(ctx, tx, c.input, o.ID, o.Status.String(), runID, now); err != nil {
		tx.Rollback()
		return c.wrap(err, "failed to advance checkpoint")
	}

	if err := tx.Commit(); err != nil {
		return c.wrap(err, "failed to commit checkpoint")
	}

	c.logger.Debugw("Checkpoint advanced",
		logger.FieldContractID, string(o.ID),
		logger.FieldStatus, o.Status.String(),
		logger.FieldRunID, runID,
	)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsert(ctx context.Context, ex execer, input string, id contract.ID, status, runID string, now int64) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO checkpoints (input, contract_id, status, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(input) DO UPDATE SET
			contract_id = excluded.contract_id,
			status = excluded.status,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		input, string(id), status, runID, now,
	)
	return err
}

// Get returns the checkpoint of this input, or nil when there is none.
func (c *Checkpoint) Get(ctx context.Context) (*Record, error) {
	var (
		rec       Record
		id        string
		status    string
		updatedMS int64
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT input, contract_id, status, run_id, updated_at
		FROM checkpoints WHERE input = ?`, c.input,
	).Scan(&rec.Input, &id, &status, &rec.RunID, &updatedMS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, c.wrap(err, "failed to read checkpoint")
	}

	rec.ContractID = contract.ID(id)
	rec.UpdatedAt = time.UnixMilli(updatedMS)
	if status != "" {
		if rec.Status, err = contract.ParseStatus(status); err != nil {
			return nil, errors.Wrapf(err, "corrupt checkpoint for %s", c.input)
		}
	}
	return &rec, nil
}

// Set moves the checkpoint to id by hand. No outcome row is written.
func (c *Checkpoint) Set(ctx context.Context, id contract.ID) error {
	if id.IsZero() {
		return errors.New("checkpoint id must not be empty")
	}
	if err := upsert(ctx, c.db, c.input, id, "", ManualRunID, c.now().UnixMilli()); err != nil {
		return c.wrap(err, "failed to set checkpoint")
	}
	c.logger.Infow("Checkpoint set manually", logger.FieldContractID, string(id), logger.FieldInput, c.input)
	return nil
}

// Reset deletes the checkpoint of this input; the next run starts from the
// top (or from the folder fallback). Outcome history is kept.
func (c *Checkpoint) Reset(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE input = ?`, c.input); err != nil {
		return c.wrap(err, "failed to reset checkpoint")
	}
	c.logger.Infow("Checkpoint reset", logger.FieldInput, c.input)
	return nil
}

// Failed lists the contracts of this input whose latest recorded outcome was
// not successful, in the order of those latest attempts.
func (c *Checkpoint) Failed(ctx context.Context) ([]contract.Outcome, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT o.contract_id, o.status, o.duration_ms, o.file_path
		FROM outcomes o
		WHERE o.input = ?
		  AND o.id = (SELECT MAX(i.id) FROM outcomes i WHERE i.input = o.input AND i.contract_id = o.contract_id)
		ORDER BY o.id`, c.input)
	if err != nil {
		return nil, c.wrap(err, "failed to query outcomes")
	}
	defer rows.Close()

	var failed []contract.Outcome
	for rows.Next() {
		var (
			id, status, path string
			durationMS       int64
		)
		if err := rows.Scan(&id, &status, &durationMS, &path); err != nil {
			return nil, c.wrap(err, "failed to scan outcome")
		}
		st, err := contract.ParseStatus(status)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt outcome for %s", id)
		}
		if st.Succeeded() {
			continue
		}
		failed = append(failed, contract.NewOutcome(contract.ID(id), st, time.Duration(durationMS)*time.Millisecond, path))
	}
	if err := rows.Err(); err != nil {
		return nil, c.wrap(err, "failed to iterate outcomes")
	}
	return failed, nil
}

// Runs summarizes the runs recorded for this input, oldest first.
func (c *Checkpoint) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT run_id, MIN(recorded_at), MAX(recorded_at), COUNT(*),
		       SUM(CASE WHEN status IN (?, ?) THEN 1 ELSE 0 END)
		FROM outcomes
		WHERE input = ?
		GROUP BY run_id
		ORDER BY MIN(id)`,
		contract.Processed.String(), contract.NoFiles.String(), c.input)
	if err != nil {
		return nil, c.wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r                 RunSummary
			started, finished int64
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &r.Total, &r.Succeeded); err != nil {
			return nil, c.wrap(err, "failed to scan run")
		}
		r.Started = time.UnixMilli(started)
		r.Finished = time.UnixMilli(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, c.wrap(err, "failed to iterate runs")
	}
	return runs, nil
}

func (c *Checkpoint) wrap(err error, msg string) error {
	err = errors.Wrapf(err, "%s (input %s)", msg, c.input)
	if db.IsDatabaseClosed(err) {
		return errors.WithHint(err, "the checkpoint database was closed before the run finished")
	}
	if db.IsBusy(err) {
		return errors.WithHint(err, "another harvest process is writing the same checkpoint database")
	}
	return err
}
