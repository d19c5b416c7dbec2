// Package runlog keeps a SQLite journal of training runs: the configuration each run
// started with, the metrics of every epoch and the final test scores.
package runlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/neurlang/digitnet/config"
	"github.com/neurlang/digitnet/trainer"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	started_at    INTEGER NOT NULL,
	finished_at   INTEGER,
	config        TEXT NOT NULL,
	test_loss     REAL,
	test_accuracy REAL
);
CREATE TABLE IF NOT EXISTS epochs (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	epoch        INTEGER NOT NULL,
	loss         REAL NOT NULL,
	accuracy     REAL NOT NULL,
	val_loss     REAL NOT NULL,
	val_accuracy REAL NOT NULL,
	duration_ns  INTEGER NOT NULL,
	PRIMARY KEY (run_id, epoch)
);`

// ErrUnknownRun is returned when recording into a run that was never started.
var ErrUnknownRun = errors.New("unknown run")

// Store is an open journal.
type Store struct {
	db *sql.DB
}

// Run is one journal entry.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time // zero while the run is unfinished
	Config   string    // YAML

	TestLoss     float64
	TestAccuracy float64

	Epochs []trainer.Epoch
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening run log %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "creating run log schema in %s", path)
	}
	return &Store{db: db}, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run with its configuration.
func (s *Store) StartRun(ctx context.Context, id string, c *config.Config) error {
	doc, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding run config")
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (id, started_at, config) VALUES (?, ?, ?)`,
		id, time.Now().UnixNano(), string(doc))
	return errors.Wrapf(err, "starting run %s", id)
}

func (s *Store) exists(ctx context.Context, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&n); err != nil {
		return errors.Wrapf(err, "looking up run %s", id)
	}
	if n == 0 {
		return errors.Wrapf(ErrUnknownRun, "%s", id)
	}
	return nil
}

// RecordEpoch stores the metrics of one epoch.
func (s *Store) RecordEpoch(ctx context.Context, id string, e trainer.Epoch) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO epochs
		(run_id, epoch, loss, accuracy, val_loss, val_accuracy, duration_ns) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, e.Index, e.Loss, e.Accuracy, e.ValLoss, e.ValAccuracy, int64(e.Duration))
	return errors.Wrapf(err, "recording epoch %d of run %s", e.Index, id)
}

// FinishRun stores the test scores of a run.
func (s *Store) FinishRun(ctx context.Context, id string, testLoss, testAccuracy float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET finished_at = ?, test_loss = ?, test_accuracy = ? WHERE id = ?`,
		time.Now().UnixNano(), testLoss, testAccuracy, id)
	if err != nil {
		return errors.Wrapf(err, "finishing run %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrUnknownRun, "%s", id)
	}
	return nil
}

// Runs lists all runs, oldest first, with their epochs.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, config, test_loss, test_accuracy
		FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		epochs, err := s.epochs(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Epochs = epochs
	}
	return runs, nil
}

// rowScanner is the part of *sql.Rows the run listing reads.
type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

func scanRuns(rows rowScanner) ([]Run, error) {
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  int64
			finished sql.NullInt64
			loss     sql.NullFloat64
			acc      sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Config, &loss, &acc); err != nil {
			return nil, errors.Wrap(err, "reading run")
		}
		r.Started = time.Unix(0, started)
		if finished.Valid {
			r.Finished = time.Unix(0, finished.Int64)
		}
		r.TestLoss, r.TestAccuracy = loss.Float64, acc.Float64
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	return runs, nil
}

func (s *Store) epochs(ctx context.Context, id string) ([]trainer.Epoch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT epoch, loss, accuracy, val_loss, val_accuracy, duration_ns
		FROM epochs WHERE run_id = ? ORDER BY epoch`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "listing epochs of run %s", id)
	}
	defer rows.Close()
	var out []trainer.Epoch
	for rows.Next() {
		var e trainer.Epoch
		var d int64
		if err := rows.Scan(&e.Index, &e.Loss, &e.Accuracy, &e.ValLoss, &e.ValAccuracy, &d); err != nil {
			return nil, errors.Wrapf(err, "reading epoch of run %s", id)
		}
		e.Duration = time.Duration(d)
		out = append(out, e)
	}
	return out, errors.Wrapf(rows.Err(), "listing epochs of run %s", id)
}
