package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/poxc-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	inputs         TEXT NOT NULL DEFAULT '{}',
	report         TEXT,
	n_results      INTEGER NOT NULL DEFAULT 0,
	n_calibrations INTEGER NOT NULL DEFAULT 0,
	n_skipped      INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	prepare(run)
	inputsJSON, reportJSON, err := marshalRun(run)
	if err != nil {
		return err
	}
	sum := run.Summarize()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, inputs, report, n_results, n_calibrations, n_skipped, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(inputsJSON), nullString(reportJSON), sum.Results, sum.Calibrations, sum.Skipped, run.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var (
		r          model.Run
		inputsJSON string
		reportJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, inputs, report, created_at FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &inputsJSON, &reportJSON, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}

	var report []byte
	if reportJSON.Valid {
		report = []byte(reportJSON.String)
	}
	if err := unmarshalRun(&r, []byte(inputsJSON), report); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, n_results, n_calibrations, n_skipped FROM runs
		 ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		filter.limit(), filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var sum model.RunSummary
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &sum.Results, &sum.Calibrations, &sum.Skipped); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// marshalRun encodes the run's inputs and report. A nil report encodes as nil.
func marshalRun(run *model.Run) (inputs, report []byte, err error) {
	in := run.Inputs
	if in == nil {
		in = map[string]string{}
	}
	inputs, err = json.Marshal(in)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal inputs")
	}
	if run.Report != nil {
		report, err = json.Marshal(run.Report)
		if err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal report")
		}
	}
	return inputs, report, nil
}

func unmarshalRun(r *model.Run, inputs, report []byte) error {
	if len(inputs) > 0 {
		if err := json.Unmarshal(inputs, &r.Inputs); err != nil {
			return eris.Wrap(err, "store: unmarshal inputs")
		}
	}
	if len(report) > 0 {
		r.Report = &model.Report{}
		if err := json.Unmarshal(report, r.Report); err != nil {
			return eris.Wrap(err, "store: unmarshal report")
		}
	}
	return nil
}
