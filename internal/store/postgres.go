package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/poxc-cli/internal/db"
	"github.com/sells-group/poxc-cli/internal/model"
)

// PostgresStore implements Store using pgxpool. Besides the report document
// it copies every result row into poxc_results for SQL querying.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS poxc_runs (
	id             TEXT PRIMARY KEY,
	inputs         JSONB NOT NULL DEFAULT '{}',
	report         JSONB,
	n_results      INTEGER NOT NULL DEFAULT 0,
	n_calibrations INTEGER NOT NULL DEFAULT 0,
	n_skipped      INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_poxc_runs_created_at ON poxc_runs(created_at DESC);

CREATE TABLE IF NOT EXISTS poxc_results (
	run_id           TEXT NOT NULL REFERENCES poxc_runs(id) ON DELETE CASCADE,
	plate_id         TEXT NOT NULL,
	sample_id        TEXT NOT NULL,
	display_name     TEXT,
	run_date         TEXT NOT NULL,
	n_replicates     INTEGER NOT NULL,
	mean_absorbance  DOUBLE PRECISION,
	stdev_absorbance DOUBLE PRECISION,
	cv_percent       DOUBLE PRECISION,
	high_cv          BOOLEAN NOT NULL DEFAULT false,
	slope            DOUBLE PRECISION NOT NULL,
	intercept        DOUBLE PRECISION NOT NULL,
	mass_kg          DOUBLE PRECISION NOT NULL,
	poxc_mg_per_kg   DOUBLE PRECISION,
	PRIMARY KEY (run_id, plate_id, sample_id)
);

CREATE INDEX IF NOT EXISTS idx_poxc_results_sample ON poxc_results(sample_id, run_date);
`

// resultColumns is the COPY column order for poxc_results.
var resultColumns = []string{
	"run_id", "plate_id", "sample_id", "display_name", "run_date", "n_replicates",
	"mean_absorbance", "stdev_absorbance", "cv_percent", "high_cv",
	"slope", "intercept", "mass_kg", "poxc_mg_per_kg",
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	prepare(run)
	inputsJSON, reportJSON, err := marshalRun(run)
	if err != nil {
		return err
	}
	sum := run.Summarize()

	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO poxc_runs (id, inputs, report, n_results, n_calibrations, n_skipped, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, inputsJSON, reportJSON, sum.Results, sum.Calibrations, sum.Skipped, run.CreatedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert run %s", run.ID)
		}
		if run.Report == nil {
			return nil
		}
		_, err := db.CopyFrom(ctx, tx, "poxc_results", resultColumns, resultRows(run.ID, run.Report.Results))
		return err
	})
}

func resultRows(runID string, results []model.ComputedResult) [][]any {
	rows := make([][]any, 0, len(results))
	for _, r := range results {
		rows = append(rows, []any{
			runID, r.PlateID, r.SampleID, r.DisplayName, r.RunDate, r.Replicates,
			nullFloat(r.MeanAbsorbance), nullFloat(r.StdevAbsorbance), nullFloat(r.CVPercent), r.HighCV,
			r.Slope, r.Intercept, r.MassKg, nullFloat(r.PoxcMgPerKg),
		})
	}
	return rows
}

func nullFloat(f *model.Float) any {
	if f == nil {
		return nil
	}
	return f.Float64()
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var (
		r                  model.Run
		inputsJSON, report []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, inputs, report, created_at FROM poxc_runs WHERE id = $1`, id,
	).Scan(&r.ID, &inputsJSON, &report, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	if err := unmarshalRun(&r, inputsJSON, report); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, n_results, n_calibrations, n_skipped FROM poxc_runs
		 ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		filter.limit(), filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var sum model.RunSummary
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &sum.Results, &sum.Calibrations, &sum.Skipped); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
