// Package store archives pipeline runs in SQLite or Postgres.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/poxc-cli/internal/config"
	"github.com/sells-group/poxc-cli/internal/model"
	"github.com/sells-group/poxc-cli/internal/resilience"
)

// ErrNotFound is returned by GetRun when no run has the given ID.
var ErrNotFound = errors.New("store: run not found")

// RunFilter pages through archived runs, newest first.
type RunFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultListLimit caps ListRuns when the filter sets no limit.
const DefaultListLimit = 100

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the run archive.
type Store interface {
	// SaveRun persists a run, assigning ID and CreatedAt when unset.
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured backend, retrying transient connection
// failures, and applies its schema.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("store", "open "+cfg.Driver)

	st, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (Store, error) {
		return connect(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func connect(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns})
	}
	return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
}

// prepare fills the run's ID and creation time.
func prepare(run *model.Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}
