package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewPgxPool connects with a bounded pool size and a short dial timeout.
func NewPgxPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pgxpool.ConnectConfig(dialCtx, cfg)
}

// EnsureSchema creates the tables the service owns. Idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS jobs (
  id               TEXT PRIMARY KEY,
  title            TEXT NOT NULL,
  company          TEXT NOT NULL DEFAULT '',
  location         TEXT NOT NULL DEFAULT '',
  url              TEXT NOT NULL,
  apply_url        TEXT NOT NULL DEFAULT '',
  description      TEXT NOT NULL DEFAULT '',
  source           TEXT NOT NULL DEFAULT '',
  application_type TEXT NOT NULL DEFAULT 'unknown',
  status           TEXT NOT NULL DEFAULT 'new',
  posted_at        TIMESTAMPTZ,
  discovered_at    TIMESTAMPTZ NOT NULL,
  applied_at       TIMESTAMPTZ,
  last_attempt_at  TIMESTAMPTZ,
  attempt_count    INT NOT NULL DEFAULT 0,
  last_error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS jobs_status_idx ON jobs (status);
CREATE INDEX IF NOT EXISTS jobs_source_idx ON jobs (source);

CREATE TABLE IF NOT EXISTS application_attempts (
  id         TEXT PRIMARY KEY,
  job_id     TEXT NOT NULL REFERENCES jobs(id),
  started_at TIMESTAMPTZ NOT NULL,
  ended_at   TIMESTAMPTZ,
  outcome    TEXT NOT NULL DEFAULT '',
  fields     JSONB NOT NULL DEFAULT '[]',
  answers    JSONB NOT NULL DEFAULT '[]',
  error      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS attempts_job_idx ON application_attempts (job_id, started_at DESC);
`
	_, err := pool.Exec(ctx, ddl)
	return err
}
