package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/repository"
)

var _ repository.AttemptRepository = (*attemptRepo)(nil)

type attemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) *attemptRepo {
	return &attemptRepo{pool: pool}
}

func (r *attemptRepo) Save(ctx context.Context, tx repository.Tx, a *model.ApplicationAttempt) error {
	fields, err := json.Marshal(a.Fields)
	if err != nil {
		return err
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO application_attempts (id, job_id, started_at, ended_at, outcome, fields, answers, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  ended_at = EXCLUDED.ended_at,
  outcome  = EXCLUDED.outcome,
  fields   = EXCLUDED.fields,
  answers  = EXCLUDED.answers,
  error    = EXCLUDED.error;`

	_, err = execSQL(ctx, r.pool, tx, q,
		a.ID, a.JobID, a.StartedAt, a.EndedAt, string(a.Outcome), fields, answers, a.Error)
	return err
}

const attemptColumns = `id, job_id, started_at, ended_at, outcome, fields, answers, error`

func scanAttempt(row pgx.Row) (*model.ApplicationAttempt, error) {
	var a model.ApplicationAttempt
	var outcome string
	var fields, answers []byte
	err := row.Scan(&a.ID, &a.JobID, &a.StartedAt, &a.EndedAt, &outcome, &fields, &answers, &a.Error)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Outcome = model.AttemptOutcome(outcome)
	if err := json.Unmarshal(fields, &a.Fields); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attemptRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ApplicationAttempt, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+attemptColumns+` FROM application_attempts WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return scanAttempt(row)
}

func (r *attemptRepo) FindLatestByJob(ctx context.Context, tx repository.Tx, jobID string) (*model.ApplicationAttempt, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+attemptColumns+` FROM application_attempts WHERE job_id = $1 ORDER BY started_at DESC LIMIT 1`, jobID)
	if err != nil {
		return nil, err
	}
	return scanAttempt(row)
}

func (r *attemptRepo) ListByJob(ctx context.Context, tx repository.Tx, jobID string) ([]*model.ApplicationAttempt, error) {
	rows, err := pickRows(ctx, r.pool, tx,
		`SELECT `+attemptColumns+` FROM application_attempts WHERE job_id = $1 ORDER BY started_at DESC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ApplicationAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
