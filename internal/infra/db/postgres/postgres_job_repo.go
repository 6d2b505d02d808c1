package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *jobRepo {
	return &jobRepo{pool: pool}
}

const jobColumns = `id, title, company, location, url, apply_url, description, source,
application_type, status, posted_at, discovered_at, applied_at, last_attempt_at,
attempt_count, last_error`

func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var appType, status string
	err := row.Scan(
		&j.ID, &j.Title, &j.Company, &j.Location, &j.URL, &j.ApplyURL, &j.Description,
		&j.Source, &appType, &status, &j.PostedAt, &j.DiscoveredAt, &j.AppliedAt,
		&j.LastAttemptAt, &j.AttemptCount, &j.LastError,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	j.ApplicationType = model.ApplicationType(appType)
	j.Status = model.JobStatus(status)
	return &j, nil
}

// Save inserts a new job. ON CONFLICT DO NOTHING keeps rediscovery from
// overwriting an existing row or regressing a terminal status.
func (r *jobRepo) Save(ctx context.Context, tx repository.Tx, job *model.Job) error {
	const q = `
INSERT INTO jobs (` + jobColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.Title, job.Company, job.Location, job.URL, job.ApplyURL,
		job.Description, job.Source, string(job.ApplicationType), string(job.Status),
		job.PostedAt, job.DiscoveredAt, job.AppliedAt, job.LastAttemptAt,
		job.AttemptCount, job.LastError)
	return err
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) ExistsByID(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)`, id)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *jobRepo) List(ctx context.Context, tx repository.Tx, f repository.JobFilter) ([]*model.Job, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.Source != "" {
		where = append(where, "source = "+arg(f.Source))
	}
	if f.Type != "" {
		where = append(where, "application_type = "+arg(string(f.Type)))
	}
	cond := strings.Join(where, " AND ")

	countRow, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM jobs WHERE `+cond, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := countRow.Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.PerPage <= 0 {
		f.PerPage = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	q := `SELECT ` + jobColumns + ` FROM jobs WHERE ` + cond +
		` ORDER BY discovered_at DESC LIMIT ` + arg(f.PerPage) + ` OFFSET ` + arg((f.Page-1)*f.PerPage)

	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, j)
	}
	return out, total, rows.Err()
}

// Transition enforces the state machine at the store layer: the edge must be
// legal and the row must still carry the expected prior status. The update is
// a conditional single-row write so a polling reader and a concurrent
// orchestrator cannot lose updates to each other.
func (r *jobRepo) Transition(ctx context.Context, tx repository.Tx, id string, from, to model.JobStatus, errSummary string) error {
	if !model.CanTransition(from, to) {
		return domain.ErrIllegalTransition
	}

	q := `UPDATE jobs SET status = $1, last_error = $2 WHERE id = $3 AND status = $4`
	args := []interface{}{string(to), errSummary, id, string(from)}
	if to == model.JobStatusApplied {
		q = `UPDATE jobs SET status = $1, last_error = $2, applied_at = $5 WHERE id = $3 AND status = $4`
		args = append(args, time.Now())
	}

	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// either the row is gone or another writer changed the status first
		return domain.ErrNotFound
	}
	return nil
}

// SetApplicationType is idempotent and never touches status: classification
// may be corrected on a later pass.
func (r *jobRepo) SetApplicationType(ctx context.Context, tx repository.Tx, id string, t model.ApplicationType) error {
	tag, err := execSQL(ctx, r.pool, tx,
		`UPDATE jobs SET application_type = $1 WHERE id = $2`, string(t), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *jobRepo) MarkAttempt(ctx context.Context, tx repository.Tx, id string) error {
	_, err := execSQL(ctx, r.pool, tx,
		`UPDATE jobs SET attempt_count = attempt_count + 1, last_attempt_at = $1 WHERE id = $2`,
		time.Now(), id)
	return err
}

// PickActionable skips rows locked by concurrent pickers so two apply workers
// never select the same candidates.
func (r *jobRepo) PickActionable(ctx context.Context, limit int) ([]*model.Job, error) {
	const q = `
SELECT ` + jobColumns + `
FROM jobs
WHERE status IN ('new', 'queued')
ORDER BY discovered_at
LIMIT $1
FOR UPDATE SKIP LOCKED;`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *jobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.JobStatus]int, error) {
	rows, err := pickRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.JobStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.JobStatus(status)] = n
	}
	return out, rows.Err()
}
