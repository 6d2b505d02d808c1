package repository

import (
	"context"

	"job-autopilot/internal/domain/model"
)

// JobFilter narrows List queries. Zero values mean "any".
type JobFilter struct {
	Status  model.JobStatus
	Source  string
	Type    model.ApplicationType
	Page    int
	PerPage int
}

type JobRepository interface {
	// Save inserts a job. Rediscovery of an existing ID is a no-op: the
	// stored row is never overwritten with second-source data.
	Save(ctx context.Context, tx Tx, job *model.Job) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)
	ExistsByID(ctx context.Context, tx Tx, id string) (bool, error)
	List(ctx context.Context, tx Tx, f JobFilter) ([]*model.Job, int, error)

	// Transition performs a conditional single-row status update
	// (WHERE status = from). Illegal edges return ErrIllegalTransition;
	// a lost race returns ErrNotFound.
	Transition(ctx context.Context, tx Tx, id string, from, to model.JobStatus, errSummary string) error

	// SetApplicationType updates classification without touching status.
	SetApplicationType(ctx context.Context, tx Tx, id string, t model.ApplicationType) error

	// MarkAttempt bumps the attempt counter and last-attempt timestamp.
	MarkAttempt(ctx context.Context, tx Tx, id string) error

	// PickActionable fetches up to limit jobs in status new/queued,
	// skipping rows locked by concurrent pickers.
	PickActionable(ctx context.Context, limit int) ([]*model.Job, error)

	CountByStatus(ctx context.Context, tx Tx) (map[model.JobStatus]int, error)
}
