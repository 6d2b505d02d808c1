package repository

import (
	"context"

	"job-autopilot/internal/domain/model"
)

type AttemptRepository interface {
	// Save upserts the attempt, including its field results and answer
	// records.
	Save(ctx context.Context, tx Tx, a *model.ApplicationAttempt) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ApplicationAttempt, error)
	// FindLatestByJob returns the newest attempt for the job, or
	// ErrNotFound when it has never been attempted.
	FindLatestByJob(ctx context.Context, tx Tx, jobID string) (*model.ApplicationAttempt, error)
	ListByJob(ctx context.Context, tx Tx, jobID string) ([]*model.ApplicationAttempt, error)
}
