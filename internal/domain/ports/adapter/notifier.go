package adapter

import (
	"context"

	"job-autopilot/internal/domain/model"
)

// Notifier delivers escalation messages to a human operator. Fire-and-forget:
// delivery failure must never affect job status.
type Notifier interface {
	NotifyNeedsReview(ctx context.Context, job *model.Job, reason string) error
	NotifyApplied(ctx context.Context, job *model.Job) error
	NotifyFailed(ctx context.Context, job *model.Job, errSummary string) error
}
