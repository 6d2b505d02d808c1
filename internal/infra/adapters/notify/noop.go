package notify

import (
	"context"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier is wired when no notification transport is configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (NoopNotifier) NotifyNeedsReview(context.Context, *model.Job, string) error { return nil }
func (NoopNotifier) NotifyApplied(context.Context, *model.Job) error             { return nil }
func (NoopNotifier) NotifyFailed(context.Context, *model.Job, string) error      { return nil }
