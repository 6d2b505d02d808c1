package adapter

import (
	"context"

	"job-autopilot/internal/domain/model"
)

type FillResult string

const (
	FillDone         FillResult = "done"
	FillNeedsReview  FillResult = "needs_review"
	FillCannotHandle FillResult = "cannot_handle"
)

// FillOutcome is the explicit result of a fill run. Escalation is an expected
// branch, not an error: needs_review carries the unresolved field or
// condition.
type FillOutcome struct {
	Result FillResult
	Reason string
	Field  string
}

// AnswerFunc resolves a free-text question to a screened answer. The filler
// must not submit a field whose record carries a reject verdict; the
// orchestrator maps that to escalation.
type AnswerFunc func(ctx context.Context, question string) (model.AnswerRecord, error)

// Filler knows how to operate one ATS platform's form. Implementations are
// selected by the classifier's output tag, with a generic fallback for
// unknown platforms.
type Filler interface {
	Platform() model.ApplicationType
	// CanHandle probes the current page for the platform's form.
	CanHandle(ctx context.Context, s Session) bool
	// Fill maps known fields from the profile, resolves free-text questions
	// via answer, and records every touched field on the attempt.
	Fill(ctx context.Context, s Session, job *model.Job, attempt *model.ApplicationAttempt, profile *model.ApplicantProfile, answer AnswerFunc) (FillOutcome, error)
}
