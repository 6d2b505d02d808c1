package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrIllegalTransition = errors.New("illegal status transition")

	// Discovery pipeline
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrValidationFailure = errors.New("link validation failed")

	// Application workflow
	ErrAttemptInProgress  = errors.New("attempt already in progress for job")
	ErrFillFailure        = errors.New("fill step failed")
	ErrNeedsHumanJudgment = errors.New("needs human judgment")
	ErrAttemptAborted     = errors.New("attempt aborted")
	ErrRateLimited        = errors.New("rate limited")
)
