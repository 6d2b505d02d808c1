package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/domain/ports/repository"
	"job-autopilot/internal/infra/metrics"
)

// Locker serializes attempts per job: at most one in-flight attempt exists for
// a job ID. Contention surfaces as domain.ErrAttemptInProgress.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// AbortSignal carries cooperative cancellation requests to running attempts.
type AbortSignal interface {
	Request(ctx context.Context, jobID string) error
	Requested(ctx context.Context, jobID string) (bool, error)
	Clear(ctx context.Context, jobID string) error
}

func jobLockKey(jobID string) string { return "job_lock:" + jobID }

// FillerSet selects the platform filler for an application type, falling back
// to the generic filler for unknown platforms.
type FillerSet struct {
	byType   map[model.ApplicationType]adapter.Filler
	fallback adapter.Filler
}

func NewFillerSet(fallback adapter.Filler, fillers ...adapter.Filler) *FillerSet {
	byType := make(map[model.ApplicationType]adapter.Filler, len(fillers))
	for _, f := range fillers {
		byType[f.Platform()] = f
	}
	return &FillerSet{byType: byType, fallback: fallback}
}

func (fs *FillerSet) For(t model.ApplicationType) adapter.Filler {
	if f, ok := fs.byType[t]; ok {
		return f
	}
	return fs.fallback
}

// ApplyConfig tunes one orchestrator run.
type ApplyConfig struct {
	StepTimeout   time.Duration
	StalenessDays int
	AutoSubmit    bool
}

const maxRedirectHops = 2

// applyClickSelector matches the apply link on landing/redirector pages.
const applyClickSelector = `a[href*="apply"], a.apply, button.apply`

// ApplyUseCase drives one application attempt per job through a strict
// sub-step sequence: lock, transition, session, navigate, classify, fill,
// validate, submit. Every sub-step boundary checks the abort flag; lock and
// session are released on every path.
type ApplyUseCase struct {
	jobs     repository.JobRepository
	attempts repository.AttemptRepository
	tm       repository.TransactionManager
	profiles repository.ProfileRepository
	sessions adapter.SessionManager
	fillers  *FillerSet
	answers  *AnswerEngine
	locker   Locker
	abort    AbortSignal
	notifier adapter.Notifier
	cfg      ApplyConfig
	log      *zerolog.Logger
}

func NewApplyUseCase(
	jobs repository.JobRepository,
	attempts repository.AttemptRepository,
	tm repository.TransactionManager,
	profiles repository.ProfileRepository,
	sessions adapter.SessionManager,
	fillers *FillerSet,
	answers *AnswerEngine,
	locker Locker,
	abort AbortSignal,
	notifier adapter.Notifier,
	cfg ApplyConfig,
	logger *zerolog.Logger,
) *ApplyUseCase {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 60 * time.Second
	}
	l := logger.With().Str("component", "ApplyUseCase").Logger()
	return &ApplyUseCase{
		jobs:     jobs,
		attempts: attempts,
		tm:       tm,
		profiles: profiles,
		sessions: sessions,
		fillers:  fillers,
		answers:  answers,
		locker:   locker,
		abort:    abort,
		notifier: notifier,
		cfg:      cfg,
		log:      &l,
	}
}

// runResult is the terminal state of one attempt run.
type runResult struct {
	status  model.JobStatus
	outcome model.AttemptOutcome
	summary string
}

// Apply runs one attempt against the job. Contention on the per-job lock
// returns domain.ErrAttemptInProgress with no state change. A stale posting
// expires before any lock or session is taken.
func (uc *ApplyUseCase) Apply(ctx context.Context, jobID string) (*model.ApplicationAttempt, error) {
	job, err := uc.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}

	if uc.cfg.StalenessDays > 0 && job.PostedAt != nil {
		if time.Since(*job.PostedAt) > time.Duration(uc.cfg.StalenessDays)*24*time.Hour {
			if err := uc.jobs.Transition(ctx, nil, job.ID, job.Status, model.JobStatusExpired,
				fmt.Sprintf("posting older than %d days", uc.cfg.StalenessDays)); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("posting is stale: %w", domain.ErrValidationFailure)
		}
	}

	if !job.Actionable() {
		return nil, fmt.Errorf("job %s is %s: %w", job.ID, job.Status, domain.ErrInvalidArgument)
	}

	lockTTL := uc.cfg.StepTimeout*8 + time.Minute
	token, err := uc.locker.TryLock(ctx, jobLockKey(job.ID), lockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := uc.locker.Unlock(context.Background(), jobLockKey(job.ID), token); err != nil {
			uc.log.Warn().Str("job_id", job.ID).Err(err).Msg("unlock failed")
		}
	}()

	// a flag left over from a request against an earlier attempt must not
	// poison this one
	_ = uc.abort.Clear(ctx, job.ID)

	prevStatus := job.Status
	if job.Status == model.JobStatusNew {
		if err := uc.jobs.Transition(ctx, nil, job.ID, model.JobStatusNew, model.JobStatusQueued, ""); err != nil {
			return nil, err
		}
		job.Status = model.JobStatusQueued
	}
	if err := uc.jobs.Transition(ctx, nil, job.ID, model.JobStatusQueued, model.JobStatusInProgress, ""); err != nil {
		return nil, err
	}
	if err := uc.jobs.MarkAttempt(ctx, nil, job.ID); err != nil {
		return nil, err
	}

	attempt, err := model.NewApplicationAttempt(ulid.Make().String(), job.ID)
	if err != nil {
		return nil, err
	}
	if err := uc.attempts.Save(ctx, nil, attempt); err != nil {
		return nil, err
	}

	log := uc.log.With().Str("job_id", job.ID).Str("attempt_id", attempt.ID).Logger()
	log.Info().Str("title", job.Title).Str("company", job.Company).Msg("attempt started")

	res := uc.run(ctx, &log, job, attempt, prevStatus)

	attempt.Close(res.outcome, res.summary)
	// the closed attempt and the job's final status must land together
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.attempts.Save(ctx, tx, attempt); err != nil {
			return err
		}
		return uc.jobs.Transition(ctx, tx, job.ID, model.JobStatusInProgress, res.status, res.summary)
	})
	if err != nil {
		log.Error().Err(err).Str("to", string(res.status)).Msg("recording attempt result failed")
	}
	_ = uc.abort.Clear(ctx, job.ID)

	metrics.IncAttempt(string(res.outcome))
	metrics.ObserveAttemptDuration(time.Since(attempt.StartedAt))

	switch res.status {
	case model.JobStatusNeedsReview:
		if err := uc.notifier.NotifyNeedsReview(ctx, job, res.summary); err != nil {
			log.Warn().Err(err).Msg("needs-review notification failed")
		}
	case model.JobStatusApplied:
		if err := uc.notifier.NotifyApplied(ctx, job); err != nil {
			log.Warn().Err(err).Msg("applied notification failed")
		}
	case model.JobStatusFailed:
		if err := uc.notifier.NotifyFailed(ctx, job, res.summary); err != nil {
			log.Warn().Err(err).Msg("failure notification failed")
		}
	}

	log.Info().Str("outcome", string(res.outcome)).Str("status", string(res.status)).Msg("attempt finished")
	return attempt, nil
}

// run executes the sub-step sequence and maps its end into a runResult.
// prevStatus is restored when an abort lands before any irreversible progress.
func (uc *ApplyUseCase) run(ctx context.Context, log *zerolog.Logger, job *model.Job, attempt *model.ApplicationAttempt, prevStatus model.JobStatus) runResult {
	abortResult := func() runResult {
		if attempt.FilledAny() {
			return runResult{model.JobStatusFailed, model.OutcomeAborted, "aborted after irreversible progress"}
		}
		return runResult{prevStatus, model.OutcomeAborted, "aborted before any field was written"}
	}

	var session adapter.Session
	err := uc.step(ctx, job.ID, func(stepCtx context.Context) error {
		var err error
		session, err = uc.sessions.NewSession(stepCtx)
		return err
	})
	if errors.Is(err, domain.ErrAttemptAborted) {
		return abortResult()
	}
	if err != nil {
		return runResult{model.JobStatusFailed, model.OutcomeFailure, "opening session: " + err.Error()}
	}
	defer session.Close()

	target := job.ApplyURL
	if target == "" {
		target = job.URL
	}
	var httpStatus int
	err = uc.step(ctx, job.ID, func(stepCtx context.Context) error {
		var err error
		httpStatus, _, err = session.Navigate(stepCtx, target)
		return err
	})
	if errors.Is(err, domain.ErrAttemptAborted) {
		return abortResult()
	}
	if err != nil || httpStatus == 404 || httpStatus >= 500 {
		summary := fmt.Sprintf("posting gone (HTTP %d)", httpStatus)
		if err != nil {
			summary = "posting unreachable: " + err.Error()
		}
		return runResult{model.JobStatusExpired, model.OutcomeFailure, summary}
	}

	platform := job.ApplicationType
	filler := uc.fillers.For(platform)
	err = uc.step(ctx, job.ID, func(stepCtx context.Context) error {
		var hopErr error
		platform, filler, hopErr = uc.resolveFiller(stepCtx, session, platform)
		return hopErr
	})
	if errors.Is(err, domain.ErrAttemptAborted) {
		return abortResult()
	}
	if errors.Is(err, domain.ErrNeedsHumanJudgment) {
		return runResult{model.JobStatusNeedsReview, model.OutcomeEscalated, err.Error()}
	}
	if err != nil {
		return runResult{model.JobStatusFailed, model.OutcomeFailure, "resolving form: " + err.Error()}
	}
	if platform != job.ApplicationType {
		if err := uc.jobs.SetApplicationType(ctx, nil, job.ID, platform); err != nil {
			log.Warn().Err(err).Msg("persisting reclassified type failed")
		}
		job.ApplicationType = platform
	}

	profile, err := uc.profiles.Load(ctx)
	if err != nil {
		return runResult{model.JobStatusFailed, model.OutcomeFailure, "loading profile: " + err.Error()}
	}

	answerFn := func(answerCtx context.Context, question string) (model.AnswerRecord, error) {
		rec, err := uc.answers.Answer(answerCtx, question, job, profile)
		if err != nil {
			return rec, err
		}
		attempt.RecordAnswer(rec)
		return rec, nil
	}

	var outcome adapter.FillOutcome
	err = uc.step(ctx, job.ID, func(stepCtx context.Context) error {
		var err error
		outcome, err = filler.Fill(stepCtx, session, job, attempt, profile, answerFn)
		return err
	})
	if errors.Is(err, domain.ErrAttemptAborted) {
		return abortResult()
	}
	if err != nil {
		return runResult{model.JobStatusFailed, model.OutcomeFailure, "fill: " + err.Error()}
	}
	switch outcome.Result {
	case adapter.FillCannotHandle:
		return runResult{model.JobStatusNeedsReview, model.OutcomeEscalated,
			"no filler can operate this form: " + outcome.Reason}
	case adapter.FillNeedsReview:
		summary := outcome.Reason
		if outcome.Field != "" {
			summary = fmt.Sprintf("%s (field %q)", outcome.Reason, outcome.Field)
		}
		return runResult{model.JobStatusNeedsReview, model.OutcomeEscalated, summary}
	}

	// a rejected answer is never submitted regardless of what the filler did
	for _, a := range attempt.Answers {
		if a.Verdict == model.VerdictReject {
			return runResult{model.JobStatusNeedsReview, model.OutcomeEscalated,
				fmt.Sprintf("rejected answer for %q: %s", a.Question, a.Reason)}
		}
	}

	if !uc.cfg.AutoSubmit {
		// completed but unsubmitted is reviewable, not failed
		return runResult{model.JobStatusNeedsReview, model.OutcomeEscalated, "auto-submit disabled"}
	}

	err = uc.step(ctx, job.ID, func(stepCtx context.Context) error {
		return session.Submit(stepCtx)
	})
	if errors.Is(err, domain.ErrAttemptAborted) {
		return abortResult()
	}
	if err != nil {
		return runResult{model.JobStatusFailed, model.OutcomeFailure, "submit: " + err.Error()}
	}

	return runResult{model.JobStatusApplied, model.OutcomeSuccess, ""}
}

// resolveFiller probes the current page for a fillable form, following up to
// maxRedirectHops click-throughs on landing/redirector pages and
// re-classifying after each hop.
func (uc *ApplyUseCase) resolveFiller(ctx context.Context, s adapter.Session, platform model.ApplicationType) (model.ApplicationType, adapter.Filler, error) {
	for hop := 0; ; hop++ {
		if platform == model.TypeUnknown || platform == model.TypeRedirector || platform == model.TypeBuiltin {
			html, err := s.Content(ctx)
			if err != nil {
				return platform, nil, err
			}
			platform, _ = Detect(s.CurrentURL(), html)
		}

		filler := uc.fillers.For(platform)
		if filler.CanHandle(ctx, s) {
			return platform, filler, nil
		}

		if hop >= maxRedirectHops {
			return platform, nil, fmt.Errorf("no application form after %d redirect hops: %w",
				hop, domain.ErrNeedsHumanJudgment)
		}
		if _, err := s.ClickThrough(ctx, applyClickSelector); err != nil {
			return platform, nil, fmt.Errorf("cannot reach application form: %w",
				domain.ErrNeedsHumanJudgment)
		}
		platform = model.TypeUnknown
	}
}

// step checks the abort flag, then runs fn under the per-step timeout. Aborts
// become observable at every sub-step boundary.
func (uc *ApplyUseCase) step(ctx context.Context, jobID string, fn func(ctx context.Context) error) error {
	aborted, err := uc.abort.Requested(ctx, jobID)
	if err != nil {
		uc.log.Warn().Str("job_id", jobID).Err(err).Msg("abort flag check failed")
	}
	if aborted {
		return domain.ErrAttemptAborted
	}
	stepCtx, cancel := context.WithTimeout(ctx, uc.cfg.StepTimeout)
	defer cancel()
	return fn(stepCtx)
}

// Abort requests cooperative cancellation of the job's in-flight attempt.
func (uc *ApplyUseCase) Abort(ctx context.Context, jobID string) error {
	if _, err := uc.jobs.FindByID(ctx, nil, jobID); err != nil {
		return err
	}
	return uc.abort.Request(ctx, jobID)
}

// Status returns the attempt row, live or closed.
func (uc *ApplyUseCase) Status(ctx context.Context, attemptID string) (*model.ApplicationAttempt, error) {
	return uc.attempts.FindByID(ctx, nil, attemptID)
}

// Retry re-queues a failed job. Operator-initiated only.
func (uc *ApplyUseCase) Retry(ctx context.Context, jobID string) error {
	return uc.jobs.Transition(ctx, nil, jobID, model.JobStatusFailed, model.JobStatusQueued, "")
}

// Undo reverses a recorded application so the job can be re-run.
// Operator-initiated only.
func (uc *ApplyUseCase) Undo(ctx context.Context, jobID string) error {
	return uc.jobs.Transition(ctx, nil, jobID, model.JobStatusApplied, model.JobStatusNew, "")
}
