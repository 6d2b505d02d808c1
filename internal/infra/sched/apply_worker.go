package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/repository"
	"job-autopilot/internal/infra/worker"
	"job-autopilot/internal/usecase"
)

// ApplyWorker periodically picks actionable jobs and submits application
// attempts to the worker pool. The per-job lock makes a double pick harmless:
// the second attempt sees "busy" and walks away.
type ApplyWorker struct {
	interval  time.Duration
	maxPerRun int
	jobs      repository.JobRepository
	classify  *usecase.ClassifyUseCase
	apply     *usecase.ApplyUseCase
	pool      *worker.Pool
	log       *zerolog.Logger
}

func NewApplyWorker(
	interval time.Duration,
	maxPerRun int,
	jobs repository.JobRepository,
	classify *usecase.ClassifyUseCase,
	apply *usecase.ApplyUseCase,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *ApplyWorker {
	if maxPerRun <= 0 {
		maxPerRun = 5
	}
	l := logger.With().Str("component", "ApplyWorker").Logger()
	return &ApplyWorker{
		interval:  interval,
		maxPerRun: maxPerRun,
		jobs:      jobs,
		classify:  classify,
		apply:     apply,
		pool:      pool,
		log:       &l,
	}
}

func (w *ApplyWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting apply worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping apply worker")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ApplyWorker) runOnce(ctx context.Context) {
	picked, err := w.jobs.PickActionable(ctx, w.maxPerRun)
	if err != nil {
		w.log.Error().Err(err).Msg("picking actionable jobs failed")
		return
	}

	for _, job := range picked {
		job := job
		task := func(taskCtx context.Context) error {
			if job.ApplicationType == model.TypeUnknown {
				if _, err := w.classify.Classify(taskCtx, job); err != nil {
					w.log.Warn().Str("job_id", job.ID).Err(err).Msg("classification failed")
				}
			}
			_, err := w.apply.Apply(taskCtx, job.ID)
			if errors.Is(err, domain.ErrAttemptInProgress) {
				// another picker beat us to it
				return nil
			}
			if errors.Is(err, domain.ErrValidationFailure) {
				return nil
			}
			return err
		}
		if err := w.pool.Submit(task); err != nil {
			w.log.Warn().Str("job_id", job.ID).Err(err).Msg("submit skipped")
		}
	}
}
