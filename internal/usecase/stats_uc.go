package usecase

import (
	"context"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/repository"
	"job-autopilot/internal/infra/metrics"
)

// StatsUseCase reports per-status job counts for the control surface and
// refreshes the status gauge as a side effect.
type StatsUseCase struct {
	jobs repository.JobRepository
}

func NewStatsUseCase(jobs repository.JobRepository) *StatsUseCase {
	return &StatsUseCase{jobs: jobs}
}

func (uc *StatsUseCase) CountByStatus(ctx context.Context) (map[model.JobStatus]int, error) {
	counts, err := uc.jobs.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	for status, n := range counts {
		metrics.SetJobsByStatus(string(status), n)
	}
	return counts, nil
}
