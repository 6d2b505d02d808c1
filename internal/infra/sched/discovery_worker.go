package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"job-autopilot/internal/usecase"
)

// DiscoveryWorker periodically runs the aggregator over every registered
// source.
type DiscoveryWorker struct {
	interval       time.Duration
	limitPerSource int
	discovery      *usecase.DiscoveryUseCase
	log            *zerolog.Logger
}

func NewDiscoveryWorker(interval time.Duration, limitPerSource int, discovery *usecase.DiscoveryUseCase, logger *zerolog.Logger) *DiscoveryWorker {
	l := logger.With().Str("component", "DiscoveryWorker").Logger()
	return &DiscoveryWorker{
		interval:       interval,
		limitPerSource: limitPerSource,
		discovery:      discovery,
		log:            &l,
	}
}

func (w *DiscoveryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting discovery worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping discovery worker")
			return ctx.Err()
		case <-ticker.C:
			report, err := w.discovery.Discover(ctx, nil, w.limitPerSource)
			if err != nil {
				w.log.Error().Err(err).Msg("discovery run error")
				continue
			}
			if report.TotalNew > 0 {
				w.log.Info().Int("new", report.TotalNew).Msg("new jobs discovered")
			}
		}
	}
}
