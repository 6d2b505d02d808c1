package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"job-autopilot/internal/domain/ports/repository"
	"job-autopilot/internal/usecase"
)

// Server is the HTTP control surface: discovery triggers, job inspection, and
// the operator actions (apply, abort, retry, undo). Mutating routes sit
// behind the JWT admin guard.
type Server struct {
	jobs      repository.JobRepository
	attempts  repository.AttemptRepository
	discovery *usecase.DiscoveryUseCase
	apply     *usecase.ApplyUseCase
	stats     *usecase.StatsUseCase
	auth      *AuthManager
	log       *zerolog.Logger
}

func NewServer(
	jobs repository.JobRepository,
	attempts repository.AttemptRepository,
	discovery *usecase.DiscoveryUseCase,
	apply *usecase.ApplyUseCase,
	stats *usecase.StatsUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "APIServer").Logger()
	return &Server{
		jobs:      jobs,
		attempts:  attempts,
		discovery: discovery,
		apply:     apply,
		stats:     stats,
		auth:      auth,
		log:       &l,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID)
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Get("/attempts/{id}", s.handleGetAttempt)
		r.Get("/stats", s.handleStats)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Guard)
			r.Post("/discover", s.handleDiscover)
			r.Post("/jobs/{id}/apply", s.handleApply)
			r.Post("/jobs/{id}/abort", s.handleAbort)
			r.Post("/jobs/{id}/retry", s.handleRetry)
			r.Post("/jobs/{id}/undo", s.handleUndo)
		})
	})
	return r
}

// Serve runs the HTTP server until ctx is cancelled, then drains with a
// short grace period.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
