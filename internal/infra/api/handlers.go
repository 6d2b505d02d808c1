package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/repository"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAttemptInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrIllegalTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrValidationFailure):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type jobView struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Location        string     `json:"location,omitempty"`
	URL             string     `json:"url"`
	Source          string     `json:"source"`
	ApplicationType string     `json:"application_type"`
	Status          string     `json:"status"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	DiscoveredAt    time.Time  `json:"discovered_at"`
	AppliedAt       *time.Time `json:"applied_at,omitempty"`
	AttemptCount    int        `json:"attempt_count"`
	LastError       string     `json:"last_error,omitempty"`
}

func toJobView(j *model.Job) jobView {
	return jobView{
		ID:              j.ID,
		Title:           j.Title,
		Company:         j.Company,
		Location:        j.Location,
		URL:             j.URL,
		Source:          j.Source,
		ApplicationType: string(j.ApplicationType),
		Status:          string(j.Status),
		PostedAt:        j.PostedAt,
		DiscoveredAt:    j.DiscoveredAt,
		AppliedAt:       j.AppliedAt,
		AttemptCount:    j.AttemptCount,
		LastError:       j.LastError,
	}
}

type attemptView struct {
	ID        string               `json:"id"`
	JobID     string               `json:"job_id"`
	StartedAt time.Time            `json:"started_at"`
	EndedAt   *time.Time           `json:"ended_at,omitempty"`
	Outcome   string               `json:"outcome,omitempty"`
	Fields    []model.FieldResult  `json:"fields,omitempty"`
	Answers   []model.AnswerRecord `json:"answers,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func toAttemptView(a *model.ApplicationAttempt) attemptView {
	return attemptView{
		ID:        a.ID,
		JobID:     a.JobID,
		StartedAt: a.StartedAt,
		EndedAt:   a.EndedAt,
		Outcome:   string(a.Outcome),
		Fields:    a.Fields,
		Answers:   a.Answers,
		Error:     a.Error,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sources []string `json:"sources"`
		Limit   int      `json:"limit"`
	}
	if r.Body != nil {
		// empty body means "all sources, default limit"
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}

	report, err := s.discovery.Discover(r.Context(), req.Sources, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	f := repository.JobFilter{
		Status:  model.JobStatus(q.Get("status")),
		Source:  q.Get("source"),
		Type:    model.ApplicationType(q.Get("type")),
		Page:    page,
		PerPage: perPage,
	}
	jobs, total, err := s.jobs.List(r.Context(), nil, f)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, toJobView(j))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  views,
		"total": total,
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.jobs.FindByID(r.Context(), nil, id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{"job": toJobView(job)}
	if last, err := s.attempts.FindLatestByJob(r.Context(), nil, id); err == nil {
		resp["last_attempt"] = toAttemptView(last)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	attempt, err := s.apply.Apply(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"attempt_id": attempt.ID,
		"outcome":    string(attempt.Outcome),
	})
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.apply.Abort(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "abort requested"})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.apply.Retry(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "queued"})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.apply.Undo(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "new"})
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	attempt, err := s.apply.Status(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptView(attempt))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.stats.CountByStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"by_status": out})
}
