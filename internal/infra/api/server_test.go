//go:build !integration

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/domain/ports/repository"
	"job-autopilot/internal/usecase"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// stubJobRepo serves a fixed job set.
type stubJobRepo struct {
	byID map[string]*model.Job
}

func (r *stubJobRepo) Save(context.Context, repository.Tx, *model.Job) error { return nil }

func (r *stubJobRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Job, error) {
	if j, ok := r.byID[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubJobRepo) ExistsByID(_ context.Context, _ repository.Tx, id string) (bool, error) {
	_, ok := r.byID[id]
	return ok, nil
}

func (r *stubJobRepo) List(context.Context, repository.Tx, repository.JobFilter) ([]*model.Job, int, error) {
	var out []*model.Job
	for _, j := range r.byID {
		out = append(out, j)
	}
	return out, len(out), nil
}

func (r *stubJobRepo) Transition(_ context.Context, _ repository.Tx, id string, from, to model.JobStatus, _ string) error {
	if !model.CanTransition(from, to) {
		return domain.ErrIllegalTransition
	}
	j, ok := r.byID[id]
	if !ok || j.Status != from {
		return domain.ErrNotFound
	}
	j.Status = to
	return nil
}

func (r *stubJobRepo) SetApplicationType(context.Context, repository.Tx, string, model.ApplicationType) error {
	return nil
}
func (r *stubJobRepo) MarkAttempt(context.Context, repository.Tx, string) error { return nil }
func (r *stubJobRepo) PickActionable(context.Context, int) ([]*model.Job, error) {
	return nil, nil
}
func (r *stubJobRepo) CountByStatus(context.Context, repository.Tx) (map[model.JobStatus]int, error) {
	counts := map[model.JobStatus]int{}
	for _, j := range r.byID {
		counts[j.Status]++
	}
	return counts, nil
}

type stubAttemptRepo struct {
	byID map[string]*model.ApplicationAttempt
}

func (r *stubAttemptRepo) Save(context.Context, repository.Tx, *model.ApplicationAttempt) error {
	return nil
}

func (r *stubAttemptRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.ApplicationAttempt, error) {
	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubAttemptRepo) FindLatestByJob(context.Context, repository.Tx, string) (*model.ApplicationAttempt, error) {
	return nil, domain.ErrNotFound
}

func (r *stubAttemptRepo) ListByJob(context.Context, repository.Tx, string) ([]*model.ApplicationAttempt, error) {
	return nil, nil
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type busyLocker struct{}

func (busyLocker) TryLock(context.Context, string, time.Duration) (string, error) {
	return "", domain.ErrAttemptInProgress
}
func (busyLocker) Unlock(context.Context, string, string) error { return nil }

type noAbort struct{}

func (noAbort) Request(context.Context, string) error          { return nil }
func (noAbort) Requested(context.Context, string) (bool, error) { return false, nil }
func (noAbort) Clear(context.Context, string) error            { return nil }

type noNotify struct{}

func (noNotify) NotifyNeedsReview(context.Context, *model.Job, string) error { return nil }
func (noNotify) NotifyApplied(context.Context, *model.Job) error             { return nil }
func (noNotify) NotifyFailed(context.Context, *model.Job, string) error      { return nil }

type noProfiles struct{}

func (noProfiles) Load(context.Context) (*model.ApplicantProfile, error) {
	return &model.ApplicantProfile{FirstName: "Ada", LastName: "Nguyen"}, nil
}

type noSessions struct{}

func (noSessions) NewSession(context.Context) (adapter.Session, error) {
	return nil, domain.ErrFillFailure
}
func (noSessions) ActiveSessions() int { return 0 }

type noLLM struct{}

func (noLLM) Complete(context.Context, []adapter.Message, int) (string, error) { return "ok", nil }
func (noLLM) CountTokens(context.Context, []adapter.Message) (int, error)      { return 1, nil }

type idleFiller struct{}

func (idleFiller) Platform() model.ApplicationType                 { return model.TypeCustom }
func (idleFiller) CanHandle(context.Context, adapter.Session) bool { return false }
func (idleFiller) Fill(context.Context, adapter.Session, *model.Job, *model.ApplicationAttempt, *model.ApplicantProfile, adapter.AnswerFunc) (adapter.FillOutcome, error) {
	return adapter.FillOutcome{Result: adapter.FillCannotHandle}, nil
}

func seedJob(t *testing.T, status model.JobStatus) *model.Job {
	t.Helper()
	job, err := model.NewJob("Software Engineer", "Acme", "Remote",
		"https://boards.greenhouse.io/acme/jobs/1", "greenhouse_board")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	job.Status = status
	return job
}

func newTestServer(t *testing.T, jobs *stubJobRepo, attempts *stubAttemptRepo) (*Server, string) {
	t.Helper()
	logger := nopLogger()
	engine := usecase.NewAnswerEngine(noLLM{}, 1024, 128, logger)
	applyUC := usecase.NewApplyUseCase(
		jobs, attempts, passTx{}, noProfiles{}, noSessions{},
		usecase.NewFillerSet(idleFiller{}), engine,
		busyLocker{}, noAbort{}, noNotify{},
		usecase.ApplyConfig{StepTimeout: time.Second}, logger)
	statsUC := usecase.NewStatsUseCase(jobs)
	discoveryUC := usecase.NewDiscoveryUseCase(nil, jobs, nil, 1, false, logger)

	auth := NewAuthManager("test-secret", time.Hour)
	srv := NewServer(jobs, attempts, discoveryUC, applyUC, statsUC, auth, logger)

	token, err := auth.Mint()
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return srv, token
}

func TestServerRoutes(t *testing.T) {
	job := seedJob(t, model.JobStatusQueued)
	jobs := &stubJobRepo{byID: map[string]*model.Job{job.ID: job}}
	attempts := &stubAttemptRepo{byID: map[string]*model.ApplicationAttempt{}}
	srv, token := newTestServer(t, jobs, attempts)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	get := func(t *testing.T, path string) *http.Response {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		return resp
	}
	post := func(t *testing.T, path, bearer string) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader("{}"))
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		return resp
	}

	t.Run("health is open", func(t *testing.T) {
		resp := get(t, "/health")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	t.Run("jobs list returns the seeded job", func(t *testing.T) {
		resp := get(t, "/api/v1/jobs?status=queued")
		defer resp.Body.Close()
		var body struct {
			Jobs  []jobView `json:"jobs"`
			Total int       `json:"total"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if body.Total != 1 || len(body.Jobs) != 1 {
			t.Fatalf("total = %d, jobs = %d", body.Total, len(body.Jobs))
		}
		if body.Jobs[0].Status != "queued" {
			t.Errorf("status = %s", body.Jobs[0].Status)
		}
	})

	t.Run("unknown job is 404", func(t *testing.T) {
		resp := get(t, "/api/v1/jobs/deadbeef")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("mutating routes reject missing token", func(t *testing.T) {
		resp := post(t, "/api/v1/jobs/"+job.ID+"/apply", "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("mutating routes reject a bad token", func(t *testing.T) {
		resp := post(t, "/api/v1/jobs/"+job.ID+"/apply", "not-a-jwt")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("busy job applies as 409", func(t *testing.T) {
		resp := post(t, "/api/v1/jobs/"+job.ID+"/apply", token)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409 (lock held)", resp.StatusCode)
		}
	})

	t.Run("retry on a queued job conflicts", func(t *testing.T) {
		resp := post(t, "/api/v1/jobs/"+job.ID+"/retry", token)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 404 or 409", resp.StatusCode)
		}
	})

	t.Run("abort accepted", func(t *testing.T) {
		resp := post(t, "/api/v1/jobs/"+job.ID+"/abort", token)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusAccepted {
			t.Errorf("status = %d, want 202", resp.StatusCode)
		}
	})

	t.Run("stats counts by status", func(t *testing.T) {
		resp := get(t, "/api/v1/stats")
		defer resp.Body.Close()
		var body struct {
			ByStatus map[string]int `json:"by_status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if body.ByStatus["queued"] != 1 {
			t.Errorf("by_status = %v", body.ByStatus)
		}
	})

	t.Run("unknown attempt is 404", func(t *testing.T) {
		resp := get(t, "/api/v1/attempts/01NOPE")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}
