//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// mockTxManager runs the callback with no real transaction.
type mockTxManager struct{}

var _ repository.TransactionManager = mockTxManager{}

func (mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// --- repositories ---

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[string]*model.Job{}}
}

func (r *memJobRepo) Save(_ context.Context, _ repository.Tx, job *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return nil
	}
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *memJobRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *memJobRepo) ExistsByID(_ context.Context, _ repository.Tx, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[id]
	return ok, nil
}

func (r *memJobRepo) List(_ context.Context, _ repository.Tx, f repository.JobFilter) ([]*model.Job, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Job
	for _, j := range r.jobs {
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if f.Source != "" && j.Source != f.Source {
			continue
		}
		if f.Type != "" && j.ApplicationType != f.Type {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, len(out), nil
}

func (r *memJobRepo) Transition(_ context.Context, _ repository.Tx, id string, from, to model.JobStatus, errSummary string) error {
	if !model.CanTransition(from, to) {
		return domain.ErrIllegalTransition
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status != from {
		return domain.ErrNotFound
	}
	j.Status = to
	j.LastError = errSummary
	if to == model.JobStatusApplied {
		now := time.Now()
		j.AppliedAt = &now
	}
	return nil
}

func (r *memJobRepo) SetApplicationType(_ context.Context, _ repository.Tx, id string, t model.ApplicationType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.ApplicationType = t
	return nil
}

func (r *memJobRepo) MarkAttempt(_ context.Context, _ repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	j.LastAttemptAt = &now
	j.AttemptCount++
	return nil
}

func (r *memJobRepo) PickActionable(_ context.Context, limit int) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Job
	for _, j := range r.jobs {
		if j.Actionable() {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].DiscoveredAt.Before(out[k].DiscoveredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memJobRepo) CountByStatus(_ context.Context, _ repository.Tx) (map[model.JobStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[model.JobStatus]int{}
	for _, j := range r.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

func (r *memJobRepo) status(id string) model.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		return j.Status
	}
	return ""
}

type memAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]*model.ApplicationAttempt
}

func newMemAttemptRepo() *memAttemptRepo {
	return &memAttemptRepo{attempts: map[string]*model.ApplicationAttempt{}}
}

func (r *memAttemptRepo) Save(_ context.Context, _ repository.Tx, a *model.ApplicationAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.attempts[a.ID] = &cp
	return nil
}

func (r *memAttemptRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.ApplicationAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAttemptRepo) FindLatestByJob(_ context.Context, _ repository.Tx, jobID string) (*model.ApplicationAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.ApplicationAttempt
	for _, a := range r.attempts {
		if a.JobID != jobID {
			continue
		}
		if latest == nil || a.StartedAt.After(latest.StartedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *memAttemptRepo) ListByJob(_ context.Context, _ repository.Tx, jobID string) ([]*model.ApplicationAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ApplicationAttempt
	for _, a := range r.attempts {
		if a.JobID == jobID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	return out, nil
}

type stubProfiles struct {
	profile *model.ApplicantProfile
}

func (s *stubProfiles) Load(context.Context) (*model.ApplicantProfile, error) {
	return s.profile, nil
}

// --- lock and abort ---

type memLocker struct {
	mu    sync.Mutex
	held  map[string]string
	locks int
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]string{}} }

func (l *memLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrAttemptInProgress
	}
	l.held[key] = "tok"
	l.locks++
	return "tok", nil
}

func (l *memLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

func (l *memLocker) heldCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

type memAbort struct {
	mu    sync.Mutex
	flags map[string]bool
}

func newMemAbort() *memAbort { return &memAbort{flags: map[string]bool{}} }

func (a *memAbort) Request(_ context.Context, jobID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags[jobID] = true
	return nil
}

func (a *memAbort) Requested(_ context.Context, jobID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flags[jobID], nil
}

func (a *memAbort) Clear(_ context.Context, jobID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.flags, jobID)
	return nil
}

// --- browser session ---

type mockSession struct {
	NavigateFunc     func(ctx context.Context, url string) (int, string, error)
	ContentFunc      func(ctx context.Context) (string, error)
	FieldsFunc       func(ctx context.Context) ([]adapter.FormField, error)
	FillFunc         func(ctx context.Context, name, value string) error
	SubmitFunc       func(ctx context.Context) error
	ClickThroughFunc func(ctx context.Context, selector string) (string, error)

	currentURL string
	submits    int
	closed     bool
}

func (s *mockSession) Navigate(ctx context.Context, url string) (int, string, error) {
	if s.NavigateFunc != nil {
		status, final, err := s.NavigateFunc(ctx, url)
		s.currentURL = final
		return status, final, err
	}
	s.currentURL = url
	return 200, url, nil
}

func (s *mockSession) CurrentURL() string { return s.currentURL }

func (s *mockSession) Content(ctx context.Context) (string, error) {
	if s.ContentFunc != nil {
		return s.ContentFunc(ctx)
	}
	return "<html></html>", nil
}

func (s *mockSession) Fields(ctx context.Context) ([]adapter.FormField, error) {
	if s.FieldsFunc != nil {
		return s.FieldsFunc(ctx)
	}
	return nil, nil
}

func (s *mockSession) Fill(ctx context.Context, name, value string) error {
	if s.FillFunc != nil {
		return s.FillFunc(ctx, name, value)
	}
	return nil
}

func (s *mockSession) Select(context.Context, string, string) error { return nil }

func (s *mockSession) Upload(context.Context, string, string) error { return nil }

func (s *mockSession) ClickThrough(ctx context.Context, selector string) (string, error) {
	if s.ClickThroughFunc != nil {
		return s.ClickThroughFunc(ctx, selector)
	}
	return s.currentURL, nil
}

func (s *mockSession) Submit(ctx context.Context) error {
	s.submits++
	if s.SubmitFunc != nil {
		return s.SubmitFunc(ctx)
	}
	return nil
}

func (s *mockSession) Close() error {
	s.closed = true
	return nil
}

type mockSessionManager struct {
	session *mockSession
	opened  int
}

func (m *mockSessionManager) NewSession(context.Context) (adapter.Session, error) {
	m.opened++
	return m.session, nil
}

func (m *mockSessionManager) ActiveSessions() int { return 0 }

// --- notifier ---

type mockNotifier struct {
	mu          sync.Mutex
	needsReview int
	applied     int
	failed      int
	lastReason  string
}

func (n *mockNotifier) NotifyNeedsReview(_ context.Context, _ *model.Job, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.needsReview++
	n.lastReason = reason
	return nil
}

func (n *mockNotifier) NotifyApplied(context.Context, *model.Job) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applied++
	return nil
}

func (n *mockNotifier) NotifyFailed(context.Context, *model.Job, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed++
	return nil
}

// --- filler ---

type mockFiller struct {
	platform      model.ApplicationType
	CanHandleFunc func(ctx context.Context, s adapter.Session) bool
	FillFunc      func(ctx context.Context, s adapter.Session, job *model.Job, attempt *model.ApplicationAttempt, profile *model.ApplicantProfile, answer adapter.AnswerFunc) (adapter.FillOutcome, error)
}

func (f *mockFiller) Platform() model.ApplicationType { return f.platform }

func (f *mockFiller) CanHandle(ctx context.Context, s adapter.Session) bool {
	if f.CanHandleFunc != nil {
		return f.CanHandleFunc(ctx, s)
	}
	return true
}

func (f *mockFiller) Fill(ctx context.Context, s adapter.Session, job *model.Job, attempt *model.ApplicationAttempt, profile *model.ApplicantProfile, answer adapter.AnswerFunc) (adapter.FillOutcome, error) {
	if f.FillFunc != nil {
		return f.FillFunc(ctx, s, job, attempt, profile, answer)
	}
	return adapter.FillOutcome{Result: adapter.FillDone}, nil
}

// --- source adapter ---

type stubSource struct {
	name     string
	postings []adapter.RawPosting
	err      error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, int) ([]adapter.RawPosting, error) {
	return s.postings, s.err
}
