//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/domain/ports/repository"
	"job-autopilot/internal/usecase"
)

func TestDiscoveryUseCase_Discover(t *testing.T) {
	ctx := context.Background()

	t.Run("persists new postings and reports counts", func(t *testing.T) {
		jobs := newMemJobRepo()
		src := &stubSource{name: "greenhouse_board", postings: []adapter.RawPosting{
			{Title: "Software Engineer", Company: "Acme", URL: "https://boards.greenhouse.io/acme/jobs/1"},
			{Title: "Backend Engineer", Company: "Acme", URL: "https://boards.greenhouse.io/acme/jobs/2"},
		}}
		uc := usecase.NewDiscoveryUseCase([]adapter.SourceAdapter{src}, jobs, nil, 2, false, newTestLogger())

		report, err := uc.Discover(ctx, nil, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.TotalFound != 2 || report.TotalNew != 2 {
			t.Errorf("found/new = %d/%d, want 2/2", report.TotalFound, report.TotalNew)
		}
		listed, total, err := jobs.List(ctx, nil, repository.JobFilter{})
		if err != nil {
			t.Fatalf("listing: %v", err)
		}
		if total != 2 {
			t.Fatalf("stored %d jobs, want 2", total)
		}
		for _, j := range listed {
			if j.Status != model.JobStatusNew {
				t.Errorf("job %s status = %s, want new", j.ID, j.Status)
			}
		}
	})

	t.Run("deduplicates by canonical URL across sources", func(t *testing.T) {
		jobs := newMemJobRepo()
		a := &stubSource{name: "a", postings: []adapter.RawPosting{
			{Title: "Software Engineer", Company: "Acme", URL: "https://jobs.lever.co/acme/1?utm_source=feed"},
		}}
		b := &stubSource{name: "b", postings: []adapter.RawPosting{
			{Title: "Software Engineer", Company: "Acme", URL: "https://jobs.lever.co/acme/1/"},
		}}
		uc := usecase.NewDiscoveryUseCase([]adapter.SourceAdapter{a, b}, jobs, nil, 2, false, newTestLogger())

		report, err := uc.Discover(ctx, nil, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.TotalNew != 1 {
			t.Errorf("new = %d, want 1", report.TotalNew)
		}
		if report.Duplicates != 1 {
			t.Errorf("duplicates = %d, want 1", report.Duplicates)
		}
	})

	t.Run("rediscovery never resets a stored job", func(t *testing.T) {
		jobs := newMemJobRepo()
		job, err := model.NewJob("Software Engineer", "Acme", "", "https://jobs.lever.co/acme/1", "a")
		if err != nil {
			t.Fatalf("seeding: %v", err)
		}
		job.Status = model.JobStatusApplied
		if err := jobs.Save(ctx, nil, job); err != nil {
			t.Fatalf("saving: %v", err)
		}

		src := &stubSource{name: "a", postings: []adapter.RawPosting{
			{Title: "Software Engineer", Company: "Acme", URL: "https://jobs.lever.co/acme/1?ref=newsletter"},
		}}
		uc := usecase.NewDiscoveryUseCase([]adapter.SourceAdapter{src}, jobs, nil, 1, false, newTestLogger())

		report, err := uc.Discover(ctx, nil, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.TotalNew != 0 || report.Duplicates != 1 {
			t.Errorf("new/duplicates = %d/%d, want 0/1", report.TotalNew, report.Duplicates)
		}
		if got := jobs.status(job.ID); got != model.JobStatusApplied {
			t.Errorf("status = %s, want applied (terminal status preserved)", got)
		}
	})

	t.Run("filters senior titles", func(t *testing.T) {
		jobs := newMemJobRepo()
		src := &stubSource{name: "a", postings: []adapter.RawPosting{
			{Title: "Senior Software Engineer", Company: "Acme", URL: "https://jobs.lever.co/acme/1"},
			{Title: "Junior Software Engineer", Company: "Acme", URL: "https://jobs.lever.co/acme/2"},
		}}
		uc := usecase.NewDiscoveryUseCase([]adapter.SourceAdapter{src}, jobs, nil, 1, false, newTestLogger())

		report, err := uc.Discover(ctx, nil, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Filtered != 1 {
			t.Errorf("filtered = %d, want 1", report.Filtered)
		}
		if report.TotalNew != 1 {
			t.Errorf("new = %d, want 1", report.TotalNew)
		}
	})

	t.Run("a failing source never aborts the run", func(t *testing.T) {
		jobs := newMemJobRepo()
		bad := &stubSource{name: "bad", err: errors.New("upstream 503")}
		good := &stubSource{name: "good", postings: []adapter.RawPosting{
			{Title: "Software Engineer", Company: "Acme", URL: "https://jobs.lever.co/acme/1"},
		}}
		uc := usecase.NewDiscoveryUseCase([]adapter.SourceAdapter{bad, good}, jobs, nil, 2, false, newTestLogger())

		report, err := uc.Discover(ctx, nil, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.TotalNew != 1 {
			t.Errorf("new = %d, want 1", report.TotalNew)
		}
		var badReport *usecase.SourceReport
		for i := range report.Sources {
			if report.Sources[i].Source == "bad" {
				badReport = &report.Sources[i]
			}
		}
		if badReport == nil || badReport.Error == "" {
			t.Error("failing source must be reported with its error")
		}
	})

	t.Run("unknown source is reported, not fatal", func(t *testing.T) {
		jobs := newMemJobRepo()
		uc := usecase.NewDiscoveryUseCase(nil, jobs, nil, 1, false, newTestLogger())

		report, err := uc.Discover(ctx, []string{"nope"}, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Sources) != 1 || report.Sources[0].Error == "" {
			t.Errorf("report = %+v, want one errored source entry", report.Sources)
		}
	})
}
