//go:build !integration

package model_test

import (
	"testing"

	"job-autopilot/internal/domain/model"
)

func TestCanonicalURL(t *testing.T) {
	t.Run("strips tracking params and fragment", func(t *testing.T) {
		got, err := model.CanonicalURL("HTTPS://Boards.Greenhouse.io/acme/jobs/123/?utm_source=x&gh_src=abc#app")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "https://boards.greenhouse.io/acme/jobs/123"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("keeps meaningful query params", func(t *testing.T) {
		got, err := model.CanonicalURL("https://jobs.lever.co/acme/abc?lever-source=linkedin&team=platform")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "https://jobs.lever.co/acme/abc?team=platform"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("rejects relative URLs", func(t *testing.T) {
		if _, err := model.CanonicalURL("/jobs/123"); err == nil {
			t.Error("expected error for URL without host")
		}
	})

	t.Run("same posting from two sources yields one ID", func(t *testing.T) {
		a, _ := model.CanonicalURL("https://boards.greenhouse.io/acme/jobs/123?utm_source=simplify")
		b, _ := model.CanonicalURL("https://boards.greenhouse.io/acme/jobs/123/")
		if model.JobID(a) != model.JobID(b) {
			t.Errorf("IDs differ: %q vs %q", model.JobID(a), model.JobID(b))
		}
	})
}

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to model.JobStatus }{
		{model.JobStatusNew, model.JobStatusQueued},
		{model.JobStatusNew, model.JobStatusSkipped},
		{model.JobStatusNew, model.JobStatusExpired},
		{model.JobStatusQueued, model.JobStatusInProgress},
		{model.JobStatusInProgress, model.JobStatusApplied},
		{model.JobStatusInProgress, model.JobStatusFailed},
		{model.JobStatusInProgress, model.JobStatusNeedsReview},
		{model.JobStatusApplied, model.JobStatusNew},  // operator undo
		{model.JobStatusFailed, model.JobStatusQueued}, // operator retry
	}
	for _, tc := range legal {
		if !model.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	illegal := []struct{ from, to model.JobStatus }{
		{model.JobStatusApplied, model.JobStatusInProgress},
		{model.JobStatusRejected, model.JobStatusNew},
		{model.JobStatusExpired, model.JobStatusQueued},
		{model.JobStatusNew, model.JobStatusApplied},
		{model.JobStatusSkipped, model.JobStatusQueued},
	}
	for _, tc := range illegal {
		if model.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestApplicationAttempt_Close(t *testing.T) {
	a, err := model.NewApplicationAttempt("att-1", "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a.Close(model.OutcomeFailure, "boom")
	first := *a.EndedAt

	// second close must not overwrite the terminal record
	a.Close(model.OutcomeSuccess, "")
	if a.Outcome != model.OutcomeFailure || a.Error != "boom" {
		t.Errorf("close was not idempotent: %+v", a)
	}
	if !a.EndedAt.Equal(first) {
		t.Error("EndedAt changed on second close")
	}
}

func TestApplicationAttempt_FilledAny(t *testing.T) {
	a, _ := model.NewApplicationAttempt("att-1", "job-1")
	if a.FilledAny() {
		t.Error("fresh attempt should report no progress")
	}
	a.RecordField(model.FieldResult{Key: "email", Filled: false, Note: "not found"})
	if a.FilledAny() {
		t.Error("unfilled field should not count as progress")
	}
	a.RecordField(model.FieldResult{Key: "first_name", Filled: true})
	if !a.FilledAny() {
		t.Error("filled field should count as progress")
	}
}
