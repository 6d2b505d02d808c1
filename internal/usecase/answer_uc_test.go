//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/usecase"
)

func testProfile() *model.ApplicantProfile {
	p := &model.ApplicantProfile{
		FirstName: "Ada",
		LastName:  "Nguyen",
		Email:     "ada@example.com",
		Phone:     "+1 555 0100",
		Skills:    []string{"Go", "Postgres", "distributed systems"},
	}
	p.Address.City = "Portland"
	p.Address.State = "OR"
	p.WorkAuthorization.AuthorizedUS = true
	p.Documents = map[string]string{"resume": "/tmp/resume.pdf"}
	return p
}

func TestValidateAnswer(t *testing.T) {
	profile := testProfile()

	t.Run("accepts a relevant answer", func(t *testing.T) {
		v, reason := usecase.ValidateAnswer(
			"Why do you want to work on distributed systems?",
			"I have spent three years building distributed systems in Go and want to keep doing it at scale.",
			2000, profile)
		if v != model.VerdictAccept {
			t.Errorf("got %s (%s), want accept", v, reason)
		}
	})

	t.Run("rejects empty", func(t *testing.T) {
		v, _ := usecase.ValidateAnswer("Why us?", "   ", 2000, profile)
		if v != model.VerdictReject {
			t.Errorf("got %s, want reject", v)
		}
	})

	t.Run("rejects over length bound", func(t *testing.T) {
		long := make([]byte, 60)
		for i := range long {
			long[i] = 'a'
		}
		v, _ := usecase.ValidateAnswer("Why?", "why "+string(long), 50, profile)
		if v != model.VerdictReject {
			t.Errorf("got %s, want reject", v)
		}
	})

	t.Run("rejects template artifacts", func(t *testing.T) {
		v, reason := usecase.ValidateAnswer("Why this company?",
			"I admire [INSERT COMPANY]'s mission for this company.", 2000, profile)
		if v != model.VerdictReject {
			t.Errorf("got %s (%s), want reject", v, reason)
		}
	})

	t.Run("rejects fabricated credentials", func(t *testing.T) {
		v, reason := usecase.ValidateAnswer("Describe your education background.",
			"My PhD in computer science gives me a strong education background.", 2000, profile)
		if v != model.VerdictReject {
			t.Errorf("got %s (%s), want reject", v, reason)
		}
	})

	t.Run("uncertain when answer ignores the question", func(t *testing.T) {
		v, _ := usecase.ValidateAnswer("Describe your leadership philosophy.",
			"Bananas ripen quickly during summer.", 2000, profile)
		if v == model.VerdictAccept {
			t.Error("expected a non-accept verdict for an off-topic answer")
		}
	})
}

type mockLLM struct {
	CompleteFunc    func(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error)
	CountTokensFunc func(ctx context.Context, messages []adapter.Message) (int, error)
	calls           int
}

func (m *mockLLM) Complete(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error) {
	m.calls++
	return m.CompleteFunc(ctx, messages, maxTokens)
}

func (m *mockLLM) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	if m.CountTokensFunc != nil {
		return m.CountTokensFunc(ctx, messages)
	}
	return 100, nil
}

func TestAnswerEngine_Answer(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	job := &model.Job{ID: "j1", Title: "Software Engineer", Company: "Acme", Status: model.JobStatusQueued}
	profile := testProfile()

	t.Run("returns accepted answer", func(t *testing.T) {
		llm := &mockLLM{CompleteFunc: func(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error) {
			return "I build reliable Go software and Acme's engineering culture fits how I like to work.", nil
		}}
		eng := usecase.NewAnswerEngine(llm, 2048, 256, logger)

		rec, err := eng.Answer(ctx, "Why do you want to work at Acme as a software engineer?", job, profile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Verdict != model.VerdictAccept {
			t.Errorf("got verdict %s (%s), want accept", rec.Verdict, rec.Reason)
		}
	})

	t.Run("retries once on rate limit then succeeds", func(t *testing.T) {
		llm := &mockLLM{}
		llm.CompleteFunc = func(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error) {
			if llm.calls == 1 {
				return "", domain.ErrRateLimited
			}
			return "I want to keep building software systems like the ones Acme runs.", nil
		}
		eng := usecase.NewAnswerEngine(llm, 2048, 256, logger)

		rec, err := eng.Answer(ctx, "Why do you want to build software at Acme?", job, profile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if llm.calls != 2 {
			t.Errorf("expected 2 LLM calls, got %d", llm.calls)
		}
		if rec.Verdict != model.VerdictAccept {
			t.Errorf("got verdict %s (%s), want accept", rec.Verdict, rec.Reason)
		}
	})

	t.Run("escalates as uncertain after repeated rate limits", func(t *testing.T) {
		llm := &mockLLM{CompleteFunc: func(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error) {
			return "", domain.ErrRateLimited
		}}
		eng := usecase.NewAnswerEngine(llm, 2048, 256, logger)

		rec, err := eng.Answer(ctx, "Why Acme?", job, profile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if llm.calls != 2 {
			t.Errorf("expected exactly one retry, got %d calls", llm.calls)
		}
		if rec.Verdict != model.VerdictUncertain {
			t.Errorf("got verdict %s, want uncertain", rec.Verdict)
		}
	})

	t.Run("propagates hard errors", func(t *testing.T) {
		llm := &mockLLM{CompleteFunc: func(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error) {
			return "", errors.New("connection refused")
		}}
		eng := usecase.NewAnswerEngine(llm, 2048, 256, logger)

		if _, err := eng.Answer(ctx, "Why Acme?", job, profile); err == nil {
			t.Fatal("expected error")
		}
	})
}
