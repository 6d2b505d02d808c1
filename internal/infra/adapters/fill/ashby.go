package fill

import (
	"context"
	"strings"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.Filler = (*AshbyFiller)(nil)

// AshbyFiller operates Ashby application forms. Ashby renders its fields in
// _fieldEntry blocks with hashed class names, so the probe matches on the
// class fragment rather than a stable selector.
type AshbyFiller struct{}

func NewAshbyFiller() *AshbyFiller { return &AshbyFiller{} }

func (AshbyFiller) Platform() model.ApplicationType { return model.TypeAshby }

func (AshbyFiller) CanHandle(ctx context.Context, s adapter.Session) bool {
	html, err := s.Content(ctx)
	if err != nil {
		return false
	}
	return strings.Contains(html, "_fieldEntry") || strings.Contains(html, "ashbyhq")
}

func (AshbyFiller) Fill(ctx context.Context, s adapter.Session, _ *model.Job, attempt *model.ApplicationAttempt, profile *model.ApplicantProfile, answer adapter.AnswerFunc) (adapter.FillOutcome, error) {
	return fillForm(ctx, s, attempt, profile, answer)
}
