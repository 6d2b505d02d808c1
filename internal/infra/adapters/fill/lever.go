package fill

import (
	"context"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.Filler = (*LeverFiller)(nil)

// LeverFiller operates Lever posting forms.
type LeverFiller struct{}

func NewLeverFiller() *LeverFiller { return &LeverFiller{} }

func (LeverFiller) Platform() model.ApplicationType { return model.TypeLever }

func (LeverFiller) CanHandle(ctx context.Context, s adapter.Session) bool {
	doc, err := parsePage(ctx, s)
	if err != nil {
		return false
	}
	return doc.Find(`.application-form, .posting-form, form[action*="lever"]`).Length() > 0
}

func (LeverFiller) Fill(ctx context.Context, s adapter.Session, _ *model.Job, attempt *model.ApplicationAttempt, profile *model.ApplicantProfile, answer adapter.AnswerFunc) (adapter.FillOutcome, error) {
	return fillForm(ctx, s, attempt, profile, answer)
}
