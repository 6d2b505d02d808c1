package fill

import (
	"context"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.Filler = (*GenericFiller)(nil)

// GenericFiller is the fallback for custom and unknown platforms: a
// best-effort walk over whatever labeled inputs the page exposes.
type GenericFiller struct{}

func NewGenericFiller() *GenericFiller { return &GenericFiller{} }

func (GenericFiller) Platform() model.ApplicationType { return model.TypeCustom }

func (GenericFiller) CanHandle(ctx context.Context, s adapter.Session) bool {
	fields, err := s.Fields(ctx)
	return err == nil && len(fields) > 0
}

func (GenericFiller) Fill(ctx context.Context, s adapter.Session, _ *model.Job, attempt *model.ApplicationAttempt, profile *model.ApplicantProfile, answer adapter.AnswerFunc) (adapter.FillOutcome, error) {
	return fillForm(ctx, s, attempt, profile, answer)
}
