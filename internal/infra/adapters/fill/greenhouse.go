package fill

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.Filler = (*GreenhouseFiller)(nil)

// GreenhouseFiller operates Greenhouse-hosted application forms.
type GreenhouseFiller struct{}

func NewGreenhouseFiller() *GreenhouseFiller { return &GreenhouseFiller{} }

func (GreenhouseFiller) Platform() model.ApplicationType { return model.TypeGreenhouse }

func (GreenhouseFiller) CanHandle(ctx context.Context, s adapter.Session) bool {
	doc, err := parsePage(ctx, s)
	if err != nil {
		return false
	}
	return doc.Find(`#application-form, #main_fields, form[action*="greenhouse"]`).Length() > 0
}

func (GreenhouseFiller) Fill(ctx context.Context, s adapter.Session, _ *model.Job, attempt *model.ApplicationAttempt, profile *model.ApplicantProfile, answer adapter.AnswerFunc) (adapter.FillOutcome, error) {
	return fillForm(ctx, s, attempt, profile, answer)
}

func parsePage(ctx context.Context, s adapter.Session) (*goquery.Document, error) {
	html, err := s.Content(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
