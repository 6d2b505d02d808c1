package fill

import (
	"context"
	"fmt"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
)

// fillForm is the shared field walk all platform fillers run after their
// platform-specific probing. Field-by-field it maps labels to profile values,
// stages uploads, routes open questions through the answer engine, and
// escalates anything it cannot resolve safely.
func fillForm(ctx context.Context, s adapter.Session, attempt *model.ApplicationAttempt, profile *model.ApplicantProfile, answer adapter.AnswerFunc) (adapter.FillOutcome, error) {
	html, err := s.Content(ctx)
	if err != nil {
		return adapter.FillOutcome{}, err
	}
	if HasChallenge(html) {
		return adapter.FillOutcome{
			Result: adapter.FillNeedsReview,
			Reason: "page carries a CAPTCHA challenge",
		}, nil
	}

	fields, err := s.Fields(ctx)
	if err != nil {
		return adapter.FillOutcome{}, err
	}
	if len(fields) == 0 {
		return adapter.FillOutcome{Result: adapter.FillCannotHandle, Reason: "no form fields found"}, nil
	}

	for _, field := range fields {
		outcome, err := fillOne(ctx, s, attempt, profile, answer, field)
		if err != nil {
			return adapter.FillOutcome{}, err
		}
		if outcome.Result == adapter.FillNeedsReview {
			return outcome, nil
		}
	}
	return adapter.FillOutcome{Result: adapter.FillDone}, nil
}

func fillOne(ctx context.Context, s adapter.Session, attempt *model.ApplicationAttempt, profile *model.ApplicantProfile, answer adapter.AnswerFunc, field adapter.FormField) (adapter.FillOutcome, error) {
	label := field.Label
	if label == "" {
		label = field.Name
	}

	if kind, isUpload := IsUpload(label); isUpload || field.Kind == "file" {
		if kind == "" {
			kind = "resume"
		}
		path, ok := profile.Document(kind)
		if !ok {
			if field.Required {
				attempt.RecordField(model.FieldResult{
					Key: kind, Label: label, Note: "no matching document in profile",
				})
				return adapter.FillOutcome{
					Result: adapter.FillNeedsReview,
					Reason: "required upload has no matching document",
					Field:  field.Name,
				}, nil
			}
			attempt.RecordField(model.FieldResult{Key: kind, Label: label, Note: "skipped, no document"})
			return adapter.FillOutcome{Result: adapter.FillDone}, nil
		}
		if err := s.Upload(ctx, field.Name, path); err != nil {
			return adapter.FillOutcome{}, fmt.Errorf("uploading %s: %w", kind, err)
		}
		attempt.RecordField(model.FieldResult{Key: kind, Label: label, Value: path, Filled: true})
		return adapter.FillOutcome{Result: adapter.FillDone}, nil
	}

	if key := CanonicalKey(label); key != "" {
		value, ok := profile.FieldValue(key)
		if !ok {
			if field.Required {
				attempt.RecordField(model.FieldResult{Key: key, Label: label, Note: "no profile value"})
				return adapter.FillOutcome{
					Result: adapter.FillNeedsReview,
					Reason: "required field has no profile value",
					Field:  field.Name,
				}, nil
			}
			attempt.RecordField(model.FieldResult{Key: key, Label: label, Note: "skipped, no profile value"})
			return adapter.FillOutcome{Result: adapter.FillDone}, nil
		}
		if field.Kind == "select" {
			option, ok := matchOption(field.Options, value)
			if !ok {
				attempt.RecordField(model.FieldResult{Key: key, Label: label, Value: value, Note: "no matching option"})
				if field.Required {
					return adapter.FillOutcome{
						Result: adapter.FillNeedsReview,
						Reason: fmt.Sprintf("no option matches %q", value),
						Field:  field.Name,
					}, nil
				}
				return adapter.FillOutcome{Result: adapter.FillDone}, nil
			}
			if err := s.Select(ctx, field.Name, option); err != nil {
				return adapter.FillOutcome{}, err
			}
			attempt.RecordField(model.FieldResult{Key: key, Label: label, Value: option, Filled: true})
			return adapter.FillOutcome{Result: adapter.FillDone}, nil
		}
		if err := s.Fill(ctx, field.Name, value); err != nil {
			return adapter.FillOutcome{}, err
		}
		attempt.RecordField(model.FieldResult{Key: key, Label: label, Value: value, Filled: true})
		return adapter.FillOutcome{Result: adapter.FillDone}, nil
	}

	if field.Kind == "textarea" || IsFreeTextQuestion(label) {
		rec, err := answer(ctx, label)
		if err != nil {
			return adapter.FillOutcome{}, fmt.Errorf("answering %q: %w", label, err)
		}
		if rec.Verdict != model.VerdictAccept {
			attempt.RecordField(model.FieldResult{Key: field.Name, Label: label, Note: "answer " + string(rec.Verdict)})
			return adapter.FillOutcome{
				Result: adapter.FillNeedsReview,
				Reason: fmt.Sprintf("answer %s: %s", rec.Verdict, rec.Reason),
				Field:  field.Name,
			}, nil
		}
		if err := s.Fill(ctx, field.Name, rec.Answer); err != nil {
			return adapter.FillOutcome{}, err
		}
		attempt.RecordField(model.FieldResult{Key: field.Name, Label: label, Value: rec.Answer, Filled: true})
		return adapter.FillOutcome{Result: adapter.FillDone}, nil
	}

	if field.Required {
		attempt.RecordField(model.FieldResult{Key: field.Name, Label: label, Note: "unmatched required field"})
		return adapter.FillOutcome{
			Result: adapter.FillNeedsReview,
			Reason: "required field could not be mapped",
			Field:  field.Name,
		}, nil
	}
	attempt.RecordField(model.FieldResult{Key: field.Name, Label: label, Note: "unmatched, left blank"})
	return adapter.FillOutcome{Result: adapter.FillDone}, nil
}
