package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
)

// AnswerEngine produces screened answers for free-text application questions.
// Every candidate passes validation before the filler may write it; a reject
// verdict always escalates the field, never submits.
type AnswerEngine struct {
	llm             adapter.LLMAdapter
	maxPromptTokens int
	maxAnswerTokens int
	maxAnswerChars  int
	log             *zerolog.Logger
}

func NewAnswerEngine(llm adapter.LLMAdapter, maxPromptTokens, maxAnswerTokens int, logger *zerolog.Logger) *AnswerEngine {
	l := logger.With().Str("component", "AnswerEngine").Logger()
	return &AnswerEngine{
		llm:             llm,
		maxPromptTokens: maxPromptTokens,
		maxAnswerTokens: maxAnswerTokens,
		maxAnswerChars:  2000,
		log:             &l,
	}
}

// Answer generates and validates one response. A provider rate limit is
// transient: retry once after a backoff, then escalate as uncertain.
func (e *AnswerEngine) Answer(ctx context.Context, question string, job *model.Job, profile *model.ApplicantProfile) (model.AnswerRecord, error) {
	rec := model.AnswerRecord{Question: question}

	prompt := e.buildPrompt(ctx, question, job, profile)

	text, err := e.complete(ctx, prompt)
	if errors.Is(err, domain.ErrRateLimited) {
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return rec, ctx.Err()
		}
		text, err = e.complete(ctx, prompt)
	}
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			rec.Verdict = model.VerdictUncertain
			rec.Reason = "language model rate limited"
			return rec, nil
		}
		return rec, err
	}

	rec.Answer = strings.TrimSpace(text)
	rec.Verdict, rec.Reason = ValidateAnswer(question, rec.Answer, e.maxAnswerChars, profile)
	e.log.Info().Str("verdict", string(rec.Verdict)).Str("reason", rec.Reason).Msg("answer screened")
	return rec, nil
}

func (e *AnswerEngine) complete(ctx context.Context, messages []adapter.Message) (string, error) {
	return e.llm.Complete(ctx, messages, e.maxAnswerTokens)
}

// buildPrompt assembles question + job + profile context and trims the job
// description until the whole prompt fits the token budget.
func (e *AnswerEngine) buildPrompt(ctx context.Context, question string, job *model.Job, profile *model.ApplicantProfile) []adapter.Message {
	system := adapter.Message{
		Role: "system",
		Content: "You write short, specific, truthful answers to job application questions " +
			"on behalf of the candidate described below. Never invent credentials, degrees or " +
			"employers not present in the profile. Avoid generic filler phrases.",
	}

	desc := job.Description
	for budget := 0; budget < 4; budget++ {
		user := adapter.Message{
			Role: "user",
			Content: fmt.Sprintf(
				"Question: %s\n\nRole: %s at %s\n%s\nCandidate:\n%s\n\nAnswer concisely (under %d characters).",
				question, job.Title, job.Company, truncate(desc, 1200>>budget),
				profileContext(profile), e.maxAnswerChars/4),
		}
		msgs := []adapter.Message{system, user}
		n, err := e.llm.CountTokens(ctx, msgs)
		if err != nil || n <= e.maxPromptTokens {
			return msgs
		}
		if desc == "" {
			return msgs
		}
	}
	return []adapter.Message{system, {Role: "user", Content: "Question: " + question}}
}

func profileContext(p *model.ApplicantProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p.FullName())
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.Skills, ", "))
	}
	for i, x := range p.Experience {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "- %s at %s (%s to %s)\n", x.Title, x.Company, x.StartDate, x.EndDate)
	}
	for _, ed := range p.Education {
		fmt.Fprintf(&b, "- %s in %s, %s\n", ed.Degree, ed.Field, ed.Institution)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// --- validation ---

var templateArtifacts = []string{"[insert", "[your", "{{", "<insert", "xxx", "lorem ipsum"}

// credentialMarkers are claims the model must not fabricate. A marker in the
// answer is only acceptable when the profile itself carries it.
var credentialMarkers = []string{
	"phd", "ph.d", "doctorate", "mba", "security clearance", "certified",
	"certification", "patent",
}

var genericPhrases = []string{
	"i am excited", "i am passionate", "i would love the opportunity",
	"i believe i would be a great fit", "team player", "fast learner",
	"think outside the box", "synergy",
}

var wordRe = regexp.MustCompile(`[a-zA-Z]{3,}`)

var answerStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "you": true, "your": true,
	"what": true, "why": true, "how": true, "are": true, "this": true,
	"that": true, "with": true, "about": true, "have": true, "would": true,
	"tell": true, "describe": true, "please": true,
}

// ValidateAnswer screens a candidate answer. Pure; a keyword-presence
// heuristic, not semantic proof.
func ValidateAnswer(question, answer string, maxLen int, profile *model.ApplicantProfile) (model.AnswerVerdict, string) {
	if strings.TrimSpace(answer) == "" {
		return model.VerdictReject, "empty answer"
	}
	if len(answer) > maxLen {
		return model.VerdictReject, fmt.Sprintf("answer exceeds %d characters", maxLen)
	}

	lower := strings.ToLower(answer)
	for _, a := range templateArtifacts {
		if strings.Contains(lower, a) {
			return model.VerdictReject, "template artifact: " + a
		}
	}

	profileText := strings.ToLower(profileContext(profile) + " " + strings.Join(profile.Skills, " "))
	for _, m := range credentialMarkers {
		if strings.Contains(lower, m) && !strings.Contains(profileText, m) {
			return model.VerdictReject, "claims credential absent from profile: " + m
		}
	}

	// cheap lexical overlap: the answer should share at least one
	// non-stopword token with the question
	qWords := map[string]bool{}
	for _, w := range wordRe.FindAllString(strings.ToLower(question), -1) {
		if !answerStopwords[w] {
			qWords[w] = true
		}
	}
	if len(qWords) > 0 {
		overlap := false
		for _, w := range wordRe.FindAllString(lower, -1) {
			if qWords[w] {
				overlap = true
				break
			}
		}
		if !overlap {
			return model.VerdictUncertain, "answer shares no terms with the question"
		}
	}

	for _, g := range genericPhrases {
		if strings.Contains(lower, g) {
			return model.VerdictUncertain, "generic phrase: " + g
		}
	}

	return model.VerdictAccept, ""
}
