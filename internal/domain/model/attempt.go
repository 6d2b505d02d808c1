package model

import (
	"time"

	"job-autopilot/internal/domain"
)

type AttemptOutcome string

const (
	OutcomeSuccess   AttemptOutcome = "success"
	OutcomeFailure   AttemptOutcome = "failure"
	OutcomeEscalated AttemptOutcome = "escalated"
	OutcomeAborted   AttemptOutcome = "aborted"
)

type AnswerVerdict string

const (
	VerdictAccept    AnswerVerdict = "accept"
	VerdictReject    AnswerVerdict = "reject"
	VerdictUncertain AnswerVerdict = "uncertain"
)

// FieldResult records one form field the filler touched.
type FieldResult struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Value  string `json:"value,omitempty"`
	Filled bool   `json:"filled"`
	Note   string `json:"note,omitempty"`
}

// AnswerRecord is one LLM-assisted response inside an attempt. Owned
// exclusively by its attempt.
type AnswerRecord struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Verdict  AnswerVerdict `json:"verdict"`
	Reason   string        `json:"reason,omitempty"`
}

// ApplicationAttempt is one orchestrator run against a job. A job may
// accumulate many attempts; the newest is authoritative for display and all
// are retained for audit.
type ApplicationAttempt struct {
	ID        string
	JobID     string
	StartedAt time.Time
	EndedAt   *time.Time
	Outcome   AttemptOutcome
	Fields    []FieldResult
	Answers   []AnswerRecord
	Error     string
}

func NewApplicationAttempt(id, jobID string) (*ApplicationAttempt, error) {
	if id == "" || jobID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &ApplicationAttempt{
		ID:        id,
		JobID:     jobID,
		StartedAt: time.Now(),
	}, nil
}

// Close stamps the end time and outcome. Idempotent on repeated calls.
func (a *ApplicationAttempt) Close(outcome AttemptOutcome, errSummary string) {
	if a.EndedAt != nil {
		return
	}
	now := time.Now()
	a.EndedAt = &now
	a.Outcome = outcome
	a.Error = errSummary
}

func (a *ApplicationAttempt) RecordField(f FieldResult)  { a.Fields = append(a.Fields, f) }
func (a *ApplicationAttempt) RecordAnswer(r AnswerRecord) { a.Answers = append(a.Answers, r) }

// FilledAny reports whether the run made irreversible progress on the form.
// An abort before any field write restores the pre-attempt status.
func (a *ApplicationAttempt) FilledAny() bool {
	for _, f := range a.Fields {
		if f.Filled {
			return true
		}
	}
	return false
}
