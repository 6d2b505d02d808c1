package model

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"job-autopilot/internal/domain"
)

type JobStatus string

const (
	JobStatusNew         JobStatus = "new"
	JobStatusQueued      JobStatus = "queued"
	JobStatusInProgress  JobStatus = "in_progress"
	JobStatusApplied     JobStatus = "applied"
	JobStatusFailed      JobStatus = "failed"
	JobStatusNeedsReview JobStatus = "needs_review"
	JobStatusSkipped     JobStatus = "skipped"
	JobStatusExpired     JobStatus = "expired"
	JobStatusRejected    JobStatus = "rejected"
)

type ApplicationType string

const (
	TypeGreenhouse      ApplicationType = "greenhouse"
	TypeLever           ApplicationType = "lever"
	TypeWorkday         ApplicationType = "workday"
	TypeAshby           ApplicationType = "ashby"
	TypeOracle          ApplicationType = "oracle"
	TypeADP             ApplicationType = "adp"
	TypeICIMS           ApplicationType = "icims"
	TypeTaleo           ApplicationType = "taleo"
	TypeJobvite         ApplicationType = "jobvite"
	TypeSmartRecruiters ApplicationType = "smartrecruiters"
	TypeBuiltin         ApplicationType = "builtin"
	TypeRedirector      ApplicationType = "redirector"
	TypeCustom          ApplicationType = "custom"
	TypeUnknown         ApplicationType = "unknown"
)

// Job is one discovered posting. ID is derived from the canonical URL so a
// posting rediscovered from a second source maps to the same row.
type Job struct {
	ID              string
	Title           string
	Company         string
	Location        string
	URL             string
	ApplyURL        string
	Description     string
	Source          string
	ApplicationType ApplicationType
	Status          JobStatus
	PostedAt        *time.Time
	DiscoveredAt    time.Time
	AppliedAt       *time.Time
	LastAttemptAt   *time.Time
	AttemptCount    int
	LastError       string
}

// NewJob builds a Job in status "new" keyed by the canonical form of rawURL.
func NewJob(title, company, location, rawURL, source string) (*Job, error) {
	if title == "" || rawURL == "" {
		return nil, domain.ErrInvalidArgument
	}
	canon, err := CanonicalURL(rawURL)
	if err != nil {
		return nil, domain.ErrInvalidArgument
	}
	return &Job{
		ID:              JobID(canon),
		Title:           title,
		Company:         company,
		Location:        location,
		URL:             canon,
		Source:          source,
		ApplicationType: TypeUnknown,
		Status:          JobStatusNew,
		DiscoveredAt:    time.Now(),
	}, nil
}

// Actionable reports whether the orchestrator may pick this job up.
func (j *Job) Actionable() bool {
	return j.Status == JobStatusNew || j.Status == JobStatusQueued
}

// Terminal statuses never regress to "new" on rediscovery.
func (s JobStatus) Terminal() bool {
	return s == JobStatusApplied || s == JobStatusRejected
}

// legalTransitions is the closed edge set of the job state machine.
// Operator-initiated edges (applied->new undo, failed->queued retry,
// needs_review resolutions) are included; they are never taken automatically.
var legalTransitions = map[JobStatus][]JobStatus{
	JobStatusNew:         {JobStatusQueued, JobStatusSkipped, JobStatusExpired},
	JobStatusQueued:      {JobStatusInProgress, JobStatusExpired, JobStatusSkipped},
	JobStatusInProgress:  {JobStatusApplied, JobStatusFailed, JobStatusNeedsReview, JobStatusSkipped, JobStatusExpired, JobStatusNew, JobStatusQueued},
	JobStatusApplied:     {JobStatusNew},
	JobStatusFailed:      {JobStatusQueued},
	JobStatusNeedsReview: {JobStatusQueued, JobStatusApplied, JobStatusRejected, JobStatusNew},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to JobStatus) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// trackingParams are stripped during canonicalization; they vary per
// aggregator link and would defeat URL-keyed deduplication.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "gclid": true, "fbclid": true,
	"ref": true, "source": true, "src": true, "gh_src": true, "lever-source": true,
}

// CanonicalURL normalizes a posting URL for deduplication: lowercased scheme
// and host, trailing slash trimmed, tracking query parameters stripped,
// fragment dropped.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", domain.ErrInvalidArgument
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		if trackingParams[strings.ToLower(k)] {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// JobID is the stable identifier for a canonical URL.
func JobID(canonicalURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:16])
}
