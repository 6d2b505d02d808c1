package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.SourceAdapter = (*RemotiveSource)(nil)

// RemotiveSource reads the Remotive remote-jobs API, optionally narrowed by a
// search term.
type RemotiveSource struct {
	search string
	base   string
	client *http.Client
	log    *zerolog.Logger
}

func NewRemotiveSource(search string, logger *zerolog.Logger) *RemotiveSource {
	l := logger.With().Str("component", "RemotiveSource").Logger()
	return &RemotiveSource{
		search: search,
		base:   "https://remotive.com/api/remote-jobs",
		client: &http.Client{Timeout: 20 * time.Second},
		log:    &l,
	}
}

func (s *RemotiveSource) Name() string { return "remotive" }

func (s *RemotiveSource) Fetch(ctx context.Context, limit int) ([]adapter.RawPosting, error) {
	q := url.Values{}
	if s.search != "" {
		q.Set("search", s.search)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	target := s.base
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive: %w", domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remotive http %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	var payload struct {
		Jobs []struct {
			Title           string `json:"title"`
			CompanyName     string `json:"company_name"`
			URL             string `json:"url"`
			Location        string `json:"candidate_required_location"`
			PublicationDate string `json:"publication_date"`
		} `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	postings := make([]adapter.RawPosting, 0, len(payload.Jobs))
	for _, j := range payload.Jobs {
		p := adapter.RawPosting{
			Title:    j.Title,
			Company:  j.CompanyName,
			Location: j.Location,
			URL:      j.URL,
		}
		if t, err := time.Parse("2006-01-02T15:04:05", j.PublicationDate); err == nil {
			p.PostedAt = &t
		}
		postings = append(postings, p)
	}
	return postings, nil
}
