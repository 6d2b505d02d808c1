package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.SourceAdapter = (*LeverPostingsSource)(nil)

// LeverPostingsSource reads the public postings API for a configured set of
// company slugs.
type LeverPostingsSource struct {
	companies []string
	base      string
	client    *http.Client
	log       *zerolog.Logger
}

func NewLeverPostingsSource(companies []string, logger *zerolog.Logger) *LeverPostingsSource {
	l := logger.With().Str("component", "LeverPostingsSource").Logger()
	return &LeverPostingsSource{
		companies: companies,
		base:      "https://api.lever.co/v0/postings",
		client:    &http.Client{Timeout: 20 * time.Second},
		log:       &l,
	}
}

func (s *LeverPostingsSource) Name() string { return "lever_postings" }

type leverPosting struct {
	Text       string `json:"text"`
	HostedURL  string `json:"hostedUrl"`
	ApplyURL   string `json:"applyUrl"`
	CreatedAt  int64  `json:"createdAt"` // epoch millis
	Categories struct {
		Location string `json:"location"`
	} `json:"categories"`
}

func (s *LeverPostingsSource) Fetch(ctx context.Context, limit int) ([]adapter.RawPosting, error) {
	var out []adapter.RawPosting
	for _, company := range s.companies {
		postings, err := s.fetchCompany(ctx, company)
		if err != nil {
			s.log.Warn().Str("company", company).Err(err).Msg("postings fetch failed")
			continue
		}
		out = append(out, postings...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
	}
	if out == nil && len(s.companies) > 0 {
		return nil, fmt.Errorf("all companies failed: %w", domain.ErrSourceUnavailable)
	}
	return out, nil
}

func (s *LeverPostingsSource) fetchCompany(ctx context.Context, company string) ([]adapter.RawPosting, error) {
	url := fmt.Sprintf("%s/%s?mode=json", s.base, company)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("postings api http %d", resp.StatusCode)
	}

	var payload []leverPosting
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	postings := make([]adapter.RawPosting, 0, len(payload))
	for _, p := range payload {
		raw := adapter.RawPosting{
			Title:    p.Text,
			Company:  company,
			Location: p.Categories.Location,
			URL:      p.HostedURL,
			ApplyURL: p.ApplyURL,
		}
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt)
			raw.PostedAt = &t
		}
		postings = append(postings, raw)
	}
	return postings, nil
}
