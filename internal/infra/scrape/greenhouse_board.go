// Package scrape holds the source adapters that feed the discovery pipeline.
// Each adapter wraps one public posting feed and normalizes it to RawPosting.
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

var _ adapter.SourceAdapter = (*GreenhouseBoardSource)(nil)

// GreenhouseBoardSource reads the public boards API for a configured set of
// board tokens.
type GreenhouseBoardSource struct {
	boards []string
	base   string
	client *http.Client
	log    *zerolog.Logger
}

func NewGreenhouseBoardSource(boards []string, logger *zerolog.Logger) *GreenhouseBoardSource {
	l := logger.With().Str("component", "GreenhouseBoardSource").Logger()
	return &GreenhouseBoardSource{
		boards: boards,
		base:   "https://boards-api.greenhouse.io/v1/boards",
		client: &http.Client{Timeout: 20 * time.Second},
		log:    &l,
	}
}

func (s *GreenhouseBoardSource) Name() string { return "greenhouse_board" }

type greenhouseJob struct {
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	CompanyName string `json:"company_name"`
}

func (s *GreenhouseBoardSource) Fetch(ctx context.Context, limit int) ([]adapter.RawPosting, error) {
	var out []adapter.RawPosting
	for _, board := range s.boards {
		postings, err := s.fetchBoard(ctx, board)
		if err != nil {
			// one dead board must not sink the rest
			s.log.Warn().Str("board", board).Err(err).Msg("board fetch failed")
			continue
		}
		out = append(out, postings...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
	}
	if out == nil && len(s.boards) > 0 {
		return nil, fmt.Errorf("all boards failed: %w", domain.ErrSourceUnavailable)
	}
	return out, nil
}

func (s *GreenhouseBoardSource) fetchBoard(ctx context.Context, board string) ([]adapter.RawPosting, error) {
	url := fmt.Sprintf("%s/%s/jobs", s.base, board)
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
		return nil, fmt.Errorf("boards api http %d", resp.StatusCode)
	}

	var payload struct {
		Jobs []greenhouseJob `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	postings := make([]adapter.RawPosting, 0, len(payload.Jobs))
	for _, j := range payload.Jobs {
		company := j.CompanyName
		if company == "" {
			company = board
		}
		p := adapter.RawPosting{
			Title:    j.Title,
			Company:  company,
			Location: j.Location.Name,
			URL:      j.AbsoluteURL,
		}
		if t, err := time.Parse(time.RFC3339, j.UpdatedAt); err == nil {
			p.PostedAt = &t
		}
		postings = append(postings, p)
	}
	return postings, nil
}
