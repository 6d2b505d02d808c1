package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/domain/ports/repository"
	"job-autopilot/internal/infra/metrics"
)

// SourceReport summarizes one adapter's contribution to a discovery run.
type SourceReport struct {
	Source string `json:"source"`
	Found  int    `json:"found"`
	New    int    `json:"new"`
	Error  string `json:"error,omitempty"`
}

// DiscoveryReport is the result of one aggregator run.
type DiscoveryReport struct {
	Sources    []SourceReport `json:"sources"`
	TotalFound int            `json:"total_found"`
	TotalNew   int            `json:"total_new"`
	Duplicates int            `json:"duplicates"`
	Filtered   int            `json:"filtered"`
	Invalid    int            `json:"invalid"`
}

// DiscoveryUseCase aggregates postings from source adapters, deduplicates by
// canonical URL against the store, applies the seniority filter and the link
// validator, and persists new jobs. One adapter's failure never aborts the
// run: it is recorded in the report and contributes zero postings.
type DiscoveryUseCase struct {
	sources       map[string]adapter.SourceAdapter
	jobs          repository.JobRepository
	validator     *LinkValidator
	maxConcurrent int
	validateLinks bool
	log           *zerolog.Logger
}

func NewDiscoveryUseCase(
	sources []adapter.SourceAdapter,
	jobs repository.JobRepository,
	validator *LinkValidator,
	maxConcurrent int,
	validateLinks bool,
	logger *zerolog.Logger,
) *DiscoveryUseCase {
	byName := make(map[string]adapter.SourceAdapter, len(sources))
	for _, s := range sources {
		byName[s.Name()] = s
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	l := logger.With().Str("component", "DiscoveryUseCase").Logger()
	return &DiscoveryUseCase{
		sources:       byName,
		jobs:          jobs,
		validator:     validator,
		maxConcurrent: maxConcurrent,
		validateLinks: validateLinks,
		log:           &l,
	}
}

// SourceNames lists the registered adapters.
func (uc *DiscoveryUseCase) SourceNames() []string {
	out := make([]string, 0, len(uc.sources))
	for n := range uc.sources {
		out = append(out, n)
	}
	return out
}

type fetchResult struct {
	source   string
	postings []adapter.RawPosting
	err      error
}

// Discover runs the requested sources concurrently and pipes their postings
// through dedup -> filter -> link validation -> insert. Output ordering is
// unspecified.
func (uc *DiscoveryUseCase) Discover(ctx context.Context, sourceNames []string, limitPerSource int) (*DiscoveryReport, error) {
	if len(sourceNames) == 0 {
		sourceNames = uc.SourceNames()
	}

	results := make(chan fetchResult, len(sourceNames))
	sem := make(chan struct{}, uc.maxConcurrent)
	var wg sync.WaitGroup

	for _, name := range sourceNames {
		src, ok := uc.sources[name]
		if !ok {
			results <- fetchResult{source: name, err: errUnknownSource(name)}
			continue
		}
		wg.Add(1)
		go func(src adapter.SourceAdapter) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			postings, err := src.Fetch(ctx, limitPerSource)
			results <- fetchResult{source: src.Name(), postings: postings, err: err}
		}(src)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &DiscoveryReport{}
	seenThisRun := map[string]bool{}

	for res := range results {
		sr := SourceReport{Source: res.source, Found: len(res.postings)}
		if res.err != nil {
			// contained: the source is skipped this run
			sr.Error = res.err.Error()
			uc.log.Warn().Str("source", res.source).Err(res.err).Msg("source unavailable")
			metrics.IncSourceError(res.source)
			report.Sources = append(report.Sources, sr)
			continue
		}
		report.TotalFound += len(res.postings)

		for _, p := range res.postings {
			job, err := model.NewJob(p.Title, p.Company, p.Location, p.URL, res.source)
			if err != nil {
				continue
			}
			job.ApplyURL = p.ApplyURL
			job.PostedAt = p.PostedAt

			if seenThisRun[job.ID] {
				report.Duplicates++
				continue
			}
			seenThisRun[job.ID] = true

			exists, err := uc.jobs.ExistsByID(ctx, nil, job.ID)
			if err != nil {
				return report, err
			}
			if exists {
				// never overwrite a stored job with second-source data
				report.Duplicates++
				continue
			}

			if ok, marker := AllowTitle(job.Title); !ok {
				uc.log.Debug().Str("title", job.Title).Str("marker", marker).Msg("filtered by seniority")
				report.Filtered++
				continue
			}

			if uc.validateLinks && uc.validator != nil {
				if ok, reason := uc.validator.Validate(ctx, job.URL); !ok {
					// kept for audit, excluded from the candidate pool
					job.Status = model.JobStatusSkipped
					job.LastError = reason
					report.Invalid++
				}
			}

			if err := uc.jobs.Save(ctx, nil, job); err != nil {
				return report, err
			}
			if job.Status != model.JobStatusSkipped {
				sr.New++
				report.TotalNew++
			}
			metrics.IncJobDiscovered(res.source)
		}
		report.Sources = append(report.Sources, sr)
	}

	uc.log.Info().
		Int("found", report.TotalFound).
		Int("new", report.TotalNew).
		Int("duplicates", report.Duplicates).
		Int("filtered", report.Filtered).
		Int("invalid", report.Invalid).
		Msg("discovery run finished")
	return report, nil
}

type errUnknownSource string

func (e errUnknownSource) Error() string { return "unknown source: " + string(e) }
