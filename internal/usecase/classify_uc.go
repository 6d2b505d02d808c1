package usecase

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/repository"
)

// urlPatterns is the primary classification signal: known ATS vendor hosts
// and paths. Matching any pattern yields confidence 0.9.
var urlPatterns = map[model.ApplicationType][]*regexp.Regexp{
	model.TypeWorkday: compile(`\.myworkdayjobs\.com`, `\.wd\d+\.myworkdayjobs\.com`, `myworkday\.com`),
	model.TypeAshby:   compile(`jobs\.ashbyhq\.com`, `app\.ashbyhq\.com`),
	model.TypeGreenhouse: compile(
		`boards\.greenhouse\.io`, `job-boards\.greenhouse\.io`, `\.greenhouse\.io`, `/boards/`),
	model.TypeLever:           compile(`jobs\.lever\.co`, `\.lever\.co`),
	model.TypeOracle:          compile(`\.taleo\.net`, `\.oraclecloud\.com/hcmui`),
	model.TypeADP:             compile(`workforcenow\.adp\.com`, `\.adp\.com`),
	model.TypeICIMS:           compile(`\.icims\.com`),
	model.TypeJobvite:         compile(`\.jobvite\.com`),
	model.TypeSmartRecruiters: compile(`\.smartrecruiters\.com`),
	model.TypeBuiltin:         compile(`builtin\w*\.com/job`),
}

// contentPatterns is the secondary fetch-and-sniff signal: vendor markup
// fingerprints on the landing page.
var contentPatterns = map[model.ApplicationType][]*regexp.Regexp{
	model.TypeWorkday:    compile(`workday`, `wd-apply`, `WDAY_`),
	model.TypeAshby:      compile(`ashbyhq`, `_fieldEntry`),
	model.TypeGreenhouse: compile(`greenhouse\.io`, `gh-apply`, `greenhouse-application`),
	model.TypeLever:      compile(`lever\.co`, `lever-apply`, `posting-form`),
	model.TypeBuiltin:    compile(`Apply on company site`, `>Apply Now<`),
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// DetectFromURL classifies by host/path alone. Pure; confidence 0.9 on a hit.
func DetectFromURL(rawURL string) (model.ApplicationType, float64) {
	u, err := url.Parse(strings.ToLower(rawURL))
	if err != nil || u.Host == "" {
		return model.TypeUnknown, 0
	}
	hostPath := u.Host + u.Path
	for t, patterns := range urlPatterns {
		for _, re := range patterns {
			if re.MatchString(hostPath) {
				return t, 0.9
			}
		}
	}
	return model.TypeUnknown, 0
}

// DetectFromContent fingerprints page markup. Confidence grows with the
// number of matching patterns, capped below the URL signal.
func DetectFromContent(html string) (model.ApplicationType, float64) {
	if html == "" {
		return model.TypeUnknown, 0
	}
	best, bestConf := model.TypeUnknown, 0.0
	for t, patterns := range contentPatterns {
		matches := 0
		for _, re := range patterns {
			if re.MatchString(html) {
				matches++
			}
		}
		if matches > 0 {
			conf := 0.5 + float64(matches)*0.2
			if conf > 0.85 {
				conf = 0.85
			}
			if conf > bestConf {
				best, bestConf = t, conf
			}
		}
	}
	return best, bestConf
}

// Detect combines both signals the way the pipeline needs them: URL wins
// outright, content breaks ties, weak evidence degrades to "custom".
func Detect(rawURL, html string) (model.ApplicationType, float64) {
	urlType, urlConf := DetectFromURL(rawURL)
	if urlConf >= 0.9 {
		return urlType, urlConf
	}
	if html != "" {
		contentType, contentConf := DetectFromContent(html)
		if contentConf > urlConf {
			return contentType, contentConf
		}
	}
	if urlConf > 0 {
		return urlType, urlConf
	}
	return model.TypeCustom, 0.3
}

// ClassifyUseCase assigns an ApplicationType to jobs. Classification is
// idempotent and re-runnable; it never touches job status, and "unknown"
// routes to the generic filler rather than blocking the pipeline.
type ClassifyUseCase struct {
	jobs   repository.JobRepository
	client *http.Client
	log    *zerolog.Logger
}

func NewClassifyUseCase(jobs repository.JobRepository, logger *zerolog.Logger) *ClassifyUseCase {
	l := logger.With().Str("component", "ClassifyUseCase").Logger()
	return &ClassifyUseCase{
		jobs:   jobs,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    &l,
	}
}

// Classify resolves and persists the job's application type. The secondary
// fetch-and-sniff only runs when the URL signal is inconclusive.
func (uc *ClassifyUseCase) Classify(ctx context.Context, job *model.Job) (model.ApplicationType, error) {
	t, conf := DetectFromURL(job.URL)
	if conf < 0.9 {
		if html := uc.fetch(ctx, job.URL); html != "" {
			t, conf = Detect(job.URL, html)
		} else {
			t, conf = Detect(job.URL, "")
		}
	}

	if t != job.ApplicationType {
		if err := uc.jobs.SetApplicationType(ctx, nil, job.ID, t); err != nil {
			return t, err
		}
		job.ApplicationType = t
	}
	uc.log.Info().Str("job_id", job.ID).Str("type", string(t)).Float64("confidence", conf).Msg("classified")
	return t, nil
}

func (uc *ClassifyUseCase) fetch(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", browserUA)
	resp, err := uc.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return ""
	}
	// landing pages are sniffed, not parsed; 512 KiB is plenty
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return ""
	}
	return string(body)
}

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
