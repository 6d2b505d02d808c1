package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LinkValidator performs the bounded-latency reachability and reputation
// checks of the discovery pipeline. A rejected URL marks its job "skipped"
// (terminal, audit-preserving); it is never deleted.

var suspiciousHosts = []string{
	"blogspot", "wordpress", "wixsite", "weebly",
	"yolasite", "jimdo", "site123", "bravenet",
	"angelfire", "tripod", "geocities",
}

var deadPostingMarkers = []string{
	"job not found", "job does not exist", "position has been filled",
	"this job is no longer available", "page not found",
	"job has been removed", "no longer accepting",
}

var phishingMarkers = []string{
	"telegram", "whatsapp", "check processing",
	"bank account", "money order", "wire transfer",
	"google hangouts", "verification code", "cryptocurrency",
}

type linkResult struct {
	valid  bool
	reason string
}

type LinkValidator struct {
	client       *http.Client
	deniedHosts  []string
	checkContent bool
	sem          chan struct{}

	mu    sync.Mutex
	cache map[string]linkResult

	log *zerolog.Logger
}

func NewLinkValidator(timeout time.Duration, maxConcurrent int, deniedHosts []string, checkContent bool, logger *zerolog.Logger) *LinkValidator {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	l := logger.With().Str("component", "LinkValidator").Logger()
	return &LinkValidator{
		client:       &http.Client{Timeout: timeout},
		deniedHosts:  deniedHosts,
		checkContent: checkContent,
		sem:          make(chan struct{}, maxConcurrent),
		cache:        map[string]linkResult{},
		log:          &l,
	}
}

// Validate reports whether the URL is reachable and reputable. The reason is
// empty for valid links. Timeouts lean valid: a slow board should not drop a
// real posting.
func (v *LinkValidator) Validate(ctx context.Context, rawURL string) (bool, string) {
	v.mu.Lock()
	if r, ok := v.cache[rawURL]; ok {
		v.mu.Unlock()
		return r.valid, r.reason
	}
	v.mu.Unlock()

	valid, reason := v.check(ctx, rawURL)

	v.mu.Lock()
	v.cache[rawURL] = linkResult{valid: valid, reason: reason}
	v.mu.Unlock()
	return valid, reason
}

func (v *LinkValidator) check(ctx context.Context, rawURL string) (bool, string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false, "unparseable URL"
	}
	host := strings.ToLower(u.Host)

	for _, d := range v.deniedHosts {
		if d != "" && strings.Contains(host, strings.ToLower(d)) {
			return false, "denied domain: " + d
		}
	}
	for _, d := range suspiciousHosts {
		if strings.Contains(host, d) {
			return false, "suspicious domain: " + d
		}
	}

	select {
	case v.sem <- struct{}{}:
		defer func() { <-v.sem }()
	case <-ctx.Done():
		return true, ""
	}

	resp, err := v.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		// timeouts and transport errors lean valid
		return true, ""
	}
	resp.Body.Close()

	// some servers reject HEAD outright; retry with GET before judging
	if resp.StatusCode >= 400 {
		resp, err = v.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return true, ""
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return false, fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		if v.checkContent {
			return v.sniffBody(resp.Body)
		}
		return true, ""
	}

	if finalHost := strings.ToLower(resp.Request.URL.Host); finalHost != host {
		for _, d := range v.deniedHosts {
			if d != "" && strings.Contains(finalHost, strings.ToLower(d)) {
				return false, "redirects to denied domain: " + d
			}
		}
	}

	if v.checkContent {
		getResp, err := v.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return true, ""
		}
		defer getResp.Body.Close()
		return v.sniffBody(getResp.Body)
	}
	return true, ""
}

func (v *LinkValidator) sniffBody(body io.Reader) (bool, string) {
	b, err := io.ReadAll(io.LimitReader(body, 256<<10))
	if err != nil {
		return true, ""
	}
	content := strings.ToLower(string(b))
	for _, m := range deadPostingMarkers {
		if strings.Contains(content, m) {
			return false, "dead posting: " + m
		}
	}
	for _, m := range phishingMarkers {
		if strings.Contains(content, m) {
			return false, "phishing indicator: " + m
		}
	}
	return true, ""
}

func (v *LinkValidator) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)
	return v.client.Do(req)
}
