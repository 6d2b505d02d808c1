package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NtfyNotifier)(nil)

// NtfyNotifier publishes to an ntfy.sh topic. Message body is the plain text;
// title, priority and click-through target travel as headers.
type NtfyNotifier struct {
	topic  string
	base   string
	client *http.Client
	log    *zerolog.Logger
}

func NewNtfyNotifier(topic string, logger *zerolog.Logger) *NtfyNotifier {
	l := logger.With().Str("component", "NtfyNotifier").Logger()
	return &NtfyNotifier{
		topic:  topic,
		base:   "https://ntfy.sh",
		client: &http.Client{Timeout: 10 * time.Second},
		log:    &l,
	}
}

func (n *NtfyNotifier) NotifyNeedsReview(ctx context.Context, job *model.Job, reason string) error {
	title := fmt.Sprintf("Needs review: %s at %s", job.Title, job.Company)
	return n.publish(ctx, title, reason, job.URL, "high")
}

func (n *NtfyNotifier) NotifyApplied(ctx context.Context, job *model.Job) error {
	title := fmt.Sprintf("Applied: %s at %s", job.Title, job.Company)
	return n.publish(ctx, title, "", job.URL, "default")
}

func (n *NtfyNotifier) NotifyFailed(ctx context.Context, job *model.Job, errSummary string) error {
	title := fmt.Sprintf("Failed: %s at %s", job.Title, job.Company)
	return n.publish(ctx, title, errSummary, job.URL, "default")
}

func (n *NtfyNotifier) publish(ctx context.Context, title, body, clickURL, priority string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.base+"/"+n.topic, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	if clickURL != "" {
		req.Header.Set("Click", clickURL)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn().Err(err).Msg("ntfy delivery failed")
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.log.Warn().Int("status", resp.StatusCode).Msg("ntfy rejected message")
		return fmt.Errorf("ntfy http %d", resp.StatusCode)
	}
	return nil
}
