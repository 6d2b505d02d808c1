package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*DiscordNotifier)(nil)

// DiscordNotifier posts escalations to a Discord webhook. Delivery failures
// are logged and swallowed: notification is fire-and-forget by contract.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	log        *zerolog.Logger
}

func NewDiscordNotifier(webhookURL string, logger *zerolog.Logger) *DiscordNotifier {
	l := logger.With().Str("component", "DiscordNotifier").Logger()
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        &l,
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Color       int    `json:"color"`
}

const (
	colorYellow = 0xF1C40F
	colorGreen  = 0x2ECC71
	colorRed    = 0xE74C3C
)

func (n *DiscordNotifier) NotifyNeedsReview(ctx context.Context, job *model.Job, reason string) error {
	return n.post(ctx, discordEmbed{
		Title:       fmt.Sprintf("Needs review: %s at %s", job.Title, job.Company),
		Description: reason,
		URL:         job.URL,
		Color:       colorYellow,
	})
}

func (n *DiscordNotifier) NotifyApplied(ctx context.Context, job *model.Job) error {
	return n.post(ctx, discordEmbed{
		Title: fmt.Sprintf("Applied: %s at %s", job.Title, job.Company),
		URL:   job.URL,
		Color: colorGreen,
	})
}

func (n *DiscordNotifier) NotifyFailed(ctx context.Context, job *model.Job, errSummary string) error {
	return n.post(ctx, discordEmbed{
		Title:       fmt.Sprintf("Failed: %s at %s", job.Title, job.Company),
		Description: errSummary,
		URL:         job.URL,
		Color:       colorRed,
	})
}

func (n *DiscordNotifier) post(ctx context.Context, embed discordEmbed) error {
	payload := struct {
		Embeds []discordEmbed `json:"embeds"`
	}{Embeds: []discordEmbed{embed}}

	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn().Err(err).Msg("discord delivery failed")
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.log.Warn().Int("status", resp.StatusCode).Msg("discord rejected webhook")
		return fmt.Errorf("discord http %d", resp.StatusCode)
	}
	return nil
}
