package redis

import (
	"context"
	"time"
)

// AbortFlag carries cooperative cancellation requests to in-flight attempts.
// The orchestrator checks the flag at every sub-step boundary, so an abort
// becomes observable within one polling interval. Flags expire on their own
// so a request against a job that never runs cannot poison a later attempt.
type AbortFlag struct {
	client *Client
	ttl    time.Duration
}

func NewAbortFlag(client *Client, ttl time.Duration) *AbortFlag {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AbortFlag{client: client, ttl: ttl}
}

func (a *AbortFlag) Request(ctx context.Context, jobID string) error {
	return a.client.Set(ctx, abortKey(jobID), "1", a.ttl)
}

func (a *AbortFlag) Requested(ctx context.Context, jobID string) (bool, error) {
	return a.client.Exists(ctx, abortKey(jobID))
}

func (a *AbortFlag) Clear(ctx context.Context, jobID string) error {
	return a.client.Del(ctx, abortKey(jobID))
}

func abortKey(jobID string) string { return "job_abort:" + jobID }
