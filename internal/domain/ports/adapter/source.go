package adapter

import (
	"context"
	"time"
)

// RawPosting is what a source adapter returns before canonicalization.
type RawPosting struct {
	Title    string
	Company  string
	Location string
	URL      string
	ApplyURL string
	PostedAt *time.Time
}

// SourceAdapter is the port for one job board. Fetch must not error on empty
// results; hard failures (network, auth) may error and are contained to that
// source by the aggregator.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]RawPosting, error)
}
