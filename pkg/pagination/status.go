package pagination

import (
	"context"
	"time"
)

// State is the scheduler's lifecycle state.
type State string

const (
	// StateRunning dispatches new rounds and resolves outstanding pages.
	StateRunning State = "running"

	// StateDraining resolves outstanding pages only; an empty page was seen.
	StateDraining State = "draining"

	// StateDone means the source was exhausted and nothing is outstanding.
	StateDone State = "done"

	// StateAborted means the circuit breaker tripped.
	StateAborted State = "aborted"

	// StateStopped means the consumer stopped early or the context ended.
	StateStopped State = "stopped"
)

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted || s == StateStopped
}

// Status is a snapshot of a crawl's progress.
type Status struct {
	CrawlID           string    `json:"crawl_id"`
	Label             string    `json:"label"`
	State             State     `json:"state"`
	NextPage          int       `json:"next_page"`
	Outstanding       int       `json:"outstanding"`
	ConsecutiveErrors int       `json:"consecutive_errors"`
	Batches           int       `json:"batches"`
	Records           int       `json:"records"`
	Retries           int       `json:"retries"`
	Discarded         []int     `json:"discarded,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Reporter receives status snapshots. Report errors are logged and otherwise ignored.
type Reporter interface {
	Report(ctx context.Context, status Status) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, status Status) error

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, status Status) error {
	return f(ctx, status)
}
