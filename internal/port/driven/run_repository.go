package driven

import (
	"context"
	"time"
)

// RunSummary describes a stored run without its outcomes.
type RunSummary struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Cancelled    bool
	OutcomeCount int
	BestGame     string
	BestUsage    string
}

// RunRepository defines the interface for benchmark run history.
// This is a driven port implemented by concrete adapters (e.g., BoltDB).
// Every RunRepository is also a ResultSink.
type RunRepository interface {
	ResultSink

	// FindByRunID retrieves a stored run. Returns ErrRunNotFound if the run
	// does not exist.
	FindByRunID(ctx context.Context, runID string) (Report, error)

	// ListRuns returns summaries of all stored runs, most recent first.
	ListRuns(ctx context.Context) ([]RunSummary, error)

	// DeleteBefore removes all runs that started before the given time.
	DeleteBefore(ctx context.Context, before time.Time) error
}
