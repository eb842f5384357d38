package driven

import (
	"context"
	"time"

	"github.com/alorle/vpn-ranker/internal/probe"
)

// Report is the finished, scored result set of one benchmark run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Cancelled  bool // stopped before every endpoint was evaluated
	Outcomes   []probe.Outcome
	BestGame   string
	BestUsage  string
}

// ResultSink persists or reports a finished run.
// This is a driven port implemented by concrete adapters (e.g., TSV file, BoltDB).
type ResultSink interface {
	Write(ctx context.Context, report Report) error
}
