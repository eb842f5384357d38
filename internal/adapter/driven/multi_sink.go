package driven

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/alorle/vpn-ranker/internal/port/driven"
)

// MultiSink fans a report out to several sinks. Every sink is written even
// when an earlier one fails; the failures are returned together.
type MultiSink struct {
	sinks []driven.ResultSink
}

// NewMultiSink creates a sink writing to sinks in order.
func NewMultiSink(sinks ...driven.ResultSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write writes report to every sink.
func (m *MultiSink) Write(ctx context.Context, report driven.Report) error {
	var result *multierror.Error
	for _, s := range m.sinks {
		if err := s.Write(ctx, report); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
