package driven

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alorle/vpn-ranker/internal/port/driven"
	"github.com/alorle/vpn-ranker/metrics"
)

// MetricsSink implements the ResultSink port by publishing the run's
// results as Prometheus metrics and writing them to a textfile.
type MetricsSink struct {
	path   string
	logger *slog.Logger
}

// NewMetricsSink creates a sink writing the textfile to path.
func NewMetricsSink(path string, logger *slog.Logger) *MetricsSink {
	return &MetricsSink{path: path, logger: logger}
}

// Write replaces the per-endpoint series with this run's outcomes.
func (s *MetricsSink) Write(ctx context.Context, report driven.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	metrics.ResetEndpointResults()
	for _, o := range report.Outcomes {
		smp := o.Sample()
		metrics.SetEndpointResult(o.Endpoint(), smp.Latency(), smp.Download(), smp.Upload(), o.GameScore(), o.UsageScore())
	}
	metrics.SetLastRun(
		float64(report.FinishedAt.Unix()),
		report.FinishedAt.Sub(report.StartedAt).Seconds(),
	)

	if err := metrics.WriteTextfile(s.path); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	s.logger.Debug("metrics textfile written", "path", s.path)
	return nil
}
