package driven

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alorle/vpn-ranker/internal/port/driven"
	"github.com/alorle/vpn-ranker/internal/probe"
)

// resultFileLayout names result files after the run's start time.
const resultFileLayout = "results_20060102150405.tsv"

// tsvHeader is the header row of every result file.
var tsvHeader = []string{
	"endpoint",
	"server_ip",
	"internet_ip",
	"latency",
	"jitter",
	"packet_loss",
	"download",
	"upload",
	"game_score",
	"usage_score",
}

// TSVSink implements the ResultSink port by writing one tab-separated
// file per run into a directory.
type TSVSink struct {
	dir    string
	logger *slog.Logger
}

// NewTSVSink creates a sink writing into dir. An empty dir means the
// working directory.
func NewTSVSink(dir string, logger *slog.Logger) *TSVSink {
	if dir == "" {
		dir = "."
	}
	return &TSVSink{dir: dir, logger: logger}
}

// PathFor returns the file a report is written to.
func (s *TSVSink) PathFor(report driven.Report) string {
	return filepath.Join(s.dir, report.StartedAt.Format(resultFileLayout))
}

// Write creates the result file and writes the report's outcomes in order.
func (s *TSVSink) Write(ctx context.Context, report driven.Report) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := s.PathFor(report)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close result file: %w", closeErr)
		}
	}()

	if err := WriteTSV(f, report.Outcomes); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}

	s.logger.Info("results written", "path", path, "outcomes", len(report.Outcomes))
	return nil
}

// WriteTSV writes a header row and one row per outcome to w.
func WriteTSV(w io.Writer, outcomes []probe.Outcome) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(tsvHeader); err != nil {
		return err
	}
	for _, o := range outcomes {
		if err := cw.Write(tsvRow(o)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func tsvRow(o probe.Outcome) []string {
	s := o.Sample()
	return []string{
		o.Endpoint(),
		o.ServerAddress().String(),
		o.InternetAddress().String(),
		probe.FormatFloat(s.Latency()),
		probe.FormatFloat(s.Jitter()),
		s.PacketLossText(),
		probe.FormatFloat(s.Download()),
		probe.FormatFloat(s.Upload()),
		probe.FormatFloat(o.GameScore()),
		probe.FormatFloat(o.UsageScore()),
	}
}
