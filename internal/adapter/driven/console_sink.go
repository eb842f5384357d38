package driven

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/alorle/vpn-ranker/internal/port/driven"
	"github.com/alorle/vpn-ranker/internal/probe"
)

// ConsoleSink implements the ResultSink port by printing the ranking and
// the two best endpoints for the operator.
type ConsoleSink struct {
	out io.Writer
}

// NewConsoleSink creates a sink printing to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

// Write prints the outcomes ranked by usage score followed by the best
// game and usage endpoints.
func (s *ConsoleSink) Write(ctx context.Context, report driven.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tENDPOINT\tGAME\tUSAGE\tLATENCY\tDOWNLOAD\tUPLOAD\tLOSS\tSTATUS")
	for i, o := range probe.Rank(report.Outcomes, probe.ByUsageScore) {
		smp := o.Sample()
		status := "ok"
		if o.Degraded() {
			status = string(o.Failure())
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			o.Endpoint(),
			o.GameScore(),
			o.UsageScore(),
			probe.FormatFloat(smp.Latency()),
			probe.FormatFloat(smp.Download()),
			probe.FormatFloat(smp.Upload()),
			smp.PacketLossText(),
			status,
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to print ranking: %w", err)
	}

	if report.Cancelled {
		fmt.Fprintln(s.out, "Run interrupted; ranking covers the endpoints evaluated so far.")
	}
	if _, err := fmt.Fprintf(s.out, "Best game server: %s\nBest usage server: %s\n", report.BestGame, report.BestUsage); err != nil {
		return fmt.Errorf("failed to print best endpoints: %w", err)
	}
	return nil
}
