package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/alorle/vpn-ranker/internal/endpoint"
	"github.com/alorle/vpn-ranker/internal/port/driven"
	"github.com/alorle/vpn-ranker/internal/probe"
	"github.com/alorle/vpn-ranker/logging"
)

// EndpointEvaluator evaluates a single endpoint.
type EndpointEvaluator interface {
	Evaluate(ctx context.Context, endpoint string) (probe.Outcome, error)
}

// BenchmarkService runs the evaluator over an endpoint list, scores the
// collected outcomes and hands the report to the sink.
type BenchmarkService struct {
	evaluator EndpointEvaluator
	sink      driven.ResultSink
	clock     clock.Clock
	logger    *slog.Logger
}

// NewBenchmarkService creates a new BenchmarkService.
func NewBenchmarkService(
	evaluator EndpointEvaluator,
	sink driven.ResultSink,
	clk clock.Clock,
	logger *slog.Logger,
) *BenchmarkService {
	if clk == nil {
		clk = clock.New()
	}
	return &BenchmarkService{
		evaluator: evaluator,
		sink:      sink,
		clock:     clk,
		logger:    logger,
	}
}

// Run evaluates endpoints strictly in order. Cancellation of ctx is only
// observed between endpoints: an evaluation that has started always
// finishes and is recorded, and the outcomes collected so far are still
// scored and written.
//
// Run fails without writing anything when endpoints is empty or when the
// outcomes carry no throughput to score against.
func (s *BenchmarkService) Run(ctx context.Context, endpoints []string) (driven.Report, error) {
	if len(endpoints) == 0 {
		return driven.Report{}, endpoint.ErrEmptyList
	}

	report := driven.Report{
		RunID:     uuid.NewString(),
		StartedAt: s.clock.Now(),
	}
	s.logger.Info("starting benchmark run", "run_id", report.RunID, "endpoints", len(endpoints))

	// Evaluations run to completion even after an interrupt.
	evalCtx := context.WithoutCancel(ctx)

	outcomes := make([]probe.Outcome, 0, len(endpoints))
	for i, ep := range endpoints {
		if ctx.Err() != nil {
			report.Cancelled = true
			s.logger.Warn("benchmark run interrupted",
				"run_id", report.RunID,
				"evaluated", len(outcomes),
				"remaining", len(endpoints)-i,
			)
			break
		}

		logging.LogSwitch(s.logger, ep, i+1, len(endpoints))
		outcome, err := s.evaluator.Evaluate(evalCtx, ep)
		if err != nil {
			s.logger.Warn("endpoint skipped", "endpoint", ep, "error", err)
			continue
		}
		outcomes = append(outcomes, outcome)
	}

	scored, err := probe.Score(outcomes)
	report.FinishedAt = s.clock.Now()
	if err != nil {
		report.Outcomes = outcomes
		return report, fmt.Errorf("failed to score run: %w", err)
	}
	report.Outcomes = scored

	if best, ok := probe.Best(scored, probe.ByGameScore); ok {
		report.BestGame = best.Endpoint()
	}
	if best, ok := probe.Best(scored, probe.ByUsageScore); ok {
		report.BestUsage = best.Endpoint()
	}

	if err := s.sink.Write(context.WithoutCancel(ctx), report); err != nil {
		return report, fmt.Errorf("failed to write results: %w", err)
	}

	s.logger.Info("benchmark run completed",
		"run_id", report.RunID,
		"outcomes", len(report.Outcomes),
		"best_game", report.BestGame,
		"best_usage", report.BestUsage,
		"elapsed", report.FinishedAt.Sub(report.StartedAt).String(),
	)
	return report, nil
}
