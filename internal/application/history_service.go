package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/alorle/vpn-ranker/internal/port/driven"
)

// HistoryService reads and prunes stored benchmark runs.
type HistoryService struct {
	repo      driven.RunRepository
	clock     clock.Clock
	retention time.Duration
	logger    *slog.Logger
}

// NewHistoryService creates a new HistoryService. Runs older than retention
// are removed by Prune; a zero retention keeps everything.
func NewHistoryService(repo driven.RunRepository, clk clock.Clock, retention time.Duration, logger *slog.Logger) *HistoryService {
	if clk == nil {
		clk = clock.New()
	}
	return &HistoryService{
		repo:      repo,
		clock:     clk,
		retention: retention,
		logger:    logger,
	}
}

// ListRuns returns stored runs, most recent first.
func (s *HistoryService) ListRuns(ctx context.Context) ([]driven.RunSummary, error) {
	runs, err := s.repo.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a stored run. Returns driven.ErrRunNotFound if it does not exist.
func (s *HistoryService) GetRun(ctx context.Context, runID string) (driven.Report, error) {
	report, err := s.repo.FindByRunID(ctx, runID)
	if err != nil {
		return driven.Report{}, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return report, nil
}

// Prune removes runs older than the retention period.
func (s *HistoryService) Prune(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}
	cutoff := s.clock.Now().Add(-s.retention)
	if err := s.repo.DeleteBefore(ctx, cutoff); err != nil {
		return fmt.Errorf("failed to prune runs: %w", err)
	}
	s.logger.Debug("pruned run history", "before", cutoff)
	return nil
}
