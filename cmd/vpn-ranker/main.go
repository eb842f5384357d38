package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/benbjohnson/clock"
	"go.etcd.io/bbolt"

	"github.com/alorle/vpn-ranker/circuitbreaker"
	"github.com/alorle/vpn-ranker/config"
	"github.com/alorle/vpn-ranker/internal/adapter/driven"
	"github.com/alorle/vpn-ranker/internal/application"
	"github.com/alorle/vpn-ranker/internal/endpoint"
	portdriven "github.com/alorle/vpn-ranker/internal/port/driven"
	"github.com/alorle/vpn-ranker/logging"
)

const historyCommand = "history"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	showHistory := len(args) > 0 && args[0] == historyCommand
	var runID string
	if showHistory {
		if len(args) > 2 {
			fmt.Fprintf(stderr, "usage: vpn-ranker history [run-id]\n")
			return 1
		}
		if len(args) == 2 {
			runID = args[1]
		}
		args = nil
	}

	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(stderr, "vpn-ranker: %v\n", err)
		return 1
	}

	logger := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if showHistory {
		return runHistory(ctx, cfg, runID, stdout, logger)
	}
	return runBenchmark(ctx, cfg, stdout, logger)
}

func runBenchmark(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) int {
	endpoints, rejected, err := endpoint.ReadFile(cfg.EndpointList)
	for _, line := range rejected {
		logger.Warn("skipping invalid endpoint", "line", line)
	}
	if err != nil {
		logger.Error("failed to load endpoints", "path", cfg.EndpointList, "error", err)
		return 1
	}

	logger.Info("starting vpn-ranker",
		"endpoints", len(endpoints),
		"endpoint_list", cfg.EndpointList,
		"discovery", cfg.Discovery.Method,
		"output_dir", cfg.Output.Dir,
		"history", cfg.History.Enabled,
	)

	clk := clock.New()
	runner := driven.NewExecRunner(cfg.Commands.Timeout, logger)

	switchArgv, err := cfg.SwitchCommand()
	if err != nil {
		logger.Error("invalid switch command", "error", err)
		return 1
	}
	switcher, err := driven.NewCommandSwitcher(runner, switchArgv[0], switchArgv[1:], logger)
	if err != nil {
		logger.Error("failed to create switcher", "error", err)
		return 1
	}

	sampleArgv, err := cfg.SampleCommand()
	if err != nil {
		logger.Error("invalid sample command", "error", err)
		return 1
	}
	sampler, err := driven.NewSpeedtestSampler(runner, sampleArgv[0], sampleArgv[1:], logger)
	if err != nil {
		logger.Error("failed to create sampler", "error", err)
		return 1
	}

	resolver, err := driven.NewHostResolver(nil, newDiscoverer(cfg, logger), logger)
	if err != nil {
		logger.Error("failed to create resolver", "error", err)
		return 1
	}

	sinks := []portdriven.ResultSink{
		driven.NewTSVSink(cfg.Output.Dir, logger),
		driven.NewConsoleSink(stdout),
	}
	if cfg.Output.MetricsFile != "" {
		sinks = append(sinks, driven.NewMetricsSink(cfg.Output.MetricsFile, logger))
	}

	if cfg.History.Enabled {
		db, err := openDB(cfg.History.DBPath)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.History.DBPath, "error", err)
			return 1
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("error closing database", "error", err)
			}
		}()

		repo, err := driven.NewRunBoltDBRepository(db)
		if err != nil {
			logger.Error("failed to create run repository", "error", err)
			return 1
		}
		if err := application.NewHistoryService(repo, clk, cfg.History.Retention, logger).Prune(ctx); err != nil {
			logger.Warn("failed to prune run history", "error", err)
		}
		sinks = append(sinks, repo)
	}

	evaluator := application.NewEvaluatorService(resolver, switcher, sampler, clk, evaluatorConfig(cfg.Retry), logger)
	benchmark := application.NewBenchmarkService(evaluator, driven.NewMultiSink(sinks...), clk, logger)

	report, err := benchmark.Run(ctx, endpoints)
	if err != nil {
		logger.Error("benchmark failed", "run_id", report.RunID, "error", err)
		return 1
	}

	logger.Info("benchmark finished",
		"run_id", report.RunID,
		"evaluated", len(report.Outcomes),
		"cancelled", report.Cancelled,
		"best_game", report.BestGame,
		"best_usage", report.BestUsage,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return 0
}

func runHistory(ctx context.Context, cfg *config.Config, runID string, stdout io.Writer, logger *slog.Logger) int {
	if !cfg.History.Enabled {
		logger.Error("run history is disabled")
		return 1
	}

	db, err := openDB(cfg.History.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.History.DBPath, "error", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	repo, err := driven.NewRunBoltDBRepository(db)
	if err != nil {
		logger.Error("failed to create run repository", "error", err)
		return 1
	}
	history := application.NewHistoryService(repo, clock.New(), cfg.History.Retention, logger)

	if runID == "" {
		runs, err := history.ListRuns(ctx)
		if err != nil {
			logger.Error("failed to list runs", "error", err)
			return 1
		}
		printRuns(stdout, runs)
		return 0
	}

	report, err := history.GetRun(ctx, runID)
	if errors.Is(err, portdriven.ErrRunNotFound) {
		logger.Error("run not found", "run_id", runID)
		return 1
	}
	if err != nil {
		logger.Error("failed to load run", "run_id", runID, "error", err)
		return 1
	}
	if err := driven.NewConsoleSink(stdout).Write(ctx, report); err != nil {
		logger.Error("failed to print run", "run_id", runID, "error", err)
		return 1
	}
	return 0
}

// newDiscoverer builds the internet address discoverer for the configured method.
func newDiscoverer(cfg *config.Config, logger *slog.Logger) driven.InternetAddressDiscoverer {
	opendns := driven.NewOpenDNSDiscoverer(cfg.Discovery.OpenDNSServer, cfg.Discovery.Timeout, logger)
	stun := driven.NewSTUNDiscoverer(cfg.Discovery.STUNServer, cfg.Discovery.Timeout, logger)

	switch cfg.Discovery.Method {
	case config.DiscoveryOpenDNS:
		return opendns
	case config.DiscoverySTUN:
		return stun
	default:
		if cfg.Discovery.BreakerThreshold == 0 {
			return driven.NewFallbackDiscoverer(opendns, stun)
		}
		breaker := circuitbreaker.New(circuitbreaker.Config{
			Name:             config.DiscoveryOpenDNS,
			FailureThreshold: cfg.Discovery.BreakerThreshold,
			Cooldown:         cfg.Discovery.BreakerCooldown,
			Logger:           logger,
		})
		return driven.NewFallbackDiscoverer(driven.NewBreakerDiscoverer(config.DiscoveryOpenDNS, opendns, breaker), stun)
	}
}

func evaluatorConfig(rc config.RetryConfig) application.EvaluatorConfig {
	return application.EvaluatorConfig{
		SettleInterval:  rc.SettleInterval,
		InternetRetries: rc.InternetRetries,
		ServerRetries:   rc.ServerRetries,
		OctetTolerance:  rc.OctetTolerance,
	}
}

func openDB(path string) (*bbolt.DB, error) {
	return bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
}

func printRuns(w io.Writer, runs []portdriven.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tENDPOINTS\tBEST GAME\tBEST USAGE\tSTATUS")
	for _, r := range runs {
		status := "complete"
		if r.Cancelled {
			status = "interrupted"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.OutcomeCount,
			r.BestGame,
			r.BestUsage,
			status,
		)
	}
	tw.Flush()
}
