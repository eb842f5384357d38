package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"

	"github.com/alorle/vpn-ranker/internal/port/driven"
	"github.com/alorle/vpn-ranker/internal/probe"
	"github.com/alorle/vpn-ranker/logging"
	"github.com/alorle/vpn-ranker/metrics"
)

// Lookup targets, used in logs and metrics.
const (
	targetInternet = "internet"
	targetServer   = "server"
)

var errUnresolved = errors.New("resolver returned no address")

// EvaluatorConfig holds the timing and tolerance settings of an evaluation.
type EvaluatorConfig struct {
	// SettleInterval is waited after every switch and between lookup retries.
	SettleInterval time.Duration
	// InternetRetries is the number of retries after the first failed
	// internet address lookup.
	InternetRetries int
	// ServerRetries is the number of retries after the first failed
	// endpoint address lookup.
	ServerRetries int
	// OctetTolerance is the largest accepted difference between the last
	// octets of the internet and endpoint addresses.
	OctetTolerance int
}

// DefaultEvaluatorConfig returns the settings used when none are configured.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		SettleInterval:  time.Second,
		InternetRetries: 15,
		ServerRetries:   1,
		OctetTolerance:  probe.DefaultOctetTolerance,
	}
}

// EvaluatorService drives one endpoint through switch, settle, address
// lookups, address validation and speed sampling. Every failure after the
// switch yields a degraded outcome instead of an error, so the run always
// reports on each endpoint it attempted.
type EvaluatorService struct {
	resolver driven.AddressResolver
	switcher driven.EndpointSwitcher
	sampler  driven.SpeedSampler
	clock    clock.Clock
	config   EvaluatorConfig
	logger   *slog.Logger
}

// NewEvaluatorService creates a new EvaluatorService.
func NewEvaluatorService(
	resolver driven.AddressResolver,
	switcher driven.EndpointSwitcher,
	sampler driven.SpeedSampler,
	clk clock.Clock,
	config EvaluatorConfig,
	logger *slog.Logger,
) *EvaluatorService {
	if clk == nil {
		clk = clock.New()
	}
	return &EvaluatorService{
		resolver: resolver,
		switcher: switcher,
		sampler:  sampler,
		clock:    clk,
		config:   config,
		logger:   logger,
	}
}

// Evaluate runs the full evaluation of one endpoint. The returned error is
// only non-nil when no outcome can be built at all (an empty endpoint).
func (s *EvaluatorService) Evaluate(ctx context.Context, endpoint string) (probe.Outcome, error) {
	if strings.TrimSpace(endpoint) == "" {
		return probe.Outcome{}, probe.ErrEmptyEndpoint
	}

	if err := s.switcher.SwitchTo(ctx, endpoint); err != nil {
		// Not fatal: the address check below decides whether the switch took effect.
		logging.LogSwitchFailed(s.logger, endpoint, err)
		metrics.RecordSwitchFailure()
	}

	s.clock.Sleep(s.config.SettleInterval)

	internet, err := s.resolveWithRetry(ctx, endpoint, "", targetInternet, s.config.InternetRetries)
	if err != nil {
		return s.degraded(endpoint, probe.Address{}, probe.Address{}, probe.FailureInternetUnresolved, err)
	}

	server, err := s.resolveWithRetry(ctx, endpoint, endpoint, targetServer, s.config.ServerRetries)
	if err != nil {
		return s.degraded(endpoint, probe.Address{}, internet, probe.FailureServerUnresolved, err)
	}

	if !probe.Matches(internet, server, s.config.OctetTolerance) {
		return s.degraded(endpoint, server, internet, probe.FailureAddressMismatch,
			fmt.Errorf("internet address %s is not within %d of %s", internet, s.config.OctetTolerance, server))
	}
	logging.LogAddressVerified(s.logger, endpoint, internet.String(), server.String())

	start := s.clock.Now()
	sample, err := s.sampler.Sample(ctx)
	elapsed := s.clock.Since(start)
	metrics.ObserveSampleDuration(elapsed.Seconds())
	if err != nil {
		return s.degraded(endpoint, server, internet, probe.FailureSample, err)
	}
	logging.LogSample(s.logger, endpoint, sample.Latency(), sample.Download(), sample.Upload(), elapsed)

	outcome, err := probe.NewOutcome(endpoint, server, internet, sample)
	if err != nil {
		return probe.Outcome{}, err
	}
	metrics.RecordEndpointEvaluated("ok")
	return outcome, nil
}

// resolveWithRetry looks up hostname, retrying up to retries more times one
// settle interval apart.
func (s *EvaluatorService) resolveWithRetry(ctx context.Context, endpoint, hostname, target string, retries int) (probe.Address, error) {
	var addr probe.Address
	attempt := 0

	operation := func() error {
		attempt++
		a, err := s.resolver.Resolve(ctx, hostname)
		if err != nil {
			return err
		}
		if !a.IsValid() {
			return errUnresolved
		}
		addr = a
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logging.LogResolveRetry(s.logger, endpoint, target, attempt, wait, err)
		metrics.RecordResolveRetry(target)
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if retries > 0 {
		policy = backoff.WithMaxRetries(backoff.NewConstantBackOff(s.config.SettleInterval), uint64(retries))
	}

	b := backoff.WithContext(policy, ctx)
	if err := backoff.RetryNotifyWithTimer(operation, b, notify, &clockTimer{clock: s.clock}); err != nil {
		return probe.Address{}, fmt.Errorf("%s address unresolved after %d attempts: %w", target, attempt, err)
	}
	return addr, nil
}

func (s *EvaluatorService) degraded(endpoint string, server, internet probe.Address, failure probe.Failure, cause error) (probe.Outcome, error) {
	logging.LogDegraded(s.logger, endpoint, string(failure), cause)
	metrics.RecordEndpointEvaluated(string(failure))
	return probe.NewDegradedOutcome(endpoint, server, internet, failure)
}

// clockTimer adapts a clock.Clock to backoff.Timer so retry waits follow
// the service clock.
type clockTimer struct {
	clock clock.Clock
	timer *clock.Timer
}

func (t *clockTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = t.clock.Timer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *clockTimer) C() <-chan time.Time {
	return t.timer.C
}
