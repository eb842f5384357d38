package circuitbreaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/alorle/vpn-ranker/logging"
)

// State represents the current state of the circuit breaker
type State int

const (
	// StateClosed means calls pass through
	StateClosed State = iota
	// StateOpen means calls are rejected without running
	StateOpen
	// StateHalfOpen means a single trial call is allowed
	StateHalfOpen
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpen is returned by Execute while the circuit is open.
var ErrOpen = errors.New("circuit breaker is open")

// Config contains the configuration for a circuit breaker
type Config struct {
	Name             string        // Name used in logs
	FailureThreshold int           // Consecutive failures before opening
	Cooldown         time.Duration // Time spent OPEN before a trial call is allowed
	Clock            clock.Clock   // Defaults to the wall clock
	Logger           *slog.Logger  // Logger for state changes (optional)
}

// Breaker stops calling a failing dependency for a cooldown period.
// After the cooldown one trial call decides whether the circuit closes
// again or stays open for another cooldown.
type Breaker struct {
	config Config

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// New creates a new circuit breaker with the given configuration
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Breaker{config: cfg, state: StateClosed}
}

// Execute runs fn unless the circuit is open. The error of fn is returned
// unchanged; a rejected call returns ErrOpen.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.state == StateOpen {
		if b.config.Clock.Since(b.openedAt) < b.config.Cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.transitionTo(StateHalfOpen)
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.transitionTo(StateClosed)
		return nil
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.config.FailureThreshold {
		b.transitionTo(StateOpen)
	}
	return err
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the circuit and clears the failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.transitionTo(StateClosed)
}

// transitionTo changes the state. Must be called with the lock held.
func (b *Breaker) transitionTo(next State) {
	if b.state == next {
		return
	}
	prev := b.state
	b.state = next
	if next == StateOpen {
		b.openedAt = b.config.Clock.Now()
	}

	if b.config.Logger != nil {
		logging.LogBreakerChange(b.config.Logger, b.config.Name, prev.String(), next.String())
	}
}
