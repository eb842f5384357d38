package driven

import (
	"context"
	"fmt"

	"github.com/alorle/vpn-ranker/circuitbreaker"
	"github.com/alorle/vpn-ranker/internal/probe"
)

// BreakerDiscoverer skips a discoverer that keeps failing, so a blocked
// discovery service does not cost its full timeout on every lookup.
type BreakerDiscoverer struct {
	name    string
	next    InternetAddressDiscoverer
	breaker *circuitbreaker.Breaker
}

// NewBreakerDiscoverer wraps next in breaker.
func NewBreakerDiscoverer(name string, next InternetAddressDiscoverer, breaker *circuitbreaker.Breaker) *BreakerDiscoverer {
	return &BreakerDiscoverer{name: name, next: next, breaker: breaker}
}

// Discover delegates to the wrapped discoverer unless its circuit is open.
func (d *BreakerDiscoverer) Discover(ctx context.Context) (probe.Address, error) {
	var addr probe.Address
	err := d.breaker.Execute(func() error {
		var err error
		addr, err = d.next.Discover(ctx)
		return err
	})
	if err != nil {
		return probe.Address{}, fmt.Errorf("%s: %w", d.name, err)
	}
	return addr, nil
}
