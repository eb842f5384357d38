package driven

import (
	"context"

	"github.com/alorle/vpn-ranker/internal/probe"
)

// AddressResolver resolves hostnames to IPv4 addresses.
// This is a driven port implemented by concrete adapters (e.g., system DNS).
type AddressResolver interface {
	// Resolve returns the first IPv4 address of hostname. An empty hostname
	// resolves the machine's own internet-facing address instead.
	// Results that cannot be coerced to IPv4 are reported as probe.ErrNotIPv4.
	Resolve(ctx context.Context, hostname string) (probe.Address, error)
}
