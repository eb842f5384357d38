package driven

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/alorle/vpn-ranker/internal/probe"
)

// ErrNoAddress is returned when a lookup succeeds with an empty answer.
var ErrNoAddress = errors.New("lookup returned no addresses")

// InternetAddressDiscoverer finds the address the machine is seen from on
// the internet.
type InternetAddressDiscoverer interface {
	Discover(ctx context.Context) (probe.Address, error)
}

// IPLookup is the subset of *net.Resolver used by HostResolver.
type IPLookup interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// HostResolver implements the AddressResolver port. Hostnames go through
// standard name resolution; the empty hostname is handed to the discoverer.
type HostResolver struct {
	lookup     IPLookup
	discoverer InternetAddressDiscoverer
	logger     *slog.Logger
}

// NewHostResolver creates a resolver. A nil lookup uses net.DefaultResolver.
func NewHostResolver(lookup IPLookup, discoverer InternetAddressDiscoverer, logger *slog.Logger) (*HostResolver, error) {
	if discoverer == nil {
		return nil, errors.New("discoverer cannot be nil")
	}
	if lookup == nil {
		lookup = net.DefaultResolver
	}
	return &HostResolver{
		lookup:     lookup,
		discoverer: discoverer,
		logger:     logger,
	}, nil
}

// Resolve returns the first IPv4 address of hostname, or the machine's
// internet-facing address when hostname is empty.
func (r *HostResolver) Resolve(ctx context.Context, hostname string) (probe.Address, error) {
	if hostname == "" {
		addr, err := r.discoverer.Discover(ctx)
		if err != nil {
			return probe.Address{}, fmt.Errorf("failed to discover internet address: %w", err)
		}
		return addr, nil
	}

	addrs, err := r.lookup.LookupIPAddr(ctx, hostname)
	if err != nil {
		return probe.Address{}, fmt.Errorf("failed to resolve %s: %w", hostname, err)
	}
	if len(addrs) == 0 {
		return probe.Address{}, fmt.Errorf("%w: %s", ErrNoAddress, hostname)
	}

	for _, a := range addrs {
		if addr, err := probe.AddressFromIP(a.IP); err == nil {
			return addr, nil
		}
	}

	r.logger.Warn("hostname has no IPv4 address", "hostname", hostname, "addresses", len(addrs))
	return probe.Address{}, fmt.Errorf("%w: %s", probe.ErrNotIPv4, hostname)
}
