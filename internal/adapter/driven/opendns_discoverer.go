package driven

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/miekg/dns"

	"github.com/alorle/vpn-ranker/internal/probe"
)

// Defaults for the OpenDNS "myip" lookup.
const (
	DefaultOpenDNSServer = "208.67.222.222:53"
	DefaultOpenDNSName   = "myip.opendns.com."
)

// OpenDNSDiscoverer finds the internet-facing address by asking an OpenDNS
// resolver for the A record of myip.opendns.com, which it answers with the
// querying address.
type OpenDNSDiscoverer struct {
	server string
	name   string
	client *dns.Client
	logger *slog.Logger
}

// NewOpenDNSDiscoverer creates a discoverer querying server ("host:port").
func NewOpenDNSDiscoverer(server string, timeout time.Duration, logger *slog.Logger) *OpenDNSDiscoverer {
	if server == "" {
		server = DefaultOpenDNSServer
	}
	return &OpenDNSDiscoverer{
		server: server,
		name:   DefaultOpenDNSName,
		client: &dns.Client{Net: "udp", Timeout: timeout},
		logger: logger,
	}
}

// Discover performs one lookup.
func (d *OpenDNSDiscoverer) Discover(ctx context.Context) (probe.Address, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(d.name), dns.TypeA)

	in, rtt, err := d.client.ExchangeContext(ctx, msg, d.server)
	if err != nil {
		return probe.Address{}, fmt.Errorf("failed to query %s: %w", d.server, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return probe.Address{}, fmt.Errorf("%s answered %s", d.server, dns.RcodeToString[in.Rcode])
	}

	for _, rr := range in.Answer {
		if a, ok := rr.(*dns.A); ok {
			d.logger.Debug("discovered internet address", "source", "opendns", "address", a.A.String(), "rtt", rtt.String())
			return probe.AddressFromIP(a.A)
		}
	}
	return probe.Address{}, fmt.Errorf("%w: %s from %s", ErrNoAddress, d.name, d.server)
}
