package driven

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pion/stun"

	"github.com/alorle/vpn-ranker/internal/probe"
)

// DefaultSTUNServer is queried when no server is configured.
const DefaultSTUNServer = "stun.l.google.com:19302"

// STUNDiscoverer finds the internet-facing address with a STUN binding
// request.
type STUNDiscoverer struct {
	server  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewSTUNDiscoverer creates a discoverer querying server ("host:port").
func NewSTUNDiscoverer(server string, timeout time.Duration, logger *slog.Logger) *STUNDiscoverer {
	if server == "" {
		server = DefaultSTUNServer
	}
	return &STUNDiscoverer{server: server, timeout: timeout, logger: logger}
}

// Discover performs one binding request.
func (d *STUNDiscoverer) Discover(ctx context.Context) (probe.Address, error) {
	addr, err := net.ResolveUDPAddr("udp4", d.server)
	if err != nil {
		return probe.Address{}, fmt.Errorf("failed to resolve stun server: %w", err)
	}

	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return probe.Address{}, fmt.Errorf("failed to dial stun server: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if d.timeout > 0 {
		deadline := time.Now().Add(d.timeout)
		if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
		if err := conn.SetDeadline(deadline); err != nil {
			return probe.Address{}, fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	req, err := stun.Build(stun.TransactionID, stun.BindingRequest)
	if err != nil {
		return probe.Address{}, fmt.Errorf("failed to build binding request: %w", err)
	}
	if _, err := req.WriteTo(conn); err != nil {
		return probe.Address{}, fmt.Errorf("failed to send binding request: %w", err)
	}

	buf := make([]byte, 1500)
	n, err := conn.Read(buf)
	if err != nil {
		if ctx.Err() != nil {
			return probe.Address{}, ctx.Err()
		}
		return probe.Address{}, fmt.Errorf("failed to read binding response: %w", err)
	}

	res := new(stun.Message)
	res.Raw = buf[:n]
	if err := res.Decode(); err != nil {
		return probe.Address{}, fmt.Errorf("failed to decode binding response: %w", err)
	}
	if res.TransactionID != req.TransactionID {
		return probe.Address{}, errors.New("binding response transaction id mismatch")
	}

	var ip net.IP
	var xorAddr stun.XORMappedAddress
	if err := xorAddr.GetFrom(res); err == nil {
		ip = xorAddr.IP
	} else {
		// RFC 3489 servers only send MAPPED-ADDRESS
		var mapped stun.MappedAddress
		if err := mapped.GetFrom(res); err != nil {
			return probe.Address{}, fmt.Errorf("no mapped address in binding response: %w", err)
		}
		ip = mapped.IP
	}

	d.logger.Debug("discovered internet address", "source", "stun", "server", d.server, "address", ip.String())
	return probe.AddressFromIP(ip)
}

// FallbackDiscoverer tries each discoverer in order until one succeeds.
type FallbackDiscoverer struct {
	discoverers []InternetAddressDiscoverer
}

// NewFallbackDiscoverer creates a discoverer chain.
func NewFallbackDiscoverer(discoverers ...InternetAddressDiscoverer) *FallbackDiscoverer {
	return &FallbackDiscoverer{discoverers: discoverers}
}

// Discover returns the first successful discovery, or all errors joined.
func (f *FallbackDiscoverer) Discover(ctx context.Context) (probe.Address, error) {
	if len(f.discoverers) == 0 {
		return probe.Address{}, errors.New("no internet address discoverer configured")
	}
	var result *multierror.Error
	for _, d := range f.discoverers {
		addr, err := d.Discover(ctx)
		if err == nil {
			return addr, nil
		}
		result = multierror.Append(result, err)
	}
	return probe.Address{}, result.ErrorOrNil()
}
