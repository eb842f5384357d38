package driven

import (
	port "github.com/alorle/vpn-ranker/internal/port/driven"
)

// Compile-time check that HostResolver implements AddressResolver interface
var _ port.AddressResolver = (*HostResolver)(nil)

// Compile-time check that CommandSwitcher implements EndpointSwitcher interface
var _ port.EndpointSwitcher = (*CommandSwitcher)(nil)

// Compile-time check that SpeedtestSampler implements SpeedSampler interface
var _ port.SpeedSampler = (*SpeedtestSampler)(nil)

// Compile-time check that the sinks implement ResultSink interface
var (
	_ port.ResultSink = (*TSVSink)(nil)
	_ port.ResultSink = (*ConsoleSink)(nil)
	_ port.ResultSink = (*MetricsSink)(nil)
	_ port.ResultSink = (*MultiSink)(nil)
)

// Compile-time check that RunBoltDBRepository implements RunRepository interface
var _ port.RunRepository = (*RunBoltDBRepository)(nil)

// Compile-time check that the discoverers can back HostResolver
var (
	_ InternetAddressDiscoverer = (*OpenDNSDiscoverer)(nil)
	_ InternetAddressDiscoverer = (*STUNDiscoverer)(nil)
	_ InternetAddressDiscoverer = (*FallbackDiscoverer)(nil)
	_ InternetAddressDiscoverer = (*BreakerDiscoverer)(nil)
)

// Compile-time check that ExecRunner implements CommandRunner interface
var _ CommandRunner = (*ExecRunner)(nil)
