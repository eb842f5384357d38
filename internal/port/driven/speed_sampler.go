package driven

import (
	"context"

	"github.com/alorle/vpn-ranker/internal/probe"
)

// SpeedSampler runs one speed measurement over the current network path.
// This is a driven port implemented by concrete adapters (e.g., a speedtest CLI).
type SpeedSampler interface {
	Sample(ctx context.Context) (probe.Sample, error)
}
