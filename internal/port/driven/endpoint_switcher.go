package driven

import "context"

// EndpointSwitcher moves the machine's network egress onto a VPN endpoint.
// This is a driven port implemented by concrete adapters (e.g., a VPN client CLI).
type EndpointSwitcher interface {
	// SwitchTo connects to the endpoint and waits for the client to exit.
	// Returned errors are informational: whether the switch took effect is
	// decided by comparing addresses afterwards.
	SwitchTo(ctx context.Context, endpoint string) error
}
