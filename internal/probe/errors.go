package probe

import "errors"

var (
	ErrEmptyEndpoint      = errors.New("outcome endpoint cannot be empty")
	ErrNotIPv4            = errors.New("address is not IPv4")
	ErrNegativeThroughput = errors.New("throughput must not be negative")
	ErrNoThroughputSignal = errors.New("no throughput signal: maximum download or upload is zero")
)
