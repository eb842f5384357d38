package endpoint

import (
	"fmt"
	"strings"
)

// Placeholders understood by Expand.
const (
	PlaceholderEndpoint = "{endpoint}"
	PlaceholderLabel    = "{label}"
	PlaceholderNumber   = "{number}"
)

// Label returns the first DNS label of host ("sg467" for "sg467.nordvpn.com").
func Label(host string) string {
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return host[:i]
	}
	return host
}

// Number returns the server number embedded in the first label of host,
// without leading zeros ("467" for "sg467.nordvpn.com"). VPN clients select
// servers by country and number rather than hostname.
func Number(host string) (string, error) {
	label := Label(host)
	start := strings.IndexAny(label, "0123456789")
	if start < 0 {
		return "", fmt.Errorf("%w: %s", ErrNoServerIndex, host)
	}
	end := start
	for end < len(label) && label[end] >= '0' && label[end] <= '9' {
		end++
	}
	digits := strings.TrimLeft(label[start:end], "0")
	if digits == "" {
		digits = "0"
	}
	return digits, nil
}

// Expand substitutes the endpoint placeholders in every argument of args.
// {number} is only resolved when an argument uses it, so hostnames without
// digits work with templates that do not need one.
func Expand(args []string, host string) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		if strings.Contains(arg, PlaceholderNumber) {
			n, err := Number(host)
			if err != nil {
				return nil, err
			}
			arg = strings.ReplaceAll(arg, PlaceholderNumber, n)
		}
		arg = strings.ReplaceAll(arg, PlaceholderEndpoint, host)
		arg = strings.ReplaceAll(arg, PlaceholderLabel, Label(host))
		out[i] = arg
	}
	return out, nil
}
