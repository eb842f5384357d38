package probe

import (
	"fmt"
	"net"
	"net/netip"
)

// Address is a resolved IPv4 address. The zero value means "not resolved".
type Address struct {
	addr netip.Addr
}

// NewAddress coerces a netip.Addr to IPv4. IPv4-mapped IPv6 addresses are
// unmapped; anything else that is not IPv4 returns ErrNotIPv4.
func NewAddress(a netip.Addr) (Address, error) {
	a = a.Unmap()
	if !a.Is4() {
		return Address{}, fmt.Errorf("%w: %s", ErrNotIPv4, a)
	}
	return Address{addr: a}, nil
}

// AddressFromIP coerces a net.IP to IPv4.
func AddressFromIP(ip net.IP) (Address, error) {
	a, ok := netip.AddrFromSlice(ip)
	if !ok {
		return Address{}, fmt.Errorf("%w: %v", ErrNotIPv4, ip)
	}
	return NewAddress(a)
}

// ParseAddress parses a dotted-decimal IPv4 address.
func ParseAddress(s string) (Address, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return Address{}, err
	}
	return NewAddress(a)
}

// MustParseAddress is like ParseAddress but panics on error. Intended for tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromOctets builds an Address from its four octets.
func AddressFromOctets(a, b, c, d byte) Address {
	return Address{addr: netip.AddrFrom4([4]byte{a, b, c, d})}
}

func (a Address) IsValid() bool     { return a.addr.IsValid() }
func (a Address) Netip() netip.Addr { return a.addr }

// Octets returns the four address octets, all zero when unresolved.
func (a Address) Octets() [4]byte {
	if !a.addr.IsValid() {
		return [4]byte{}
	}
	return a.addr.As4()
}

// String returns the dotted-decimal form, or "" for an unresolved address.
func (a Address) String() string {
	if !a.addr.IsValid() {
		return ""
	}
	return a.addr.String()
}

// DefaultOctetTolerance is the largest accepted difference between the
// fourth octets of the egress and server addresses. Providers hand out
// egress addresses from a small pool next to the advertised server address.
const DefaultOctetTolerance = 5

// Matches reports whether the internet-facing address confirms that traffic
// leaves through server: the first three octets must be equal and the fourth
// octets may differ by at most tolerance. Unresolved addresses never match.
func Matches(internet, server Address, tolerance int) bool {
	if !internet.IsValid() || !server.IsValid() {
		return false
	}
	in, srv := internet.Octets(), server.Octets()
	if in[0] != srv[0] || in[1] != srv[1] || in[2] != srv[2] {
		return false
	}
	diff := int(in[3]) - int(srv[3])
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
