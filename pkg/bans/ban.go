package bans

import (
	"fmt"
	"net/netip"
	"time"
)

type Ban struct {
	// A single address or a CIDR range
	Network string    `json:"network"`
	Reason  string    `json:"reason"`
	Expires time.Time `json:"expires"`
	// Authenticated players may still join
	NonAuthenticatedOnly bool `json:"nonAuthenticatedOnly"`
}

func (b Ban) String() string {
	return fmt.Sprintf("%s (%s) until %s", b.Network, b.Reason, b.Expires.Format(time.RFC3339))
}

func (b Ban) Expired(now time.Time) bool {
	return !b.Expires.IsZero() && !now.Before(b.Expires)
}

// ParseNetwork accepts either a bare address or a prefix and returns the
// canonical prefix for it.
func ParseNetwork(value string) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(value); err == nil {
		return prefix.Masked(), nil
	}

	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %q", ErrInvalidAddress, value)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
