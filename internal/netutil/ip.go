package netutil

import "net/netip"

// IsValidIPv4 checks if a string is a syntactically valid IPv4 address
func IsValidIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Is4()
}

// IsValidIPv6 checks if a string is a syntactically valid IPv6 address
func IsValidIPv6(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Is6() && !addr.Is4In6()
}

// IsGlobalUnicastIPv6 checks if a string is a publicly routable IPv6
// address. Loopback, link-local, multicast, unique-local and otherwise
// reserved ranges are rejected.
func IsGlobalUnicastIPv6(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	if !addr.Is6() || addr.Is4In6() {
		return false
	}
	switch {
	case addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsPrivate(): // fc00::/7 unique-local
		return false
	}
	return addr.IsGlobalUnicast()
}

// MatchesVersion checks if a string parses as an address of the given family
func MatchesVersion(s string, wantV6 bool) bool {
	if wantV6 {
		return IsValidIPv6(s)
	}
	return IsValidIPv4(s)
}
