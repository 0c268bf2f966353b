package webfetch

import "net"

// IsPublic reports whether ip is routable public address space: not
// private, loopback, link-local, multicast, reserved, or unspecified.
func IsPublic(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
		return false
	}
	if isReserved(ip) {
		return false
	}
	return true
}

// isReserved covers IANA special-purpose ranges net.IP's own helpers
// don't classify (0.0.0.0/8 beyond unspecified, 100.64.0.0/10 CGNAT,
// 192.0.0.0/24, 192.0.2.0/24 and siblings TEST-NET docs ranges, and
// the IPv6 documentation/benchmarking ranges).
func isReserved(ip net.IP) bool {
	for _, block := range reservedBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

var reservedBlocks = mustParseCIDRs([]string{
	"0.0.0.0/8",
	"100.64.0.0/10",     // CGNAT
	"192.0.0.0/24",      // IETF protocol assignments
	"192.0.2.0/24",      // TEST-NET-1
	"198.18.0.0/15",     // benchmarking
	"198.51.100.0/24",   // TEST-NET-2
	"203.0.113.0/24",    // TEST-NET-3
	"240.0.0.0/4",       // reserved for future use
	"2001:db8::/32",     // IPv6 documentation
	"2001::/23",         // IETF protocol assignments
	"3fff::/20",         // IPv6 documentation (RFC 9637)
})

func mustParseCIDRs(cidrs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}
