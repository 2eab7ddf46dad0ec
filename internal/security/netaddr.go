package security

import (
	"net"
	"net/http"
	"strings"
)

// ClientAddress resolves the request's source address. The first entry of
// X-Forwarded-For wins when present, falling back to the transport peer.
// Trusting the header without a proxy allowlist is a known weakness of this
// scheme; it is kept as-is so votes behind the usual reverse proxy still map
// to the real client network.
func ClientAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// NormalizeSubnet truncates an address to its coarse subnet: the first four
// colon groups for IPv6-shaped input (a /64 equivalent), the first three
// octets plus a zero octet for IPv4-shaped input (a /24 equivalent). A
// host:port pair loses its port first. Anything else passes through unchanged
// so the hash still buckets repeat callers.
func NormalizeSubnet(address string) string {
	if host, _, err := net.SplitHostPort(address); err == nil {
		address = host
	}
	if strings.Contains(address, ":") {
		groups := strings.Split(address, ":")
		if len(groups) > 4 {
			groups = groups[:4]
		}
		return strings.Join(groups, ":")
	}
	octets := strings.Split(address, ".")
	if len(octets) < 4 {
		return address
	}
	return strings.Join(octets[:3], ".") + ".0"
}
