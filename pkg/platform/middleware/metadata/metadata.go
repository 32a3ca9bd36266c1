package metadata

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"docverify/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and services.
// Forwarding headers are honoured only when the socket peer is one of the
// trusted proxies. This middleware should be applied early in the chain.
func ClientMetadata(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r, trusted), r.Header.Get("User-Agent"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseTrustedProxies parses a comma-separated list of IPs and CIDRs.
// A bare IP is treated as a single-host prefix.
func ParseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", item, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", item, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// ClientIPFromRequest returns the client IP for rate limiting and audit.
// Without a trusted peer it is the RemoteAddr host. Behind a trusted proxy the
// X-Forwarded-For chain is walked right to left and the first hop that is not
// itself a trusted proxy wins; X-Real-IP is the fallback.
func ClientIPFromRequest(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r.RemoteAddr)
	if peer == "" {
		return "unknown"
	}
	if !isTrusted(peer, trusted) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !isTrusted(hop, trusted) || i == 0 {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

// remoteHost strips the port from "ip:port" or "[::1]:port".
func remoteHost(addr string) string {
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
