// Package privacy provides utilities for handling personally identifiable information (PII)
// before it reaches logs, audit events, or other long-lived sinks.
package privacy

import (
	"fmt"
	"net"
)

// AnonymizeIP truncates an IP address to remove the host-identifying portion.
//
// IPv4 addresses keep the /24 prefix ("192.168.1.47" -> "192.168.1.0").
// IPv6 addresses keep the /48 prefix ("2001:db8:85a3::8a2e:370:7334" -> "2001:0db8:85a3::").
//
// Returns "invalid" for unparseable IP addresses, and "unknown" for empty strings.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}
