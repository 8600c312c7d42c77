// Package geo abstracts the optional IP geolocation provider used when
// recording short-link clicks. Accuracy is explicitly best-effort; with no
// provider configured every lookup yields nulls and the redirect path is
// never blocked.
package geo

import (
	"net"
	"strings"
)

type Location struct {
	Country *string
	City    *string
}

type Provider interface {
	Lookup(ip string) Location
}

// NoopProvider is the default. Private and loopback addresses are tagged
// "Local" so development traffic is distinguishable in the analytics
// dashboard; everything else stays null.
type NoopProvider struct{}

func (NoopProvider) Lookup(ip string) Location {
	if isLocalIP(ip) {
		local := "Local"
		return Location{Country: &local, City: &local}
	}
	return Location{}
}

func isLocalIP(ip string) bool {
	if ip == "127.0.0.1" || ip == "::1" {
		return true
	}
	if strings.HasPrefix(ip, "192.168.") || strings.HasPrefix(ip, "10.") {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate())
}

// Lookup is a nil-safe helper so callers don't have to care whether a
// provider was configured.
func Lookup(p Provider, ip string) Location {
	if p == nil {
		return Location{}
	}
	return p.Lookup(ip)
}
