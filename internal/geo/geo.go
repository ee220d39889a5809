// Package geo resolves client IPs to coarse locations. Resolution is best
// effort: every failure collapses to the Unknown sentinel.
package geo

import (
	"context"
	"net/netip"
)

// Location is the coarse position of a client.
type Location struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	City        string `json:"city"`
	Region      string `json:"region"`
}

// Unknown is returned for private addresses and failed lookups.
var Unknown = Location{
	Country:     "Unknown",
	CountryCode: "XX",
	City:        "Unknown",
	Region:      "Unknown",
}

// IsUnknown reports whether l carries no usable country.
func (l Location) IsUnknown() bool {
	return l.Country == "" || l.Country == Unknown.Country
}

// fill replaces empty fields with the sentinel values.
func (l Location) fill() Location {
	if l.Country == "" {
		l.Country = Unknown.Country
	}
	if l.CountryCode == "" {
		l.CountryCode = Unknown.CountryCode
	}
	if l.City == "" {
		l.City = Unknown.City
	}
	if l.Region == "" {
		l.Region = Unknown.Region
	}
	return l
}

// Resolver is what ingestion code depends on.
type Resolver interface {
	Resolve(ctx context.Context, ip string) Location
}

// Provider is a single lookup strategy.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, ip netip.Addr) (Location, error)
}

// IsPrivate reports whether ip must not be sent to an external service:
// loopback, RFC 1918, link-local, unique-local, unspecified and their
// IPv4-mapped IPv6 forms. Unparsable input is treated as private.
func IsPrivate(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return true
	}
	addr = addr.Unmap()

	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified() ||
		addr.IsMulticast()
}
