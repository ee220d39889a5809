package geo

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// MaxMindProvider reads a local GeoLite2/GeoIP2 City database.
type MaxMindProvider struct {
	reader *geoip2.Reader
}

// OpenMaxMind opens the database at path.
func OpenMaxMind(path string) (*MaxMindProvider, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &MaxMindProvider{reader: reader}, nil
}

// Name returns the provider name used in logs and metrics.
func (p *MaxMindProvider) Name() string {
	return "maxmind"
}

// Lookup reads the city record for ip.
func (p *MaxMindProvider) Lookup(_ context.Context, ip netip.Addr) (Location, error) {
	record, err := p.reader.City(net.IP(ip.AsSlice()))
	if err != nil {
		return Location{}, fmt.Errorf("city lookup: %w", err)
	}
	if record.Country.IsoCode == "" {
		return Location{}, ErrLookupFailed
	}

	loc := Location{
		Country:     record.Country.Names["en"],
		CountryCode: record.Country.IsoCode,
		City:        record.City.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	return loc.fill(), nil
}

// Close releases the database.
func (p *MaxMindProvider) Close() error {
	return p.reader.Close()
}
