// Package geo resolves a caller's ISO country code for regional pricing.
package geo

import (
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// CountryHeader is set by the edge proxy with the caller's ISO country code.
const CountryHeader = "X-User-Country"

type CountryResolver struct {
	db *geoip2.Reader
}

// NewCountryResolver opens the GeoLite2/GeoIP2 country database at dbPath. An empty path gives
// a resolver that only trusts the header.
func NewCountryResolver(dbPath string) (*CountryResolver, error) {
	if dbPath == "" {
		return &CountryResolver{}, nil
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &CountryResolver{db: db}, nil
}

// Resolve prefers the header value and falls back to a database lookup of ip.
func (r *CountryResolver) Resolve(header, ip string) string {
	if code := strings.ToUpper(strings.TrimSpace(header)); len(code) == 2 {
		return code
	}
	if r == nil || r.db == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := r.db.Country(parsed)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

func (r *CountryResolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
