package tracking

import (
	"net/url"
	"strings"
)

// DirectReferrer marks a visit that arrived without a referrer.
const DirectReferrer = "direct"

// maxReferrerLen bounds what is stored for a referrer.
const maxReferrerLen = 500

// Referrer is a parsed referring URL.
type Referrer struct {
	URL    string
	Domain *string
}

// ParseReferrer picks the referrer for a visit: the client-reported value,
// then the Referer header, then DirectReferrer. Domain is the hostname
// without a leading "www.", or nil when the value is not an absolute URL.
func ParseReferrer(client, header string) Referrer {
	ref := strings.TrimSpace(client)
	if ref == "" {
		ref = strings.TrimSpace(header)
	}
	if ref == "" || ref == DirectReferrer {
		return Referrer{URL: DirectReferrer}
	}
	ref = truncate(ref, maxReferrerLen)

	return Referrer{URL: ref, Domain: ReferrerDomain(ref)}
}

// ReferrerDomain extracts the host of an absolute URL, stripping "www.".
func ReferrerDomain(ref string) *string {
	parsed, err := url.Parse(ref)
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return nil
	}

	domain := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	return &domain
}
