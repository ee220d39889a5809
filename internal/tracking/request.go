package tracking

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller's address behind proxies. It checks
// X-Forwarded-For (first hop), then X-Real-IP, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DoNotTrack reports whether the request opted out of tracking.
func DoNotTrack(r *http.Request) bool {
	return r.Header.Get("DNT") == "1" || r.Header.Get("Do-Not-Track") == "1"
}
