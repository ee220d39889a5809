// Package tracking derives the privacy-preserving visitor attributes
// recorded with each visit and event.
package tracking

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SessionIDLength is the number of hex characters in a session id.
const SessionIDLength = 16

// UnknownIP replaces an empty client address in the session digest.
const UnknownIP = "unknown"

// SessionID derives a pseudo-identifier for a visitor that is stable for one
// UTC calendar day. Uses SHA256(IP + UserAgent + YYYY-MM-DD) truncated to
// 16 hex chars, so the IP cannot be recovered from stored records.
func SessionID(ip, userAgent string, at time.Time) string {
	if ip == "" {
		ip = UnknownIP
	}

	data := ip + userAgent + Day(at)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:SessionIDLength]
}

// Day formats the UTC calendar day of t.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// StartOfDay returns midnight UTC of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
