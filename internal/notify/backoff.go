package notify

import (
	"math/rand"
	"time"
)

// Delays between delivery attempts of one message.
var retryDelays = [...]time.Duration{
	2 * time.Second,
	10 * time.Second,
	30 * time.Second,
}

const (
	// DefaultMaxAttempts is the number of sends tried before dead-lettering.
	DefaultMaxAttempts = len(retryDelays) + 1

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2
)

// NextRetryDelay returns the wait after the given failed attempt
// (0-indexed) with ±20% jitter. Attempts past the table reuse its last entry.
func NextRetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(retryDelays) {
		attempt = len(retryDelays) - 1
	}

	base := retryDelays[attempt]
	jitterRange := float64(base) * JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}

// IsExhausted returns true if max attempts have been reached.
func IsExhausted(attempts, maxAttempts int) bool {
	return attempts >= maxAttempts
}
