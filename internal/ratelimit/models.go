// Package ratelimit throttles verification submissions per client IP with a
// sliding window.
package ratelimit

import "time"

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when denied
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

func retryAfter(resetAt, now time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
