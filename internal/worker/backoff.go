package worker

import "time"

// Backoff maps a delivery attempt index to the wait before the next try.
// Attempts beyond the table saturate at the last interval.
type Backoff struct {
	intervals []time.Duration
}

// Attempt-indexed retry intervals. Index 0 is the wait before the first
// attempt, so a fresh delivery goes out immediately.
var (
	productionIntervals = []time.Duration{
		0,
		time.Minute,
		5 * time.Minute,
		30 * time.Minute,
		2 * time.Hour,
	}
	testIntervals = []time.Duration{
		0,
		5 * time.Second,
		10 * time.Second,
		15 * time.Second,
		20 * time.Second,
	}
)

// NewBackoff returns the backoff table for the given profile. Any profile
// other than "test" selects the production table.
func NewBackoff(profile string) *Backoff {
	if profile == "test" {
		return &Backoff{intervals: testIntervals}
	}
	return &Backoff{intervals: productionIntervals}
}

// Delay returns the wait before the given attempt (zero-based).
func (b *Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(b.intervals) {
		return b.intervals[len(b.intervals)-1]
	}
	return b.intervals[attempt]
}
