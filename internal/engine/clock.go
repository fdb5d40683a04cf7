package engine

import "time"

// Clock supplies wall time for fetched_at, expiry, and checked_at stamps.
//
// Production code uses SystemClock. Tests inject a fixed clock so expiry
// arithmetic and persisted results are deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock, in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
