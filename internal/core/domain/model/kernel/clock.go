package kernel

import "time"

// Clock supplies the current time to the domain. Aggregates never call time.Now directly,
// so lifecycle timestamps and countdowns are deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time truncated to microseconds, the resolution
// every supported store keeps.
func (SystemClock) Now() time.Time {
	return Truncate(time.Now())
}

// ClockFunc adapts a function to the Clock interface.
//
// Example:
//
//	fixed := time.Date(2024, 6, 18, 9, 0, 0, 0, time.UTC)
//	clock := kernel.ClockFunc(func() time.Time { return fixed })
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// Truncate normalises t to UTC with microsecond precision.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
