package signature

import "time"

// Clock supplies the current time. Both the signer and the validator read
// time through this interface so tests can simulate clock skew.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
