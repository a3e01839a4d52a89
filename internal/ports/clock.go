package ports

import (
	"time"
)

// Clock supplies the creation timestamp for new readings
// This is a PORT - adapters (system, mock) implement it
type Clock interface {
	// Now returns the current instant
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time {
	return time.Now()
}
