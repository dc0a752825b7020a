package clock

import "time"

// Clock supplies the current time to the application. An interface so tests
// can substitute a controllable implementation.
type Clock interface {
	Now() time.Time
}
