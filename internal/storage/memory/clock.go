package memory

import "time"

// Clock returns the current time. Tests substitute a manual clock to move
// past deadlines without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
