// Package clock abstracts the wall clock so termination dates can be tested.
package clock

import (
	"time"

	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)

// Or returns c, or the system clock when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return SystemClock{}
	}
	return c
}
