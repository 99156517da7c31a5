// Package clock abstracts wall-clock time so shift and order flows can be
// exercised against a fixed or advancing clock in tests.
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

var Module = fx.Provide(func() Clock { return SystemClock{} })
