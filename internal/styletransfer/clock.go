package styletransfer

import "time"

// Clock abstracts waiting so polling can be driven in tests.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// RealClock waits on the wall clock.
var RealClock Clock = realClock{}
