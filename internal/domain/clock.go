package domain

import "time"

// Clock abstracts wall-clock reads so that services depending on "now"
// (registration cutoffs, invite expiry, promotion ordering) can be tested
// with fixed timestamps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns a Clock backed by time.Now.
func NewRealClock() Clock { return realClock{} }
