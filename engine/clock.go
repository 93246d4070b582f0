package engine

import "time"

// Clock abstracts wall-clock time so the windowing in Recompute and the
// day-gap accounting in Transition are deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
