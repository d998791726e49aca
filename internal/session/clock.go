package session

import "time"

// Timer is a stoppable, rearmable delayed callback.
type Timer interface {
	// Stop prevents the callback from firing if it has not fired yet.
	// Reports whether the timer was still pending.
	Stop() bool
	// Reset rearms the timer to fire after d. Reports whether the timer
	// was still pending before the reset.
	Reset(d time.Duration) bool
}

// Clock abstracts time for the session so debounce behavior is testable.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules f to run after d and returns the controlling Timer.
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) Stop() bool                  { return r.t.Stop() }
func (r realTimer) Reset(d time.Duration) bool  { return r.t.Reset(d) }
