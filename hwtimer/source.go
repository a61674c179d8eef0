// Package hwtimer provides the periodic tick source the scheduler's
// interrupt handler is driven by — conceptually, the CMOS chip's 1024 Hz
// periodic interrupt.
package hwtimer

import "time"

// Source delivers a value on C() for each tick, at the rate it was
// constructed with, until Stop is called. A tick that comes due while
// the previous value is still unread is dropped, not queued.
type Source interface {
	C() <-chan time.Time
	Stop()
}

// NewSource returns the platform's tick source: a timerfd-backed source
// on linux, a time.Ticker-backed one elsewhere. rate is the interval
// between ticks (spec.md's 1024 Hz periodic interrupt is
// time.Second/1024).
func NewSource(rate time.Duration) Source {
	return newSource(rate)
}
