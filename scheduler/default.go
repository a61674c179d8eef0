package scheduler

import (
	"sync"

	"rtcsched/clock"
)

var (
	defaultSet  bool
	defaultMu   sync.Mutex
	defaultImpl *Scheduler
)

// UseDefault installs sched as the target of the package-level
// convenience functions (Timed, Repeat, Alarm, Cancel, GetTime),
// mirroring the source's single global rtc_fns instance set up once at
// kernel bring-up. Calling it more than once panics.
func UseDefault(sched *Scheduler) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSet {
		panic("rtcsched: UseDefault called more than once")
	}
	defaultImpl = sched
	defaultSet = true
}

func defaultOrPanic() *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if !defaultSet {
		panic("rtcsched: no default scheduler installed; call UseDefault first")
	}
	return defaultImpl
}

// Timed calls Scheduler.Timed on the default scheduler.
func Timed(fn func(arg any), arg any, seconds uint32) (int, error) {
	return defaultOrPanic().Timed(fn, arg, seconds)
}

// Repeat calls Scheduler.Repeat on the default scheduler.
func Repeat(fn func(arg any), arg any, seconds uint32) (int, error) {
	return defaultOrPanic().Repeat(fn, arg, seconds)
}

// Alarm calls Scheduler.Alarm on the default scheduler.
func Alarm(fn func(arg any), arg any, at clock.WallTime) (int, error) {
	return defaultOrPanic().Alarm(fn, arg, at)
}

// Cancel calls Scheduler.Cancel on the default scheduler.
func Cancel(id int) error {
	return defaultOrPanic().Cancel(id)
}

// GetTime calls Scheduler.GetTime on the default scheduler.
func GetTime() clock.WallTime {
	return defaultOrPanic().GetTime()
}
