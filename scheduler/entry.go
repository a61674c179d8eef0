// Package scheduler implements the RTC-driven deferred function
// scheduler: a split-phase design where a non-blocking, non-allocating
// interrupt handler (the top half) ages and expires a pending-timer list
// fed by lock-free queues, and a single worker goroutine (the bottom
// half) performs the actual callbacks and all memory management.
package scheduler

import (
	"sync"

	"rtcsched/clock"
)

// Mode is a timer entry's scheduling discipline.
type Mode int

// The four modes a timer entry can be in, matching the source's
// RTC_ONCE/RTC_REPEAT/RTC_ALARM/RTC_DISABLED.
const (
	ModeOnce Mode = iota + 1
	ModeRepeat
	ModeAlarm
	ModeDisabled
)

func (m Mode) String() string {
	switch m {
	case ModeOnce:
		return "once"
	case ModeRepeat:
		return "repeat"
	case ModeAlarm:
		return "alarm"
	case ModeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// entry is one registered callback. Before it is first published to the
// ready queue, it is owned by exactly one of two domains at a time — the
// API goroutine constructing it, then the handler while pending — with
// no concurrent access, so field reads/writes need no synchronization.
//
// A ModeRepeat entry breaks that rule: it stays linked on the handler's
// pending list even after being handed to the worker, so for a window
// after publish the same *entry is reachable from both the handler
// (still aging/traversing it) and the worker (about to invoke it or
// already running its callback). mu guards exactly the two fields that
// window makes genuinely shared: mode and inFlight. Every other field is
// handler-exclusive before publish and worker-exclusive after, the same
// as any other entry, so they need no lock.
type entry struct {
	fn  func(arg any)
	arg any

	mu       sync.Mutex
	mode     Mode
	inFlight bool // true while a copy of this entry sits in readyQueue

	// ticksLeft/ticksInit are in units of 1/1024 s and are only
	// meaningful when mode != ModeAlarm. ticksInit reloads ticksLeft for
	// ModeRepeat entries on expiry. Touched only by the handler.
	ticksLeft uint32
	ticksInit uint32

	// execTime is only meaningful when mode == ModeAlarm.
	execTime clock.WallTime

	id   int
	next *entry // handler-exclusive; the worker never walks the list
}

// Mode returns the entry's current mode. Used by the worker, which reads
// across the same boundary the handler's setMode writes across.
func (e *entry) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// setMode updates mode. Only the handler calls this, and only after an
// entry has already been shared with the worker (the cancellation path);
// the initial mode at construction is set directly via struct literal,
// before the entry is visible to anything but its creator.
func (e *entry) setMode(m Mode) {
	e.mu.Lock()
	e.mode = m
	e.mu.Unlock()
}

// tryMarkInFlight reports whether e was NOT already in flight, and if
// so, marks it in flight. The handler must call this — and only publish
// to readyQueue if it returns true — before handing (or re-handing) a
// ModeRepeat entry to the worker, so at most one live copy of e is ever
// queued at a time. Without this, a Repeat entry's expiry publish can
// race a later Cancel's cleanup publish: both copies would reach the
// worker, and both would see a free-able mode and release the same id
// twice.
func (e *entry) tryMarkInFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return false
	}
	e.inFlight = true
	return true
}

// clearInFlight releases e's in-flight claim. Called by the worker once
// it has finished with e (so the handler may publish it again on a
// future expiry), and by the handler itself if a tryPutReady it just
// claimed in-flight status for turned out to fail.
func (e *entry) clearInFlight() {
	e.mu.Lock()
	e.inFlight = false
	e.mu.Unlock()
}
