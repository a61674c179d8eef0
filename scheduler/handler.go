package scheduler

import (
	"log"

	"rtcsched/clock"
	"rtcsched/cmos"
)

// handler is the scheduler's top half: driven once per hardware tick,
// it never allocates and never waits on a queue (spec.md §4.4, §5, §9).
// It does take two short-held mutexes that other goroutines also take:
// the chip's lock on every register access (shared with GetTime), and
// an entry's mu when it changes mode or in-flight state (shared with
// the worker). It owns the pending-timer list exclusively; nothing else
// touches it.
type handler struct {
	chip   *cmos.Chip
	queues *queues
	list   entryList

	// alarmCount is the number of pending ModeAlarm entries. The handler
	// only pays for a wall-clock read when it's nonzero, since Once and
	// Repeat entries never need one.
	alarmCount int

	logger *log.Logger
	debug  bool
}

func newHandler(chip *cmos.Chip, q *queues, logger *log.Logger, debug bool) *handler {
	return &handler{chip: chip, queues: q, logger: logger, debug: debug}
}

// tick runs one full pass of the top half. It panics if register C's
// periodic-interrupt flag is clear: the RTC IRQ line belongs to this
// chip alone, so anything else arriving on it means the interrupt
// routing is broken (spec.md §4.4 step 1, §7).
//
// Nothing here allocates: draining the new and cancel queues and walking
// the pending list are all done with entries already in hand, never a
// freshly made slice or map (spec.md §4.4, §9).
func (h *handler) tick() {
	regC := h.chip.ReadRegister(cmos.RegC)
	if regC&cmos.RegCPeriodicFlag == 0 {
		panic("rtcsched: tick() invoked without a periodic interrupt pending")
	}

	// 1. Age every pending non-alarm entry. This runs before new entries
	// are spliced in, so a freshly registered Timed/Repeat always
	// observes at least one full tick before it can expire.
	h.list.ageAll()

	// 2. Drain newly registered entries, splicing each at the head as
	// it's pulled off the channel.
drainNew:
	for {
		select {
		case e := <-h.queues.newQ:
			h.list.splice(e)
			if e.mode == ModeAlarm {
				h.alarmCount++
			}
		default:
			break drainNew
		}
	}

	// 3. Drain cancellations: unlink, mark Disabled, hand to the worker
	// so it still owns freeing the ID. If an expiry copy of this same
	// entry is already queued for the worker, skip republishing it —
	// tryMarkInFlight enforces at most one live copy of an entry in
	// readyQueue, so the worker still sees mode == ModeDisabled on
	// whichever copy it dequeues and releases the id exactly once.
drainCancel:
	for {
		select {
		case id := <-h.queues.cancelQ:
			e := h.list.removeByID(id)
			if e == nil {
				continue
			}
			if e.mode == ModeAlarm {
				h.alarmCount--
			}
			e.setMode(ModeDisabled)
			if e.tryMarkInFlight() {
				if !h.queues.tryPutReady(e) {
					e.clearInFlight()
					if h.debug {
						h.logger.Printf("rtcsched: ready queue full, dropped cancellation of id %d", id)
					}
				}
			}
		default:
			break drainCancel
		}
	}

	// 4. Nothing pending: skip the wall-clock read and the second walk.
	if h.list.empty() {
		return
	}

	// 5/6. Sample the wall clock once, only if an alarm is pending.
	var now clock.WallTime
	if h.alarmCount > 0 {
		now = clock.Read(h.chip)
	}

	// 7. Walk the list once more, expiring anything due. prev only
	// advances when cur stays linked, so unlinking cur never strands
	// the cursor on a node that's left the list.
	prev := &h.list.sentinel
	for prev.next != nil {
		cur := prev.next
		unlinked := false

		switch cur.mode {
		case ModeOnce, ModeRepeat:
			if cur.ticksLeft == 0 {
				if cur.tryMarkInFlight() {
					if cur.mode == ModeOnce {
						prev.next = cur.next
						cur.next = nil
						unlinked = true
					} else {
						cur.ticksLeft = cur.ticksInit
					}
					if !h.queues.tryPutReady(cur) {
						cur.clearInFlight()
						if h.debug {
							h.logger.Printf("rtcsched: ready queue full, dropped expiry of id %d", cur.id)
						}
					}
				}
				// else: a previous expiry of this Repeat entry is still
				// in flight to the worker. Skip this cycle rather than
				// queue a second live copy of it; ticksLeft stays at 0
				// so the next tick retries as soon as the worker frees
				// it up (tryMarkInFlight above).
			}
		case ModeAlarm:
			if now.Equal(cur.execTime) {
				prev.next = cur.next
				cur.next = nil
				h.alarmCount--
				unlinked = true
				// An alarm is unlinked the instant it fires and never
				// revisited, so it can't race a later Cancel the way a
				// Repeat entry can; tryMarkInFlight is harmless here but
				// used anyway for a uniform publish path.
				if cur.tryMarkInFlight() {
					if !h.queues.tryPutReady(cur) {
						cur.clearInFlight()
						if h.debug {
							h.logger.Printf("rtcsched: ready queue full, dropped alarm of id %d", cur.id)
						}
					}
				}
			}
		}

		if !unlinked {
			prev = cur
		}
	}
}
