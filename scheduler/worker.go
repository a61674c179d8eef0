package scheduler

import "log"

// worker is the scheduler's bottom half: a single long-lived goroutine
// that drains the ready queue, invokes callbacks one at a time, and
// performs every bit of memory management the handler is forbidden from
// doing — freeing entries and returning their IDs (spec.md §4.5).
type worker struct {
	queues *queues
	ids    *idAllocator
	logger *log.Logger
}

func newWorker(q *queues, ids *idAllocator, logger *log.Logger) *worker {
	return &worker{queues: q, ids: ids, logger: logger}
}

// run drains the ready queue until the scheduler closes. Callbacks run
// serially on this goroutine, in the order the handler published them.
//
// mode is read through e.Mode() rather than the raw field: a ModeRepeat
// entry stays on the handler's pending list after this copy is
// published, so the handler may still be touching it (e.g. a concurrent
// Cancel calling e.setMode) while this goroutine reads it. mode is
// re-read after invoke rather than cached beforehand, so a Cancel that
// lands while the callback is running is still honored: the entry still
// releases its id exactly once, just after the in-flight callback
// returns instead of being silently skipped. clearInFlight runs last,
// once this iteration has no more reads left to do, so it's safe for the
// handler to publish this same entry again afterward.
func (w *worker) run() {
	for {
		e, ok := w.queues.getReady()
		if !ok {
			return
		}
		if e.Mode() != ModeDisabled {
			w.invoke(e)
		}
		if e.Mode() != ModeRepeat {
			w.ids.release(e.id)
		}
		e.clearInFlight()
	}
}

// invoke calls e's callback, recovering a panic so one misbehaving
// callback doesn't take down every other pending entry.
func (w *worker) invoke(e *entry) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("rtcsched: callback for id %d panicked: %v", e.id, r)
		}
	}()
	e.fn(e.arg)
}
