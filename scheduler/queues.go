package scheduler

// queues holds the three bounded channels timer entries and cancel
// requests move through. new_queue and cancel_queue accept a blocking
// put from API callers; ready_queue accepts only a non-blocking put from
// the handler and a blocking get from the worker (spec.md §4.7 step 2,
// §7).
type queues struct {
	newQ    chan *entry
	cancelQ chan int
	readyQ  chan *entry
	done    <-chan struct{}
}

func newQueues(capacity int, done <-chan struct{}) *queues {
	return &queues{
		newQ:    make(chan *entry, capacity),
		cancelQ: make(chan int, capacity),
		readyQ:  make(chan *entry, capacity),
		done:    done,
	}
}

// putNew blocks until e is enqueued or the scheduler closes, whichever
// happens first. Returns false only in the latter case.
func (q *queues) putNew(e *entry) bool {
	select {
	case q.newQ <- e:
		return true
	case <-q.done:
		return false
	}
}

// putCancel blocks until id is enqueued or the scheduler closes.
func (q *queues) putCancel(id int) bool {
	select {
	case q.cancelQ <- id:
		return true
	case <-q.done:
		return false
	}
}

// tryPutReady publishes e to the ready queue without blocking. If the
// queue is full the expiration event is dropped — a backpressure
// behavior the real chip shares: it doesn't queue missed interrupts
// either, and a ready_queue sized generously relative to the worker's
// per-entry cost keeps this from being reached in practice.
func (q *queues) tryPutReady(e *entry) bool {
	select {
	case q.readyQ <- e:
		return true
	default:
		return false
	}
}

// getReady blocks until an entry is ready or the scheduler closes.
func (q *queues) getReady() (*entry, bool) {
	select {
	case e := <-q.readyQ:
		return e, true
	case <-q.done:
		return nil, false
	}
}
