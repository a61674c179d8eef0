package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"rtcsched/clock"
	"rtcsched/cmos"
	"rtcsched/hwtimer"
)

const (
	// IntsPerSecond is the periodic interrupt rate the scheduler programs
	// the CMOS chip for (spec.md §4.7 step 4, §6): 1024 Hz.
	IntsPerSecond = cmos.IntsPerSecond

	// MaxSeconds is the largest delay Timed and Repeat accept:
	// (2^32-1)/1024, matching the source's RTC_MAX_SECS. Requesting more
	// would overflow the uint32 tick count.
	MaxSeconds = (1<<32 - 1) / IntsPerSecond

	// DefaultQueueCapacity matches the source's RTC_QUEUE_SIZE.
	DefaultQueueCapacity = 30
)

// Config controls scheduler construction. The zero value is filled in
// with the package's own defaults by NewScheduler, the same
// if field == 0 { field = default } pattern the teacher's device
// constructors use.
type Config struct {
	// QueueCapacity bounds the new, cancel, and ready queues. Zero
	// defaults to DefaultQueueCapacity.
	QueueCapacity int

	// TickRate is the interval between periodic interrupts. Zero
	// defaults to time.Second/IntsPerSecond.
	TickRate time.Duration

	// MaxLiveEntries caps the number of entries that may be pending or
	// in flight at once. Zero means unbounded. This is the idiomatic
	// stand-in for the source's Malloc-failure admission control — see
	// SPEC_FULL.md §15 Q3.
	MaxLiveEntries int

	// Debug enables logging of expiries, alarms, and cancellations dropped
	// because the ready queue was full.
	Debug bool

	// Logger receives diagnostics. Defaults to log.Default().
	Logger *log.Logger
}

func (c Config) withDefaults() Config {
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.TickRate == 0 {
		c.TickRate = time.Second / IntsPerSecond
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// Scheduler is the RTC-driven deferred function scheduler. Register
// callbacks with Timed, Repeat, or Alarm; cancel them with Cancel; read
// the wall clock with GetTime.
type Scheduler struct {
	cfg     Config
	chip    *cmos.Chip
	ids     *idAllocator
	queues  *queues
	handler *handler
	worker  *worker
	raiser  cmos.InterruptRaiser

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewScheduler performs the source's initialization sequence (spec.md
// §4.7): build the sentinel list, ID allocator, and queues; program the
// CMOS chip for 1024 Hz periodic interrupts; and spawn the worker
// goroutine. It does not start consuming hardware ticks until Start is
// called.
func NewScheduler(cfg Config) *Scheduler {
	cfg = cfg.withDefaults()

	chip := cmos.NewChip()
	s := &Scheduler{
		cfg:  cfg,
		chip: chip,
		ids:  newIDAllocator(cfg.MaxLiveEntries),
		done: make(chan struct{}),
	}
	s.queues = newQueues(cfg.QueueCapacity, s.done)
	s.handler = newHandler(chip, s.queues, cfg.Logger, cfg.Debug)
	s.worker = newWorker(s.queues, s.ids, cfg.Logger)
	s.raiser = cmos.InterruptRaiserFunc(func(line uint8) {
		if line == cmos.RTCIRQLine {
			s.handler.tick()
		}
	})

	chip.Configure1024Hz()
	chip.EnablePeriodicInterrupt()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker.run()
	}()

	return s
}

// Start wires the hardware tick source to the interrupt handler and
// blocks until ctx is cancelled or Close is called. Run it on its own
// goroutine; a Scheduler is only useful while Start is running.
func (s *Scheduler) Start(ctx context.Context) {
	src := hwtimer.NewSource(s.cfg.TickRate)
	defer src.Stop()

	for {
		select {
		case <-src.C():
			s.chip.RaiseTick(s.raiser, cmos.RTCIRQLine)
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

// Close stops the worker and unblocks any Start call and any in-flight
// putNew/putCancel. Safe to call more than once or concurrently.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

// Timed registers fn to run once, seconds from now. seconds must be in
// [1, MaxSeconds]. Returns the new entry's id.
func (s *Scheduler) Timed(fn func(arg any), arg any, seconds uint32) (int, error) {
	return s.addDelayed(fn, arg, seconds, ModeOnce)
}

// Repeat registers fn to run every seconds seconds, indefinitely until
// cancelled. seconds must be in [1, MaxSeconds].
func (s *Scheduler) Repeat(fn func(arg any), arg any, seconds uint32) (int, error) {
	return s.addDelayed(fn, arg, seconds, ModeRepeat)
}

func (s *Scheduler) addDelayed(fn func(arg any), arg any, seconds uint32, mode Mode) (int, error) {
	if seconds == 0 {
		return 0, ErrInvalidArgument
	}
	if seconds > MaxSeconds {
		return 0, ErrAdd
	}

	id, ok := s.ids.tryAlloc()
	if !ok {
		return 0, ErrMemory
	}

	ticks := seconds * IntsPerSecond
	e := &entry{fn: fn, arg: arg, mode: mode, ticksLeft: ticks, ticksInit: ticks, id: id}

	if !s.queues.putNew(e) {
		s.ids.release(id)
		return 0, ErrAdd
	}
	return id, nil
}

// Alarm registers fn to run the next time the wall clock reads exactly
// at. Hours, Minutes, and Seconds must each be within their normal
// ranges (0-23, 0-59, 0-59).
func (s *Scheduler) Alarm(fn func(arg any), arg any, at clock.WallTime) (int, error) {
	if at.Hours < 0 || at.Hours >= 24 || at.Minutes < 0 || at.Minutes >= 60 || at.Seconds < 0 || at.Seconds >= 60 {
		return 0, ErrInvalidArgument
	}

	id, ok := s.ids.tryAlloc()
	if !ok {
		return 0, ErrMemory
	}

	e := &entry{fn: fn, arg: arg, mode: ModeAlarm, execTime: at, id: id}

	if !s.queues.putNew(e) {
		s.ids.release(id)
		return 0, ErrAdd
	}
	return id, nil
}

// Cancel requests that id stop running. It is safe to call even if id
// has already fired (Timed) or no longer exists; the cancellation is
// simply ignored by the handler in that case. id must be positive.
func (s *Scheduler) Cancel(id int) error {
	if id < 1 {
		return ErrInvalidID
	}
	if !s.queues.putCancel(id) {
		return ErrAdd
	}
	return nil
}

// GetTime reads the current wall-clock time off the CMOS chip.
func (s *Scheduler) GetTime() clock.WallTime {
	return clock.Read(s.chip)
}

// Date is a calendar date, for the SetDate/GetDate stubs below.
type Date struct {
	Year, Month, Day int
}

// SetTime is not implemented; the source never implemented it either
// (spec.md §14 Non-goals).
func (s *Scheduler) SetTime(t clock.WallTime) error { return errNotImplemented("SetTime") }

// SetDate is not implemented; the source never implemented it either.
func (s *Scheduler) SetDate(d Date) error { return errNotImplemented("SetDate") }

// GetDate is not implemented; the source never implemented it either.
func (s *Scheduler) GetDate() (Date, error) { return Date{}, errNotImplemented("GetDate") }
