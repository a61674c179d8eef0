package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"rtcsched/clock"
)

func newRunningScheduler(t *testing.T, cfg Config) (*Scheduler, func()) {
	t.Helper()
	cfg.TickRate = time.Millisecond // fast ticks keep tests short
	s := NewScheduler(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	return s, func() {
		cancel()
		s.Close()
	}
}

func TestTimedRejectsZeroSeconds(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{})
	defer stop()
	if _, err := s.Timed(func(any) {}, nil, 0); err != ErrInvalidArgument {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestTimedRejectsSecondsAboveMax(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{})
	defer stop()
	if _, err := s.Timed(func(any) {}, nil, MaxSeconds+1); err != ErrAdd {
		t.Fatalf("err = %v, want ErrAdd", err)
	}
}

func TestAlarmRejectsOutOfRangeTime(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{})
	defer stop()
	cases := []clock.WallTime{
		{Hours: 24, Minutes: 0, Seconds: 0},
		{Hours: 0, Minutes: 60, Seconds: 0},
		{Hours: 0, Minutes: 0, Seconds: 60},
		{Hours: -1, Minutes: 0, Seconds: 0},
	}
	for _, c := range cases {
		if _, err := s.Alarm(func(any) {}, nil, c); err != ErrInvalidArgument {
			t.Fatalf("Alarm(%+v) err = %v, want ErrInvalidArgument", c, err)
		}
	}
}

func TestCancelRejectsNonPositiveID(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{})
	defer stop()
	if err := s.Cancel(0); err != ErrInvalidID {
		t.Fatalf("Cancel(0) err = %v, want ErrInvalidID", err)
	}
	if err := s.Cancel(-5); err != ErrInvalidID {
		t.Fatalf("Cancel(-5) err = %v, want ErrInvalidID", err)
	}
}

func TestTimedFiresExactlyOnce(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{})
	defer stop()

	var mu sync.Mutex
	calls := 0
	done := make(chan struct{})
	_, err := s.Timed(func(any) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(done)
	}, nil, 1)
	if err != nil {
		t.Fatalf("Timed() err = %v", err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("callback never fired")
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("calls = %d, want exactly 1", calls)
	}
}

func TestCancelStopsFutureInvocations(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{})
	defer stop()

	var mu sync.Mutex
	calls := 0
	id, err := s.Repeat(func(any) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, nil, 1)
	if err != nil {
		t.Fatalf("Repeat() err = %v", err)
	}

	time.Sleep(1200 * time.Millisecond)
	if err := s.Cancel(id); err != nil {
		t.Fatalf("Cancel() err = %v", err)
	}

	mu.Lock()
	countAtCancel := calls
	mu.Unlock()

	time.Sleep(2500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != countAtCancel {
		t.Fatalf("calls grew from %d to %d after cancel", countAtCancel, calls)
	}
}

func TestRepeatFiresMultipleTimes(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{})
	defer stop()

	var mu sync.Mutex
	calls := 0
	id, err := s.Repeat(func(any) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, nil, 1)
	if err != nil {
		t.Fatalf("Repeat() err = %v", err)
	}
	defer s.Cancel(id)

	time.Sleep(3500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls < 2 {
		t.Fatalf("calls = %d, want at least 2 over 3.5s at 1s period", calls)
	}
}

func TestConcurrentTimedRegistrationsAllGetUniqueIDs(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{QueueCapacity: 200})
	defer stop()

	const n = 100
	ids := make(chan int, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Timed(func(any) {}, nil, 5)
			ids <- id
			errs <- err
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Timed() err = %v", err)
		}
	}
	seen := make(map[int]bool)
	for id := range ids {
		if id < 1 {
			t.Fatalf("non-positive id %d", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d unique ids, want %d", len(seen), n)
	}
}

func TestMaxLiveEntriesRejectsOverCapacity(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{MaxLiveEntries: 1})
	defer stop()

	if _, err := s.Timed(func(any) {}, nil, 60); err != nil {
		t.Fatalf("first Timed() err = %v", err)
	}
	if _, err := s.Timed(func(any) {}, nil, 60); err != ErrMemory {
		t.Fatalf("second Timed() err = %v, want ErrMemory", err)
	}
}

func TestUnimplementedStubsReturnNotImplemented(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{})
	defer stop()

	if err := s.SetTime(clock.WallTime{}); err == nil {
		t.Fatal("SetTime should return an error")
	}
	if err := s.SetDate(Date{}); err == nil {
		t.Fatal("SetDate should return an error")
	}
	if _, err := s.GetDate(); err == nil {
		t.Fatal("GetDate should return an error")
	}
}

func TestGetTimeReadsChipWallClock(t *testing.T) {
	s, stop := newRunningScheduler(t, Config{})
	defer stop()

	s.chip.SetTime(0x45, 0x30, 0x12) // BCD 12:30:45
	got := s.GetTime()
	want := clock.WallTime{Hours: 12, Minutes: 30, Seconds: 45}
	if got != want {
		t.Fatalf("GetTime() = %+v, want %+v", got, want)
	}
}
