//go:build linux

package hwtimer

import (
	"time"

	"golang.org/x/sys/unix"
)

// timerfdSource backs Source with a Linux timerfd, read from a dedicated
// goroutine and translated into a channel send per tick — the same
// "own an fd, block a goroutine reading it, hand results off on a
// channel" shape as the teacher's TapDevice.ReadPacket and the pack's
// io_uring completion loops.
type timerfdSource struct {
	fd   int
	c    chan time.Time
	done chan struct{}
}

func newSource(rate time.Duration) Source {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC)
	if err != nil {
		// No timerfd available (e.g. a restricted sandbox); fall back to
		// the portable ticker rather than failing construction.
		return &tickerSource{ticker: time.NewTicker(rate)}
	}

	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(rate.Nanoseconds()),
		Value:    unix.NsecToTimespec(rate.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		unix.Close(fd)
		return &tickerSource{ticker: time.NewTicker(rate)}
	}

	s := &timerfdSource{
		fd:   fd,
		c:    make(chan time.Time, 1),
		done: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *timerfdSource) loop() {
	buf := make([]byte, 8)
	for {
		n, err := unix.Read(s.fd, buf)
		if err != nil || n != len(buf) {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		select {
		case s.c <- time.Now():
		default:
			// Consumer is behind; drop this tick rather than block the
			// read loop (the real chip doesn't queue missed interrupts
			// either).
		}
		select {
		case <-s.done:
			return
		default:
		}
	}
}

func (s *timerfdSource) C() <-chan time.Time { return s.c }

func (s *timerfdSource) Stop() {
	close(s.done)
	unix.Close(s.fd)
}

// tickerSource is also reachable on linux as the fallback when timerfd
// creation fails.
type tickerSource struct {
	ticker *time.Ticker
}

func (s *tickerSource) C() <-chan time.Time { return s.ticker.C }

func (s *tickerSource) Stop() { s.ticker.Stop() }
