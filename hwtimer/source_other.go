//go:build !linux

package hwtimer

import "time"

// tickerSource is the portable fallback backing Source on platforms
// without timerfd, and in tests that don't care about sub-millisecond
// jitter.
type tickerSource struct {
	ticker *time.Ticker
}

func newSource(rate time.Duration) Source {
	return &tickerSource{ticker: time.NewTicker(rate)}
}

func (s *tickerSource) C() <-chan time.Time { return s.ticker.C }

func (s *tickerSource) Stop() { s.ticker.Stop() }
