package timer

import (
	"sync"
	"time"
)

// Manual is a hand-driven tick source (useful for tests/demos). Every ticker
// it creates replaces the previous one as the target of Tick.
type Manual struct {
	mu      sync.Mutex
	current *manualTicker
	created int
}

func NewManual() *Manual {
	return &Manual{}
}

// NewTicker satisfies TickerFunc; the interval is ignored.
func (m *Manual) NewTicker(time.Duration) Ticker {
	t := &manualTicker{
		c:       make(chan time.Time),
		acked:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
	m.mu.Lock()
	m.current = t
	m.created++
	m.mu.Unlock()
	return t
}

// Tick delivers one tick to the newest ticker and returns once the countdown
// has run its callbacks. It reports false when nothing is listening.
func (m *Manual) Tick() bool {
	m.mu.Lock()
	t := m.current
	m.mu.Unlock()
	if t == nil {
		return false
	}
	select {
	case t.c <- time.Now():
	case <-t.stopped:
		return false
	}
	<-t.acked
	return true
}

// Advance delivers up to n ticks and returns how many were handled.
func (m *Manual) Advance(n int) int {
	handled := 0
	for i := 0; i < n; i++ {
		if !m.Tick() {
			break
		}
		handled++
	}
	return handled
}

type manualTicker struct {
	c       chan time.Time
	acked   chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

func (t *manualTicker) ack() {
	t.acked <- struct{}{}
}
