// Package timer provides the cancellable once-per-second countdown used for
// the total and per-question attempt clocks.
package timer

import (
	"fmt"
	"sync"
	"time"
)

// Ticker is the tick source a countdown consumes.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

// RealTicker is the wall-clock tick source.
func RealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// acker is implemented by tick sources that wait until a tick was handled.
type acker interface {
	ack()
}

// Countdown decrements a remaining-seconds counter on each tick. A run ends
// either by Cancel or by reaching zero, in which case onExpire is invoked
// exactly once. Callbacks run on the countdown's own goroutine.
type Countdown struct {
	newTicker TickerFunc
	interval  time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// NewCountdown builds a countdown over the given tick source; nil means
// wall-clock seconds.
func NewCountdown(newTicker TickerFunc) *Countdown {
	if newTicker == nil {
		newTicker = RealTicker
	}
	return &Countdown{newTicker: newTicker, interval: time.Second}
}

// Start begins a new run from initial seconds, cancelling any run in
// progress. onTick receives the remaining seconds after every tick.
func (c *Countdown) Start(initial int, onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	c.cancelLocked()
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	t := c.newTicker(c.interval)
	go c.run(t, stop, initial, onTick, onExpire)
}

// Cancel stops the current run. It never blocks and may be called from the
// countdown's own callbacks.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	c.cancelLocked()
	c.mu.Unlock()
}

func (c *Countdown) cancelLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// claim marks the run identified by stop as finished. It reports false when
// the run was cancelled or replaced in the meantime.
func (c *Countdown) claim(stop chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != stop {
		return false
	}
	c.stop = nil
	return true
}

func (c *Countdown) run(t Ticker, stop chan struct{}, remaining int, onTick func(int), onExpire func()) {
	defer t.Stop()

	pending := false
	for remaining > 0 {
		select {
		case <-stop:
			return
		case <-t.C():
		}
		pending = true
		if closed(stop) {
			acknowledge(t)
			return
		}
		remaining--
		if onTick != nil {
			onTick(remaining)
		}
		if remaining > 0 {
			acknowledge(t)
			pending = false
		}
	}

	if c.claim(stop) && onExpire != nil {
		onExpire()
	}
	if pending {
		acknowledge(t)
	}
}

func closed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func acknowledge(t Ticker) {
	if a, ok := t.(acker); ok {
		a.ack()
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
