// Package timer provides restartable one-shot delayed callbacks.
// Callbacks run on their own goroutine (time.AfterFunc) or, with FakeClock, on the goroutine calling Advance.
package timer

import (
	"sync"
	"time"
)

type Stopper interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }

// Real is the wall clock.
var Real Clock = realClock{}

// Timer is one-shot: Start arms it for the configured duration, callback runs at most once per Start.
// Cancel after firing is a no-op. Start while counting down is a no-op.
type Timer struct {
	mu     sync.Mutex
	clock  Clock
	fn     func()
	d      time.Duration
	t      Stopper
	gen    uint64
	active bool
}

func New(clock Clock, fn func()) *Timer {
	if clock == nil {
		clock = Real
	}
	if fn == nil {
		panic("code error timer.New fn=nil")
	}
	return &Timer{clock: clock, fn: fn}
}

// Set takes effect on next Start.
func (self *Timer) Set(d time.Duration) {
	self.mu.Lock()
	self.d = d
	self.mu.Unlock()
}

func Seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (self *Timer) Duration() time.Duration {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.d
}

func (self *Timer) IsActive() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.active
}

// Start returns false when timer was already counting down.
func (self *Timer) Start() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.active {
		return false
	}
	self.active = true
	self.gen++
	gen := self.gen
	self.t = self.clock.AfterFunc(self.d, func() { self.fire(gen) })
	return true
}

// Cancel stops countdown without calling back.
// A callback already past its generation check may still be running.
func (self *Timer) Cancel() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.cancel()
}

// Reset cancels and prepares timer for next Start with the same duration.
func (self *Timer) Reset() { self.Cancel() }

func (self *Timer) cancel() {
	if self.t != nil {
		self.t.Stop()
		self.t = nil
	}
	self.gen++
	self.active = false
}

func (self *Timer) fire(gen uint64) {
	self.mu.Lock()
	if !self.active || gen != self.gen {
		self.mu.Unlock()
		return
	}
	self.active = false
	self.t = nil
	fn := self.fn
	self.mu.Unlock()

	fn()
}
