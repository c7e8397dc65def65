package timer

import (
	"sort"
	"sync"
	"time"
)

// FakeClock fires timers only from Advance, on the caller goroutine.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*fakeTimer
}

type fakeTimer struct {
	c   *FakeClock
	seq uint64
	at  time.Duration
	d   time.Duration
	f   func()
}

var _ Clock = &FakeClock{}

func NewFake() *FakeClock { return &FakeClock{} }

func (self *FakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	self.mu.Lock()
	defer self.mu.Unlock()
	if d < 0 {
		d = 0
	}
	self.seq++
	ft := &fakeTimer{c: self, seq: self.seq, at: self.now + d, d: d, f: f}
	self.pending = append(self.pending, ft)
	return ft
}

func (self *fakeTimer) Stop() bool {
	c := self.c
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.pending {
		if p == self {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves time forward firing due timers in order, returns number fired.
func (self *FakeClock) Advance(d time.Duration) int {
	self.mu.Lock()
	target := self.now + d
	fired := 0
	for {
		next := self.popDue(target)
		if next == nil {
			break
		}
		self.now = next.at
		self.mu.Unlock()
		next.f()
		fired++
		self.mu.Lock()
	}
	self.now = target
	self.mu.Unlock()
	return fired
}

// Pending returns original durations of not yet fired timers, earliest due first.
func (self *FakeClock) Pending() []time.Duration {
	self.mu.Lock()
	defer self.mu.Unlock()
	ps := make([]*fakeTimer, len(self.pending))
	copy(ps, self.pending)
	sortTimers(ps)
	ds := make([]time.Duration, len(ps))
	for i, p := range ps {
		ds[i] = p.d
	}
	return ds
}

func (self *FakeClock) Now() time.Duration {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.now
}

func (self *FakeClock) popDue(target time.Duration) *fakeTimer {
	sortTimers(self.pending)
	if len(self.pending) == 0 || self.pending[0].at > target {
		return nil
	}
	next := self.pending[0]
	self.pending = self.pending[1:]
	return next
}

func sortTimers(ps []*fakeTimer) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].at == ps[j].at {
			return ps[i].seq < ps[j].seq
		}
		return ps[i].at < ps[j].at
	})
}
