package display

import (
	"sync"

	"github.com/temoto/vfd/log2"
)

// Scheduler keeps ordered stack of visible layers, topmost (last) one owns the display.
// At most one always-on-top layer, it is pinned to the top.
//
// All exported methods acquire lk, which is shared with the owning service.
// sync.Mutex is not reentrant: holders of lk must not call Scheduler,
// and layers must not call Scheduler from methods invoked by it.
type Scheduler struct {
	lk    sync.Locker
	log   *log2.Log
	sink  Sink
	stack []Layer
	top   Layer // always-on-top occupant or nil
}

var _ Stacker = &Scheduler{}

func NewScheduler(lk sync.Locker, sink Sink, log *log2.Log) *Scheduler {
	if lk == nil {
		lk = new(sync.Mutex)
	}
	return &Scheduler{lk: lk, sink: sink, log: log}
}

func (self *Scheduler) AddLayer(l Layer) {
	self.lk.Lock()
	defer self.lk.Unlock()

	if self.index(l) < 0 {
		if self.top != nil {
			if l.IsAlwaysOnTop() {
				self.log.Noticef("display already contains always-on-top layer=%s, ignored layer=%s", self.top, l)
			} else {
				n := len(self.stack)
				self.stack = append(self.stack, nil)
				copy(self.stack[n:], self.stack[n-1:n])
				self.stack[n-1] = l
			}
		} else {
			self.stack = append(self.stack, l)
			if l.IsAlwaysOnTop() {
				self.top = l
			}
		}
	}
	self.update(true)
}

func (self *Scheduler) RemoveLayer(l Layer) {
	self.lk.Lock()
	defer self.lk.Unlock()

	if i := self.index(l); i >= 0 {
		self.stack = append(self.stack[:i], self.stack[i+1:]...)
		l.StartShowTimer()
		if l == self.top {
			self.top = nil
		}
	}
	self.update(true)
}

// Clear empties stack and unconditionally reverts display to clock.
func (self *Scheduler) Clear() {
	self.lk.Lock()
	defer self.lk.Unlock()

	for i := range self.stack {
		self.stack[i] = nil
	}
	self.stack = self.stack[:0]
	self.top = nil
	self.sink.Push(nil)
}

// Update refreshes active layer on polling cadence. Idle display is not pushed.
func (self *Scheduler) Update() {
	self.lk.Lock()
	defer self.lk.Unlock()
	self.update(false)
}

// Active returns topmost layer or nil.
func (self *Scheduler) Active() Layer {
	self.lk.Lock()
	defer self.lk.Unlock()
	if n := len(self.stack); n > 0 {
		return self.stack[n-1]
	}
	return nil
}

// Layers returns copy of stack, bottom first.
func (self *Scheduler) Layers() []Layer {
	self.lk.Lock()
	defer self.lk.Unlock()
	ls := make([]Layer, len(self.stack))
	copy(ls, self.stack)
	return ls
}

func (self *Scheduler) HasAlwaysOnTop() bool {
	self.lk.Lock()
	defer self.lk.Unlock()
	return self.top != nil
}

func (self *Scheduler) update(force bool) {
	n := len(self.stack)
	if n == 0 {
		if force {
			self.sink.Push(nil)
		}
		return
	}
	active := self.stack[n-1]
	if force {
		active.StartHideTimer()
	}
	active.Update()
	self.sink.Push(active.DataBuffer())
}

func (self *Scheduler) index(l Layer) int {
	for i, x := range self.stack {
		if x == l {
			return i
		}
	}
	return -1
}
