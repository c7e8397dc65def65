// Package indicator evaluates front panel LED conditions and writes changes to driver attributes.
package indicator

import (
	"fmt"
	"strings"
)

// Condition is polled once per service loop.
type Condition interface {
	Value() bool
}

// State remembers last value of one LED. First Update always reports change.
type State struct {
	led     string
	cond    Condition
	value   bool
	known   bool
	changed bool
}

func NewState(led string, cond Condition) *State {
	return &State{led: led, cond: cond}
}

func (self *State) Led() string     { return self.led }
func (self *State) Value() bool     { return self.value }
func (self *State) Changed() bool   { return self.changed }
func (self *State) String() string  { return fmt.Sprintf("%s=%t", self.led, self.value) }
func (self *State) Cond() Condition { return self.cond }

func (self *State) Update() {
	v := self.cond.Value()
	self.changed = !self.known || v != self.value
	self.value = v
	self.known = true
}

// Set is ordered collection of states. Not safe for concurrent use.
type Set struct {
	states []*State
	colon  *Icon
}

func NewSet(states ...*State) *Set {
	return &Set{states: states}
}

func (self *Set) Add(s *State) { self.states = append(self.states, s) }

// Replace swaps condition of LED led, appends new state if there was none.
func (self *Set) Replace(led string, cond Condition) {
	for i, s := range self.states {
		if s.led == led {
			self.states = append(self.states[:i], self.states[i+1:]...)
			break
		}
	}
	self.Add(NewState(led, cond))
}

func (self *Set) Get(led string) *State {
	for _, s := range self.states {
		if s.led == led {
			return s
		}
	}
	return nil
}

// Colon returns icon shared with display settings, may be nil.
func (self *Set) Colon() *Icon { return self.colon }

// Update evaluates all conditions, returns names of changed LEDs split by new value.
func (self *Set) Update() (on, off []string) {
	for _, s := range self.states {
		s.Update()
		if !s.changed {
			continue
		}
		if s.value {
			on = append(on, s.led)
		} else {
			off = append(off, s.led)
		}
	}
	return on, off
}

func (self *Set) Names() []string {
	ss := make([]string, len(self.states))
	for i, s := range self.states {
		ss[i] = s.led
	}
	return ss
}

// Lit returns LEDs with last known value on.
func (self *Set) Lit() []string {
	ss := make([]string, 0, len(self.states))
	for _, s := range self.states {
		if s.value {
			ss = append(ss, s.led)
		}
	}
	return ss
}

func (self *Set) String() string {
	ss := make([]string, len(self.states))
	for i, s := range self.states {
		ss[i] = s.String()
	}
	return strings.Join(ss, " ")
}
