// Package mode implements display layers: temperature, date and playback time.
package mode

import (
	"sync"

	"github.com/temoto/vfd/internal/display"
	"github.com/temoto/vfd/internal/settings"
	"github.com/temoto/vfd/internal/timer"
	"github.com/temoto/vfd/log2"
)

const (
	NameTemperature  = "temperature"
	NameDate         = "date"
	NamePlaybackTime = "playback_time"
)

// Env is shared construction context of all modes.
type Env struct {
	Stacker  display.Stacker
	Settings settings.Provider
	Clock    timer.Clock
	Log      *log2.Log
}

// cadence shows layer every interval seconds for duration seconds.
// Show timer counts (interval - duration) from the moment layer yields.
//
// Locking: mu is never held while calling Stacker.
type cadence struct {
	mu       sync.Mutex
	name     string
	env      Env
	layer    display.Layer // outer mode, identity for Stacker
	show     *timer.Timer
	hide     *timer.Timer
	interval int
	duration int
	enabled  bool // runtime toggle
	allowed  bool // settings toggle
}

func (self *cadence) init(name string, env Env, layer display.Layer) {
	self.name = name
	self.env = env
	self.layer = layer
	self.enabled = true
	self.show = timer.New(env.Clock, self.onShow)
	self.hide = timer.New(env.Clock, self.onHide)
}

func (self *cadence) String() string { return self.name }

// reconfigure cancels timers, removes stale visible instance, then applies new cadence and rearms show timer.
// allowed stays false while layer is being removed so a callback in flight can't show it again.
func (self *cadence) reconfigure(allowed bool, interval, duration int) {
	self.mu.Lock()
	self.show.Cancel()
	self.hide.Cancel()
	self.allowed = false
	self.mu.Unlock()

	self.env.Stacker.RemoveLayer(self.layer)

	self.mu.Lock()
	defer self.mu.Unlock()
	self.allowed = allowed
	self.interval = interval
	self.duration = duration
	wait := interval - duration
	if wait < 0 {
		wait = 0
	}
	self.show.Set(timer.Seconds(wait))
	self.hide.Set(timer.Seconds(duration))
	self.startShowTimer()
	self.env.Log.Debugf("mode %s interval=%d duration=%d enabled=%t allowed=%t", self.name, interval, duration, self.enabled, allowed)
}

// Enable(false) cancels timers before anything else so pending callback can't revive layer.
func (self *cadence) Enable(on bool) {
	self.mu.Lock()
	changed := self.enabled != on
	if changed && !on {
		self.show.Cancel()
		self.hide.Cancel()
	}
	self.enabled = on
	self.mu.Unlock()
	if changed {
		self.layer.OnSettingsChanged()
	}
}

func (self *cadence) Enabled() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.enabled
}

func (self *cadence) IsAlwaysOnTop() bool { return false }

func (self *cadence) StartShowTimer() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.startShowTimer()
}

func (self *cadence) StartHideTimer() {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.duration > 0 {
		self.hide.Start()
	}
}

// startShowTimer arms show timer when mode is enabled at runtime and by settings,
// with positive interval and positive duration. Zero duration is treated as off:
// layer would be hidden the moment it is shown. Requires mu.
func (self *cadence) startShowTimer() {
	if self.enabled && self.allowed && self.interval > 0 && self.duration > 0 {
		self.show.Start()
	}
}

func (self *cadence) onShow() {
	self.mu.Lock()
	ok := self.enabled && self.allowed && self.interval > 0
	self.mu.Unlock()
	if ok {
		self.env.Stacker.AddLayer(self.layer)
	}
}

func (self *cadence) onHide() {
	self.env.Stacker.RemoveLayer(self.layer)
}
