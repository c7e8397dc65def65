package mode

import (
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/vfd/internal/display"
	"github.com/temoto/vfd/internal/frame"
	"github.com/temoto/vfd/internal/player"
	"github.com/temoto/vfd/internal/settings"
	"github.com/temoto/vfd/internal/timer"
)

// PlaybackTime shows remaining/elapsed/total time of current media and its title.
// It is driven by player events rather than show cadence.
// Zero auto-hide duration makes it always-on-top while playing.
type PlaybackTime struct {
	mu      sync.Mutex
	env     Env
	player  player.Player
	hide    *timer.Timer
	text    *frame.TextEncoder
	enabled bool
	frame   frame.DeviceFrame
}

var _ display.Layer = &PlaybackTime{}
var _ display.PlaybackObserver = &PlaybackTime{}

func NewPlaybackTime(env Env, p player.Player) *PlaybackTime {
	self := &PlaybackTime{env: env, player: p, enabled: true}
	self.frame.Mode = frame.ModePlaybackTime
	self.hide = timer.New(env.Clock, self.PlaybackStopped)
	text, err := frame.NewTextEncoder(self.config().Codepage)
	if err != nil {
		env.Log.Error(errors.Annotate(err, "playback_time codepage, fallback to ascii"))
		text, _ = frame.NewTextEncoder("")
	}
	self.text = text
	self.OnSettingsChanged()
	return self
}

func (self *PlaybackTime) String() string { return NamePlaybackTime }

func (self *PlaybackTime) OnSettingsChanged() {
	c := self.config()
	if c.Codepage != self.text.Codepage() {
		if err := self.text.SetCodepage(c.Codepage); err != nil {
			self.env.Log.Error(errors.Annotate(err, "playback_time codepage"))
		}
	}
	if c.Enable {
		self.PlaybackStarted()
	} else {
		self.PlaybackStopped()
	}
}

func (self *PlaybackTime) PlaybackStarted() {
	self.hide.Cancel()
	if self.isPlayingWithTimeEnabled() {
		self.env.Stacker.AddLayer(self)
	}
}

func (self *PlaybackTime) PlaybackEnded() { self.PlaybackStopped() }

func (self *PlaybackTime) PlaybackStopped() {
	self.hide.Cancel()
	self.mu.Lock()
	self.frame.Main = nil
	self.mu.Unlock()
	self.env.Stacker.RemoveLayer(self)
}

func (self *PlaybackTime) Enable(on bool) {
	self.mu.Lock()
	changed := self.enabled != on
	self.enabled = on
	self.mu.Unlock()
	if !changed {
		return
	}
	if on {
		self.PlaybackStarted()
	} else {
		self.PlaybackStopped()
	}
}

func (self *PlaybackTime) Enabled() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.enabled
}

// StartShowTimer is no-op, layer appears on playback start only.
func (self *PlaybackTime) StartShowTimer() {}

// StartHideTimer arms auto-hide which acts like playback stop.
func (self *PlaybackTime) StartHideTimer() {
	d := self.config().DurationSec
	if d > 0 {
		self.hide.Set(timer.Seconds(d))
		self.hide.Start()
	}
}

func (self *PlaybackTime) IsAlwaysOnTop() bool { return self.config().DurationSec == 0 }

func (self *PlaybackTime) Update() {
	self.mu.Lock()
	enabled := self.enabled
	self.mu.Unlock()
	if !enabled || !self.player.IsPlaying() {
		return
	}

	current := self.player.Time()
	total := self.player.TotalTime()
	shown := current
	switch self.config().Behavior {
	case settings.BehaviorRemaining:
		if total >= current {
			shown = total - current
		}
	case settings.BehaviorElapsed:
	case settings.BehaviorTotal:
		shown = total
	}
	title := self.title()

	self.mu.Lock()
	defer self.mu.Unlock()
	self.frame.TimePrimary.SetSeconds(int(shown))
	self.frame.TimeSecondary.SetSeconds(int(total))
	if self.frame.TimePrimary.Hours > 0 {
		self.frame.ColonOn = !self.frame.ColonOn
	} else {
		self.frame.ColonOn = true
	}
	self.frame.Main = self.text.Encode(title)
}

func (self *PlaybackTime) DataBuffer() []byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.frame.Encode()
}

func (self *PlaybackTime) title() string {
	var s string
	var err error
	switch {
	case self.player.IsPlayingVideo():
		s, err = self.player.VideoTitle()
	case self.player.IsPlayingAudio():
		s, err = self.player.MusicTitle()
	}
	if err != nil {
		self.env.Log.Info(errors.Annotate(err, "playback_time title"))
		return ""
	}
	return s
}

func (self *PlaybackTime) isPlayingWithTimeEnabled() bool {
	self.mu.Lock()
	enabled := self.enabled
	self.mu.Unlock()
	if !enabled || !self.config().Enable || !self.player.IsPlaying() {
		return false
	}
	file := self.player.PlayingFile()
	self.env.Log.Debugf("playback detected file=%s", file)
	return !player.IsLive(file)
}

func (self *PlaybackTime) config() settings.PlaybackTimeConfig {
	return self.env.Settings.Config().Mode.PlaybackTime
}
