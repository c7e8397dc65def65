package mode

import (
	"github.com/temoto/vfd/internal/display"
	"github.com/temoto/vfd/internal/frame"
)

// Date asks driver to render current date, content changes only with settings.
type Date struct {
	cadence
	frame frame.DateFrame
}

var _ display.Layer = &Date{}

func NewDate(env Env) *Date {
	self := &Date{}
	self.cadence.init(NameDate, env, self)
	self.OnSettingsChanged()
	return self
}

func (self *Date) OnSettingsChanged() {
	c := self.env.Settings.Config().Mode.Date
	self.mu.Lock()
	self.frame = frame.NewDateFrame(byte(c.Format))
	self.mu.Unlock()
	self.reconfigure(c.Enable, c.IntervalSec, c.DurationSec)
}

func (self *Date) Update() {}

func (self *Date) DataBuffer() []byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.frame.Encode()
}
