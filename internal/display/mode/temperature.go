package mode

import (
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/vfd/internal/display"
	"github.com/temoto/vfd/internal/frame"
)

// Temperature shows SoC thermal zone reading in degrees Celsius.
type Temperature struct {
	cadence
	sensor   string
	frame    frame.DeviceFrame
	readFile func(string) ([]byte, error)
}

var _ display.Layer = &Temperature{}

func NewTemperature(env Env) *Temperature {
	self := &Temperature{readFile: ioutil.ReadFile}
	self.frame.Mode = frame.ModeTemperature
	self.cadence.init(NameTemperature, env, self)
	self.OnSettingsChanged()
	return self
}

func (self *Temperature) OnSettingsChanged() {
	c := self.env.Settings.Config().Mode.Temperature
	self.mu.Lock()
	self.sensor = c.Sensor
	self.mu.Unlock()
	self.reconfigure(c.Enable, c.IntervalSec, c.DurationSec)
}

// Update keeps previous value when sensor read fails.
func (self *Temperature) Update() {
	self.mu.Lock()
	enabled, path := self.enabled, self.sensor
	self.mu.Unlock()
	if !enabled {
		return
	}

	milli, err := self.read(path)
	if err != nil {
		self.env.Log.Error(errors.Annotatef(err, "temperature sensor=%s", path))
		return
	}
	self.mu.Lock()
	self.frame.Temperature = milli / 1000
	self.mu.Unlock()
}

func (self *Temperature) Celsius() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.frame.Temperature
}

func (self *Temperature) DataBuffer() []byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.frame.Encode()
}

func (self *Temperature) read(path string) (int, error) {
	b, err := self.readFile(path)
	if err != nil {
		return 0, errors.Trace(err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	return v, errors.Trace(err)
}
