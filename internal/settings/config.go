package settings

import (
	"fmt"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/vfd/helpers"
)

const (
	BehaviorRemaining = 0
	BehaviorElapsed   = 1
	BehaviorTotal     = 2
)

type TemperatureConfig struct {
	Enable      bool   `hcl:"enable"`
	IntervalSec int    `hcl:"interval_sec"`
	DurationSec int    `hcl:"duration_sec"`
	Sensor      string `hcl:"sensor"`
}

type DateConfig struct {
	Enable      bool `hcl:"enable"`
	IntervalSec int  `hcl:"interval_sec"`
	DurationSec int  `hcl:"duration_sec"`
	Format      int  `hcl:"format"`
}

// PlaybackTimeConfig DurationSec=0 means no auto-hide.
type PlaybackTimeConfig struct {
	Enable      bool   `hcl:"enable"`
	DurationSec int    `hcl:"duration_sec"`
	Behavior    int    `hcl:"behavior"`
	Codepage    string `hcl:"codepage"`
}

type Config struct {
	Display struct {
		On             bool  `hcl:"on"`
		Brightness     int   `hcl:"brightness"`
		Colon          bool  `hcl:"colon"`
		Advanced       bool  `hcl:"advanced"`
		DisplayType    int   `hcl:"display_type"`
		CommonAnode    bool  `hcl:"common_anode"`
		CharacterOrder []int `hcl:"character_order"`
	} `hcl:"display"`

	Mode struct {
		Temperature  TemperatureConfig  `hcl:"temperature"`
		Date         DateConfig         `hcl:"date"`
		PlaybackTime PlaybackTimeConfig `hcl:"playback_time"`
	} `hcl:"mode"`

	Indicator struct {
		LedOn       string `hcl:"led_on"`
		LedOff      string `hcl:"led_off"`
		Storage     bool   `hcl:"storage"`
		StorageIcon string `hcl:"storage_icon"`
	} `hcl:"indicator"`

	Device struct {
		Pipe           string `hcl:"pipe"`
		Brightness     string `hcl:"brightness"`
		DisplayType    string `hcl:"display_type"`
		CharacterOrder string `hcl:"character_order"`
	} `hcl:"device"`

	Persist struct {
		Root string `hcl:"root"`
	} `hcl:"persist"`

	Tele struct {
		Enable       bool   `hcl:"enable"`
		MqttBroker   string `hcl:"mqtt_broker"`
		ClientID     string `hcl:"client_id"`
		TopicPrefix  string `hcl:"topic_prefix"`
		KeepaliveSec int    `hcl:"keepalive_sec"`
	} `hcl:"tele"`

	LogLevel string `hcl:"log_level"`
	PollMs   int    `hcl:"poll_ms"`
}

// Default matches stock openvfd addon settings.
func Default() *Config {
	c := &Config{}
	c.Display.On = true
	c.Display.Brightness = 7
	c.Display.Colon = true
	c.Display.CharacterOrder = []int{0, 1, 2, 3, 4, 5, 6}
	c.Mode.Temperature.Enable = true
	c.Mode.Temperature.Sensor = "/sys/class/thermal/thermal_zone0/temp"
	c.Mode.Date.Enable = true
	c.Mode.PlaybackTime.Enable = true
	c.Indicator.LedOn = "/sys/class/leds/openvfd/led_on"
	c.Indicator.LedOff = "/sys/class/leds/openvfd/led_off"
	c.Indicator.StorageIcon = "usb"
	c.Device.Pipe = "/tmp/openvfd_service"
	c.Tele.MqttBroker = "tcp://127.0.0.1:1883"
	c.Tele.ClientID = "vfd"
	c.Tele.TopicPrefix = "vfd"
	c.Tele.KeepaliveSec = 60
	c.PollMs = 500
	return c
}

// Parse overlays HCL source on top of Default() and validates result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := hcl.Unmarshal(b, c); err != nil {
		return nil, errors.Annotate(err, "config unmarshal")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	errs := make([]error, 0)
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, errors.NotValidf(format, args...))
		}
	}
	check(c.Mode.Temperature.IntervalSec >= 0, "mode.temperature.interval_sec=%d", c.Mode.Temperature.IntervalSec)
	check(c.Mode.Temperature.DurationSec >= 0, "mode.temperature.duration_sec=%d", c.Mode.Temperature.DurationSec)
	check(c.Mode.Date.IntervalSec >= 0, "mode.date.interval_sec=%d", c.Mode.Date.IntervalSec)
	check(c.Mode.Date.DurationSec >= 0, "mode.date.duration_sec=%d", c.Mode.Date.DurationSec)
	check(c.Mode.Date.Format >= 0 && c.Mode.Date.Format <= 0xff, "mode.date.format=%d", c.Mode.Date.Format)
	check(c.Mode.PlaybackTime.DurationSec >= 0, "mode.playback_time.duration_sec=%d", c.Mode.PlaybackTime.DurationSec)
	check(c.Mode.PlaybackTime.Behavior >= BehaviorRemaining && c.Mode.PlaybackTime.Behavior <= BehaviorTotal,
		"mode.playback_time.behavior=%d (0=remaining 1=elapsed 2=total)", c.Mode.PlaybackTime.Behavior)
	check(c.Display.Brightness >= 0, "display.brightness=%d", c.Display.Brightness)
	check(c.PollMs >= 0, "poll_ms=%d", c.PollMs)
	if c.Tele.Enable {
		check(c.Tele.MqttBroker != "", "tele.mqtt_broker empty")
		check(c.Tele.TopicPrefix != "", "tele.topic_prefix empty")
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) CharacterIndexes() []int {
	return append([]int(nil), c.Display.CharacterOrder...)
}

// DisplayCode packs display type for driver: controller type in low byte, common anode flag in bit 8.
func (c *Config) DisplayCode() int {
	code := c.Display.DisplayType & 0xff
	if c.Display.CommonAnode {
		code |= 1 << 8
	}
	return code
}

func (c *Config) String() string {
	return fmt.Sprintf("display(on=%t brightness=%d advanced=%t type=%d common_anode=%t chars=%v) temp(%d/%d) date(%d/%d f=%d) playback(enable=%t duration=%d behavior=%d)",
		c.Display.On, c.Display.Brightness, c.Display.Advanced, c.Display.DisplayType, c.Display.CommonAnode, c.CharacterIndexes(),
		c.Mode.Temperature.IntervalSec, c.Mode.Temperature.DurationSec,
		c.Mode.Date.IntervalSec, c.Mode.Date.DurationSec, c.Mode.Date.Format,
		c.Mode.PlaybackTime.Enable, c.Mode.PlaybackTime.DurationSec, c.Mode.PlaybackTime.Behavior)
}
