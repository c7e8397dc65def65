package sink

import (
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/vfd/log2"
)

// ControlConfig holds sysfs attribute paths. Empty path means feature is not supported by driver.
type ControlConfig struct {
	Brightness     string
	DisplayType    string
	CharacterOrder string
}

// Control applies hardware settings, best effort.
type Control struct {
	log *log2.Log
	c   ControlConfig
}

func NewControl(c ControlConfig, log *log2.Log) *Control {
	return &Control{c: c, log: log}
}

// EnableDisplay(false) sets brightness to 0, driver keeps it dark until next SetBrightness.
func (self *Control) EnableDisplay(on bool) {
	if !on {
		self.write("brightness", self.c.Brightness, "0")
	}
}

func (self *Control) SetBrightness(level int) {
	if level < 0 {
		level = 0
	}
	self.write("brightness", self.c.Brightness, strconv.Itoa(level))
}

func (self *Control) SetDisplayType(displayType int) {
	self.write("display_type", self.c.DisplayType, "0x"+strconv.FormatUint(uint64(uint32(displayType)), 16))
}

func (self *Control) SetCharacterOrder(order []int) {
	ss := make([]string, len(order))
	for i, x := range order {
		ss[i] = strconv.Itoa(x)
	}
	self.write("character_order", self.c.CharacterOrder, strings.Join(ss, " "))
}

// UseDtbConfig restores display type defined by device tree.
func (self *Control) UseDtbConfig() {
	self.write("display_type", self.c.DisplayType, "-1")
}

func (self *Control) write(name, path, value string) {
	if path == "" {
		self.log.Debugf("vfd control %s=%s not supported", name, value)
		return
	}
	if err := ioutil.WriteFile(path, []byte(value), 0644); err != nil {
		self.log.Error(errors.Annotatef(err, "vfd control %s path=%s", name, path))
	}
}
