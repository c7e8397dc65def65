// Package frame defines wire records understood by the openvfd service pipe.
//
// DeviceFrame layout, little endian, 2-byte aligned (660 bytes total):
//
//	off size field
//	  0    2 mode
//	  2    1 colon_on
//	  3    1 temperature
//	  4    8 time_date: seconds minutes hours day_of_week day month year(u16)
//	 12    4 time_secondary: seconds minutes hours _reserved
//	 16    4 channel(u16) channel_count(u16)
//	 20  512 string_main
//	532  128 string_secondary
package frame

import (
	"encoding/binary"
)

const (
	MainTextSize      = 512
	SecondaryTextSize = 128
	DeviceFrameSize   = 20 + MainTextSize + SecondaryTextSize
	DateFrameSize     = 3
)

// Mode tags interpreted by the driver.
const (
	ModeClock         uint16 = 0
	ModeDate          uint16 = 2
	ModePlaybackTime  uint16 = 3
	ModeTemperature   uint16 = 5
	dateSubtagDefault byte   = 6
)

const (
	offMode        = 0
	offColon       = 2
	offTemperature = 3
	offTimeDate    = 4
	offTimeSecond  = 12
	offChannel     = 16
	offMain        = 20
	offSecondary   = offMain + MainTextSize
)

// Encoder is any record the device pipe accepts.
type Encoder interface {
	Encode() []byte
}

// Clock is the single zero byte which reverts the display to its built-in clock.
var Clock = []byte{0}

type Time struct {
	Seconds   uint8
	Minutes   uint8
	Hours     uint8
	DayOfWeek uint8
	Day       uint8
	Month     uint8
	Year      uint16
}

// SetSeconds splits total seconds into hours, minutes, seconds.
// Hours saturate at 255, negative input is treated as zero.
func (t *Time) SetSeconds(secs int) {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	secs -= h * 3600
	if h > 0xff {
		h = 0xff
	}
	t.Hours = uint8(h)
	t.Minutes = uint8(secs / 60)
	t.Seconds = uint8(secs % 60)
}

func (t Time) TotalSeconds() int {
	return int(t.Hours)*3600 + int(t.Minutes)*60 + int(t.Seconds)
}

type DeviceFrame struct {
	Mode          uint16
	ColonOn       bool
	Temperature   int
	TimePrimary   Time
	TimeSecondary Time // only H:M:S are encoded
	Channel       uint16
	ChannelCount  uint16
	Main          []byte
	Secondary     []byte
}

var _ Encoder = &DeviceFrame{}

func (f *DeviceFrame) Encode() []byte {
	b := make([]byte, DeviceFrameSize)
	f.EncodeTo(b)
	return b
}

// EncodeTo writes into b which must be at least DeviceFrameSize long.
// Text longer than slot capacity is truncated, shorter text is NUL padded.
func (f *DeviceFrame) EncodeTo(b []byte) {
	_ = b[DeviceFrameSize-1]
	for i := range b[:DeviceFrameSize] {
		b[i] = 0
	}
	binary.LittleEndian.PutUint16(b[offMode:], f.Mode)
	if f.ColonOn {
		b[offColon] = 1
	}
	b[offTemperature] = clampByte(f.Temperature)

	t := b[offTimeDate:]
	t[0], t[1], t[2] = f.TimePrimary.Seconds, f.TimePrimary.Minutes, f.TimePrimary.Hours
	t[3], t[4], t[5] = f.TimePrimary.DayOfWeek, f.TimePrimary.Day, f.TimePrimary.Month
	binary.LittleEndian.PutUint16(t[6:], f.TimePrimary.Year)

	s := b[offTimeSecond:]
	s[0], s[1], s[2] = f.TimeSecondary.Seconds, f.TimeSecondary.Minutes, f.TimeSecondary.Hours

	binary.LittleEndian.PutUint16(b[offChannel:], f.Channel)
	binary.LittleEndian.PutUint16(b[offChannel+2:], f.ChannelCount)

	copy(b[offMain:offMain+MainTextSize], f.Main)
	copy(b[offSecondary:offSecondary+SecondaryTextSize], f.Secondary)
}

// DateFrame is the short record selecting the driver's date rendering.
type DateFrame struct {
	Subtag byte
	Format byte
}

var _ Encoder = DateFrame{}

func NewDateFrame(format byte) DateFrame { return DateFrame{Subtag: dateSubtagDefault, Format: format} }

func (f DateFrame) Encode() []byte {
	return []byte{byte(ModeDate), f.Subtag, f.Format}
}

func clampByte(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > 0xff:
		return 0xff
	}
	return byte(v)
}
