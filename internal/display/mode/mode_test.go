package mode

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/vfd/internal/display"
	"github.com/temoto/vfd/internal/frame"
	"github.com/temoto/vfd/internal/player"
	"github.com/temoto/vfd/internal/settings"
	"github.com/temoto/vfd/internal/sink"
	"github.com/temoto/vfd/internal/timer"
	"github.com/temoto/vfd/log2"
)

type fixture struct {
	env   Env
	clock *timer.FakeClock
	sched *display.Scheduler
	sink  *sink.Mock
	conf  *settings.Static
}

func newFixture(t testing.TB, f func(*settings.Config)) *fixture {
	c := settings.Default()
	c.Mode.Temperature.Enable = false
	c.Mode.Date.Enable = false
	c.Mode.PlaybackTime.Enable = false
	if f != nil {
		f(c)
	}
	log := log2.NewTest(t, log2.LDebug)
	fx := &fixture{
		clock: timer.NewFake(),
		sink:  sink.NewMock(),
		conf:  settings.NewStatic(c),
	}
	fx.sched = display.NewScheduler(nil, fx.sink, log)
	fx.env = Env{Stacker: fx.sched, Settings: fx.conf, Clock: fx.clock, Log: log}
	return fx
}

func (self *fixture) last(t testing.TB) []byte {
	b, ok := self.sink.Last()
	require.True(t, ok, "nothing pushed")
	return b
}

func TestCadenceShowHideCycle(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *settings.Config) {
		c.Mode.Temperature.Enable = true
		c.Mode.Temperature.IntervalSec = 10
		c.Mode.Temperature.DurationSec = 3
	})
	m := NewTemperature(fx.env)
	m.readFile = func(string) ([]byte, error) { return []byte("36500\n"), nil }
	assert.Equal(t, []time.Duration{7 * time.Second}, fx.clock.Pending())
	assert.Nil(t, fx.sched.Active())

	for round := 1; round <= 3; round++ {
		t.Run(fmt.Sprintf("round%d", round), func(t *testing.T) {
			assert.Equal(t, 0, fx.clock.Advance(7*time.Second-time.Millisecond))
			assert.Nil(t, fx.sched.Active())
			assert.Equal(t, 1, fx.clock.Advance(time.Millisecond))
			assert.Equal(t, m, fx.sched.Active())
			assert.Equal(t, []time.Duration{3 * time.Second}, fx.clock.Pending())
			assert.Equal(t, byte(36), fx.last(t)[3])

			assert.Equal(t, 1, fx.clock.Advance(3*time.Second))
			assert.Nil(t, fx.sched.Active())
			assert.Nil(t, fx.last(t))
			assert.Equal(t, []time.Duration{7 * time.Second}, fx.clock.Pending())
		})
	}
}

func TestCadenceDisabled(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		enable   bool
		interval int
		duration int
	}{
		{"settings-off", false, 10, 3},
		{"zero-interval", true, 0, 3},
		{"zero-duration", true, 10, 0},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			fx := newFixture(t, func(conf *settings.Config) {
				conf.Mode.Date.Enable = c.enable
				conf.Mode.Date.IntervalSec = c.interval
				conf.Mode.Date.DurationSec = c.duration
			})
			NewDate(fx.env)
			assert.Empty(t, fx.clock.Pending())
			fx.clock.Advance(time.Minute)
			assert.Nil(t, fx.sched.Active())
		})
	}
}

func TestCadenceDurationLongerThanInterval(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *settings.Config) {
		c.Mode.Date.Enable = true
		c.Mode.Date.IntervalSec = 2
		c.Mode.Date.DurationSec = 5
	})
	m := NewDate(fx.env)
	assert.Equal(t, []time.Duration{0}, fx.clock.Pending())
	fx.clock.Advance(0)
	assert.Equal(t, m, fx.sched.Active())
}

func TestEnableFalseCancelsTimers(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *settings.Config) {
		c.Mode.Date.Enable = true
		c.Mode.Date.IntervalSec = 10
		c.Mode.Date.DurationSec = 3
	})
	m := NewDate(fx.env)
	fx.clock.Advance(7 * time.Second)
	require.Equal(t, m, fx.sched.Active())

	m.Enable(false)
	assert.False(t, m.Enabled())
	assert.Nil(t, fx.sched.Active())
	assert.Empty(t, fx.clock.Pending())
	fx.clock.Advance(time.Hour)
	assert.Nil(t, fx.sched.Active())

	m.Enable(true)
	assert.Equal(t, []time.Duration{7 * time.Second}, fx.clock.Pending())
}

func TestSettingsChangeRearms(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *settings.Config) {
		c.Mode.Date.Enable = true
		c.Mode.Date.IntervalSec = 10
		c.Mode.Date.DurationSec = 3
	})
	m := NewDate(fx.env)
	fx.clock.Advance(7 * time.Second)
	require.Equal(t, m, fx.sched.Active())

	fx.conf.Update(func(c *settings.Config) {
		c.Mode.Date.IntervalSec = 60
		c.Mode.Date.DurationSec = 5
		c.Mode.Date.Format = 3
	})
	m.OnSettingsChanged()
	assert.Nil(t, fx.sched.Active())
	assert.Equal(t, []time.Duration{55 * time.Second}, fx.clock.Pending())
	assert.Equal(t, []byte{2, 6, 3}, m.DataBuffer())
}

// firingStacker fires due timers in the middle of RemoveLayer,
// like a real clock callback racing with settings change.
type firingStacker struct {
	*display.Scheduler
	clock  *timer.FakeClock
	firing bool
}

func (self *firingStacker) RemoveLayer(l display.Layer) {
	self.Scheduler.RemoveLayer(l)
	if self.firing {
		self.clock.Advance(0)
	}
}

func TestSettingsChangeWhileShowTimerFires(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *settings.Config) {
		c.Mode.Date.Enable = true
		c.Mode.Date.IntervalSec = 5
		c.Mode.Date.DurationSec = 5
	})
	stacker := &firingStacker{Scheduler: fx.sched, clock: fx.clock}
	fx.env.Stacker = stacker
	m := NewDate(fx.env)
	assert.Equal(t, []time.Duration{0}, fx.clock.Pending())
	fx.clock.Advance(0)
	require.Equal(t, m, fx.sched.Active())
	require.Equal(t, []time.Duration{5 * time.Second}, fx.clock.Pending())

	stacker.firing = true
	m.OnSettingsChanged()
	stacker.firing = false
	assert.Nil(t, fx.sched.Active(), "layer must not stay visible without hide timer")
	assert.Equal(t, []time.Duration{0}, fx.clock.Pending())

	fx.clock.Advance(0)
	assert.Equal(t, m, fx.sched.Active())
	assert.Equal(t, []time.Duration{5 * time.Second}, fx.clock.Pending(), "hide timer armed")
	fx.clock.Advance(5*time.Second - time.Millisecond)
	assert.Equal(t, m, fx.sched.Active())
}

func TestTemperature(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *settings.Config) {
		c.Mode.Temperature.Enable = true
		c.Mode.Temperature.IntervalSec = 10
		c.Mode.Temperature.DurationSec = 3
	})
	m := NewTemperature(fx.env)
	assert.Equal(t, NameTemperature, m.String())
	assert.False(t, m.IsAlwaysOnTop())

	m.readFile = func(string) ([]byte, error) { return []byte("36500\n"), nil }
	m.Update()
	assert.Equal(t, 36, m.Celsius())
	b := m.DataBuffer()
	require.Len(t, b, frame.DeviceFrameSize)
	assert.Equal(t, []byte{5, 0}, b[:2])
	assert.Equal(t, byte(36), b[3])

	m.readFile = func(string) ([]byte, error) { return nil, fmt.Errorf("no sensor") }
	m.Update()
	assert.Equal(t, 36, m.Celsius())

	m.readFile = func(string) ([]byte, error) { return []byte("garbage"), nil }
	m.Update()
	assert.Equal(t, 36, m.Celsius())
}

func TestDateBuffer(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *settings.Config) { c.Mode.Date.Format = 1 })
	m := NewDate(fx.env)
	assert.Equal(t, NameDate, m.String())
	assert.Equal(t, []byte{2, 6, 1}, m.DataBuffer())
}

func newPlaybackFixture(t testing.TB, duration, behavior int, s player.State) (*fixture, *PlaybackTime, *player.Mock) {
	fx := newFixture(t, func(c *settings.Config) {
		c.Mode.PlaybackTime.Enable = true
		c.Mode.PlaybackTime.DurationSec = duration
		c.Mode.PlaybackTime.Behavior = behavior
	})
	p := player.NewMock(s)
	m := NewPlaybackTime(fx.env, p)
	return fx, m, p
}

var movie = player.State{Playing: true, Kind: player.KindVideo, File: "/storage/movie.mkv", Title: "Movie", Time: 30, TotalTime: 120}

func TestPlaybackBehavior(t *testing.T) {
	t.Parallel()

	cases := []struct {
		behavior int
		expect   int
	}{
		{settings.BehaviorRemaining, 90},
		{settings.BehaviorElapsed, 30},
		{settings.BehaviorTotal, 120},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprint(c.behavior), func(t *testing.T) {
			t.Parallel()
			fx, m, _ := newPlaybackFixture(t, 0, c.behavior, movie)
			require.Equal(t, m, fx.sched.Active())
			b := fx.last(t)
			require.Len(t, b, frame.DeviceFrameSize)
			assert.Equal(t, []byte{3, 0}, b[:2])
			primary := frame.Time{Seconds: b[4], Minutes: b[5], Hours: b[6]}
			assert.Equal(t, c.expect, primary.TotalSeconds())
			secondary := frame.Time{Seconds: b[12], Minutes: b[13], Hours: b[14]}
			assert.Equal(t, 120, secondary.TotalSeconds())
			assert.Equal(t, byte(1), b[2])
			assert.Equal(t, []byte("Movie\x00"), b[20:26])
		})
	}
}

func TestPlaybackRemainingPastTotal(t *testing.T) {
	t.Parallel()

	s := movie
	s.Time, s.TotalTime = 130, 120
	_, m, _ := newPlaybackFixture(t, 0, settings.BehaviorRemaining, s)
	m.Update()
	b := m.DataBuffer()
	primary := frame.Time{Seconds: b[4], Minutes: b[5], Hours: b[6]}
	assert.Equal(t, 130, primary.TotalSeconds())
}

func TestPlaybackColonToggle(t *testing.T) {
	t.Parallel()

	s := movie
	s.Time, s.TotalTime = 0, 7300
	_, m, _ := newPlaybackFixture(t, 0, settings.BehaviorRemaining, s)
	first := m.DataBuffer()[2]
	m.Update()
	second := m.DataBuffer()[2]
	m.Update()
	third := m.DataBuffer()[2]
	assert.NotEqual(t, first, second)
	assert.Equal(t, first, third)
}

func TestPlaybackAlwaysOnTop(t *testing.T) {
	t.Parallel()

	fx, m, _ := newPlaybackFixture(t, 0, settings.BehaviorElapsed, movie)
	assert.True(t, m.IsAlwaysOnTop())
	assert.True(t, fx.sched.HasAlwaysOnTop())
	assert.Empty(t, fx.clock.Pending())

	m.PlaybackStopped()
	assert.Nil(t, fx.sched.Active())
	assert.Nil(t, fx.last(t))
	assert.False(t, fx.sched.HasAlwaysOnTop())
}

func TestPlaybackAutoHide(t *testing.T) {
	t.Parallel()

	fx, m, _ := newPlaybackFixture(t, 5, settings.BehaviorElapsed, movie)
	assert.False(t, m.IsAlwaysOnTop())
	require.Equal(t, m, fx.sched.Active())
	assert.Equal(t, []time.Duration{5 * time.Second}, fx.clock.Pending())

	fx.clock.Advance(5 * time.Second)
	assert.Nil(t, fx.sched.Active())
	assert.Nil(t, fx.last(t))
	assert.Empty(t, fx.clock.Pending())
}

func TestPlaybackLiveSourceIgnored(t *testing.T) {
	t.Parallel()

	s := movie
	s.File = "pvr://channels/tv/All channels/1.pvr"
	fx, m, _ := newPlaybackFixture(t, 0, settings.BehaviorElapsed, s)
	m.PlaybackStarted()
	assert.Nil(t, fx.sched.Active())
}

func TestPlaybackEvents(t *testing.T) {
	t.Parallel()

	fx, m, p := newPlaybackFixture(t, 0, settings.BehaviorElapsed, player.State{})
	assert.Nil(t, fx.sched.Active())

	p.Set(movie)
	m.PlaybackStarted()
	assert.Equal(t, m, fx.sched.Active())

	m.PlaybackEnded()
	assert.Nil(t, fx.sched.Active())

	m.PlaybackStarted()
	m.Enable(false)
	assert.Nil(t, fx.sched.Active())
	m.PlaybackStarted()
	assert.Nil(t, fx.sched.Active())
	m.Enable(true)
	assert.Equal(t, m, fx.sched.Active())
}

func TestPlaybackTitleError(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *settings.Config) { c.Mode.PlaybackTime.Enable = true })
	p := player.NewMock(movie)
	p.TitleErr = fmt.Errorf("no title")
	m := NewPlaybackTime(fx.env, p)
	require.Equal(t, m, fx.sched.Active())
	assert.Equal(t, byte(0), m.DataBuffer()[20])
}

func TestPlaybackSettingsDisable(t *testing.T) {
	t.Parallel()

	fx, m, _ := newPlaybackFixture(t, 0, settings.BehaviorElapsed, movie)
	require.Equal(t, m, fx.sched.Active())
	fx.conf.Update(func(c *settings.Config) { c.Mode.PlaybackTime.Enable = false })
	m.OnSettingsChanged()
	assert.Nil(t, fx.sched.Active())
}
