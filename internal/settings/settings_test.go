package settings

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/vfd/log2"
)

func TestParse(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, *Config)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, c *Config) {
			assert.Equal(t, Default(), c)
		}, ""},

		{"modes", `
mode {
	temperature { interval_sec = 10  duration_sec = 3 }
	date { interval_sec = 20  duration_sec = 4  format = 2 }
	playback_time { enable = false  duration_sec = 5  behavior = 1  codepage = "cp1251" }
}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, 10, c.Mode.Temperature.IntervalSec)
				assert.Equal(t, 3, c.Mode.Temperature.DurationSec)
				assert.Equal(t, "/sys/class/thermal/thermal_zone0/temp", c.Mode.Temperature.Sensor, "default kept")
				assert.Equal(t, 2, c.Mode.Date.Format)
				assert.False(t, c.Mode.PlaybackTime.Enable)
				assert.Equal(t, BehaviorElapsed, c.Mode.PlaybackTime.Behavior)
				assert.Equal(t, "cp1251", c.Mode.PlaybackTime.Codepage)
			},
			"",
		},

		{"display", `
display { on = false  brightness = 3  advanced = true  display_type = 16  character_order = [1, 2, 3, 4, 5, 6, 0] }
indicator { storage = true  storage_icon = "sd" }
poll_ms = 250`,
			func(t testing.TB, c *Config) {
				assert.False(t, c.Display.On)
				assert.Equal(t, 3, c.Display.Brightness)
				assert.True(t, c.Display.Advanced)
				assert.Equal(t, 16, c.Display.DisplayType)
				assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 0}, c.CharacterIndexes())
				assert.True(t, c.Indicator.Storage)
				assert.Equal(t, "sd", c.Indicator.StorageIcon)
				assert.Equal(t, 250, c.PollMs)
			},
			"",
		},

		{"invalid-behavior", `mode { playback_time { behavior = 3 } }`, nil, "behavior=3"},
		{"invalid-negative", `mode { date { interval_sec = -1 } }`, nil, "interval_sec=-1"},
		{"syntax", `mode {`, nil, "config unmarshal"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			cfg, err := Parse([]byte(c.input))
			if c.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.expectErr)
				return
			}
			require.NoError(t, err)
			c.check(t, cfg)
		})
	}
}

func TestStoreReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "vfd.hcl")
	s := NewStore(path, log2.NewTest(t, log2.LDebug))

	require.NoError(t, s.Reload(), "missing file is defaults")
	assert.Equal(t, Default(), s.Config())
	assert.False(t, s.Changed())

	require.NoError(t, ioutil.WriteFile(path, []byte(`mode { date { format = 1 } }`), 0644))
	assert.True(t, s.Changed())
	require.NoError(t, s.Reload())
	assert.Equal(t, 1, s.Config().Mode.Date.Format)
	assert.False(t, s.Changed())

	// bad content keeps previous snapshot
	require.NoError(t, ioutil.WriteFile(path, []byte(`mode { date { format = 1000 } }`), 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	assert.True(t, s.Changed())
	require.Error(t, s.Reload())
	assert.Equal(t, 1, s.Config().Mode.Date.Format)
	assert.False(t, s.Changed(), "failed file is not re-read until modified again")

	require.NoError(t, os.Remove(path))
	assert.True(t, s.Changed())
}

func TestStaticUpdate(t *testing.T) {
	t.Parallel()

	s := NewStatic(nil)
	before := s.Config()
	s.Update(func(c *Config) {
		c.Mode.Date.Format = 3
		c.Display.CharacterOrder[0] = 9
	})
	assert.Equal(t, 0, before.Mode.Date.Format, "snapshot is immutable")
	assert.Equal(t, 0, before.Display.CharacterOrder[0])
	assert.Equal(t, 3, s.Config().Mode.Date.Format)
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	log := log2.NewTest(t, log2.LDebug)
	o := NewOverrides(root, log)
	require.NoError(t, o.Load())
	assert.Empty(t, o.Names())

	require.NoError(t, o.Set("date", false))
	require.NoError(t, o.Set("temperature", true))

	o2 := NewOverrides(root, log)
	require.NoError(t, o2.Load())
	assert.Equal(t, []string{"date", "temperature"}, o2.Names())
	on, ok := o2.Get("date")
	assert.True(t, ok)
	assert.False(t, on)
	_, ok = o2.Get("playback_time")
	assert.False(t, ok)
}

func TestOverridesMemory(t *testing.T) {
	t.Parallel()

	o := NewOverrides("", log2.NewTest(t, log2.LDebug))
	require.NoError(t, o.Load())
	require.NoError(t, o.Set("date", true))
	on, ok := o.Get("date")
	assert.True(t, ok && on)
}
