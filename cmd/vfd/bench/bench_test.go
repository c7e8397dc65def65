package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/vfd/internal/frame"
	"github.com/temoto/vfd/internal/sink"
	"github.com/temoto/vfd/log2"
)

func newTestBench(t testing.TB) (*Bench, *sink.Mock, *[]time.Duration) {
	m := sink.NewMock()
	b, err := New(m, "", log2.NewTest(t, log2.LDebug))
	require.NoError(t, err)
	sleeps := make([]time.Duration, 0)
	b.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return b, m, &sleeps
}

func TestExec(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		input  string
		expect func(testing.TB, [][]byte)
	}
	cases := []Case{
		{"clear", "clear", func(t testing.TB, pushes [][]byte) {
			require.Len(t, pushes, 1)
			assert.Nil(t, pushes[0])
		}},
		{"temp", "temp=41", func(t testing.TB, pushes [][]byte) {
			require.Len(t, pushes, 1)
			require.Len(t, pushes[0], frame.DeviceFrameSize)
			assert.Equal(t, []byte{byte(frame.ModeTemperature), 0, 0, 41}, pushes[0][:4])
		}},
		{"date", "date=0x12", func(t testing.TB, pushes [][]byte) {
			assert.Equal(t, [][]byte{{2, 6, 0x12}}, pushes)
		}},
		{"time", "time=1:02:03", func(t testing.TB, pushes [][]byte) {
			require.Len(t, pushes, 1)
			assert.Equal(t, []byte{byte(frame.ModePlaybackTime), 0, 1, 0}, pushes[0][:4])
			assert.Equal(t, []byte{3, 2, 1}, pushes[0][4:7])
			assert.Equal(t, []byte{3, 2, 1}, pushes[0][12:15])
		}},
		{"text-rest-of-line", "clear text=Hello  world loop=2", func(t testing.TB, pushes [][]byte) {
			require.Len(t, pushes, 2)
			assert.Nil(t, pushes[0])
			assert.Equal(t, "Hello  world loop=2\x00", string(pushes[1][20:40]))
		}},
		{"hex", "@0203 @00", func(t testing.TB, pushes [][]byte) {
			assert.Equal(t, [][]byte{{2, 3}, {0}}, pushes)
		}},
		{"loop", "loop=3 date=1", func(t testing.TB, pushes [][]byte) {
			assert.Len(t, pushes, 3)
		}},
		{"empty", "   ", func(t testing.TB, pushes [][]byte) {
			assert.Empty(t, pushes)
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			b, m, _ := newTestBench(t)
			require.NoError(t, b.Exec(c.input))
			c.expect(t, m.Pushes())
		})
	}
}

func TestExecError(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"temp=x", "date=300", "time=1:2:3:4", "@zz", "@", "sx", "bogus", "loop=2 loop=3"} {
		b, m, _ := newTestBench(t)
		assert.Error(t, b.Exec("clear "+input), "input=%s", input)
		assert.Equal(t, 0, m.Len(), "parse error must run nothing, input=%s", input)
	}
}

func TestPauseAndLog(t *testing.T) {
	t.Parallel()

	b, _, sleeps := newTestBench(t)
	require.NoError(t, b.Exec("s250 log=no"))
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, *sleeps)
	assert.False(t, b.Log.Enabled(log2.LDebug))
	require.NoError(t, b.Exec("log=yes"))
	assert.True(t, b.Log.Enabled(log2.LDebug))
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	for input, expect := range map[string]int{"5": 5, "1:05": 65, "2:00:01": 7201} {
		n, err := parseClock(input)
		require.NoError(t, err)
		assert.Equal(t, expect, n, "input=%s", input)
	}
}
