// Package bench is interactive tool to push raw frames into VFD service endpoint,
// bypassing layer scheduler.
package bench

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/vfd/internal/display"
	"github.com/temoto/vfd/internal/frame"
	"github.com/temoto/vfd/log2"
)

const Usage = `syntax: commands separated by whitespace
(main)
- clear      revert to built-in clock
- temp=N     temperature mode, N degrees
- date=F     date mode, format byte F
- time=H:M:S playback time mode
- text=...   playback time mode with title, takes rest of line
- @XX...     push raw bytes from hex XX...
- sN         pause N milliseconds

(meta)
- log=yes  enable debug logging
- log=no   disable debug logging
- loop=N   repeat N times all commands on this line
`

type Bench struct {
	Log   *log2.Log
	Sleep func(time.Duration)

	sink display.Sink
	text *frame.TextEncoder
}

type action struct {
	name string
	f    func() error
}

func New(sink display.Sink, codepage string, log *log2.Log) (*Bench, error) {
	text, err := frame.NewTextEncoder(codepage)
	if err != nil {
		return nil, errors.Annotatef(err, "codepage=%s", codepage)
	}
	return &Bench{Log: log, Sleep: time.Sleep, sink: sink, text: text}, nil
}

// Exec parses and runs one input line. Parse error runs nothing.
func (self *Bench) Exec(line string) error {
	actions, err := self.parseLine(line)
	if err != nil {
		return errors.Trace(err)
	}
	for _, a := range actions {
		self.Log.Debugf("bench %s", a.name)
		if err := a.f(); err != nil {
			return errors.Annotate(err, a.name)
		}
	}
	return nil
}

func (self *Bench) Executor() func(string) {
	return func(line string) {
		if err := self.Exec(line); err != nil {
			self.Log.Error(errors.ErrorStack(err))
		}
	}
}

func Completer() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "clear", Description: "revert to built-in clock"},
		{Text: "temp=", Description: "temperature mode"},
		{Text: "date=", Description: "date mode with format byte"},
		{Text: "time=", Description: "playback time H:M:S"},
		{Text: "text=", Description: "playback title, rest of line"},
		{Text: "@XX", Description: "push raw hex bytes"},
		{Text: "sN", Description: "pause for N ms"},
		{Text: "loop=N", Description: "repeat line N times"},
		{Text: "log=yes"},
		{Text: "log=no"},
		{Text: "help"},
	}
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
	}
}

func (self *Bench) parseLine(line string) ([]action, error) {
	line = strings.TrimSpace(line)
	rest := ""
	if i := strings.Index(line, "text="); i >= 0 && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t') {
		line, rest = line[:i], line[i:]
	}
	words := strings.Fields(line)
	if rest != "" {
		words = append(words, rest)
	}

	loopn := 0
	actions := make([]action, 0, len(words))
	for _, word := range words {
		switch {
		case word == "help":
			return []action{{name: "help", f: func() error { self.Log.Infof(Usage); return nil }}}, nil
		case strings.HasPrefix(word, "loop="):
			if loopn != 0 {
				return nil, errors.Errorf("multiple loop commands, expected at most one")
			}
			n, err := strconv.ParseUint(word[5:], 10, 16)
			if err != nil {
				return nil, errors.Annotatef(err, "word=%s", word)
			}
			loopn = int(n)
		default:
			a, err := self.parseCommand(word)
			if err != nil {
				return nil, err
			}
			actions = append(actions, a)
		}
	}
	if loopn > 1 {
		one := actions
		for i := 1; i < loopn; i++ {
			actions = append(actions, one...)
		}
	}
	return actions, nil
}

func (self *Bench) parseCommand(word string) (action, error) {
	push := func(b []byte) func() error {
		return func() error { self.sink.Push(b); return nil }
	}
	switch {
	case word == "clear":
		return action{word, push(nil)}, nil
	case word == "log=yes":
		return action{word, func() error { self.Log.SetLevel(log2.LDebug); return nil }}, nil
	case word == "log=no":
		return action{word, func() error { self.Log.SetLevel(log2.LError); return nil }}, nil
	case strings.HasPrefix(word, "temp="):
		n, err := strconv.Atoi(word[5:])
		if err != nil {
			return action{}, errors.Annotatef(err, "word=%s", word)
		}
		f := frame.DeviceFrame{Mode: frame.ModeTemperature, Temperature: n}
		return action{word, push(f.Encode())}, nil
	case strings.HasPrefix(word, "date="):
		n, err := strconv.ParseUint(word[5:], 0, 8)
		if err != nil {
			return action{}, errors.Annotatef(err, "word=%s", word)
		}
		return action{word, push(frame.NewDateFrame(byte(n)).Encode())}, nil
	case strings.HasPrefix(word, "time="):
		secs, err := parseClock(word[5:])
		if err != nil {
			return action{}, errors.Annotatef(err, "word=%s", word)
		}
		f := frame.DeviceFrame{Mode: frame.ModePlaybackTime, ColonOn: true}
		f.TimePrimary.SetSeconds(secs)
		f.TimeSecondary.SetSeconds(secs)
		return action{word, push(f.Encode())}, nil
	case strings.HasPrefix(word, "text="):
		f := frame.DeviceFrame{Mode: frame.ModePlaybackTime, ColonOn: true, Main: self.text.Encode(word[5:])}
		return action{"text", push(f.Encode())}, nil
	case word[0] == '@':
		b, err := hex.DecodeString(word[1:])
		if err != nil {
			return action{}, errors.Annotatef(err, "word=%s", word)
		}
		if len(b) == 0 {
			return action{}, errors.NotValidf("word=%s empty", word)
		}
		return action{word, push(b)}, nil
	case word[0] == 's':
		ms, err := strconv.ParseUint(word[1:], 10, 32)
		if err != nil {
			return action{}, errors.Annotatef(err, "word=%s", word)
		}
		d := time.Duration(ms) * time.Millisecond
		return action{word, func() error { self.Sleep(d); return nil }}, nil
	}
	return action{}, errors.NotSupportedf("word=%s", word)
}

// parseClock accepts H:M:S, M:S or S.
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, errors.NotValidf("time=%s", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return 0, errors.Trace(err)
		}
		total = total*60 + int(n)
	}
	return total, nil
}
