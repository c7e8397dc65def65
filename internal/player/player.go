// Package player mirrors media center playback state and dispatches lifecycle events.
package player

import (
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/vfd/helpers/atomic_clock"
	"github.com/temoto/vfd/internal/display"
	"github.com/temoto/vfd/log2"
)

// Player is query surface used by display modes and indicators.
type Player interface {
	IsPlaying() bool
	IsPaused() bool
	IsPlayingVideo() bool
	IsPlayingAudio() bool
	Time() float64
	TotalTime() float64
	PlayingFile() string
	VideoTitle() (string, error)
	MusicTitle() (string, error)
	Window() string
}

const LiveSourcePrefix = "pvr://"

// IsLive reports live broadcast source, playback time is meaningless for it.
func IsLive(file string) bool { return strings.HasPrefix(file, LiveSourcePrefix) }

type Kind string

const (
	KindNone  Kind = ""
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// State is one snapshot reported by media center bridge.
type State struct {
	Event     string  `json:"event,omitempty"` // optional hint: started, stopped, ended
	Playing   bool    `json:"playing"`
	Paused    bool    `json:"paused"`
	Kind      Kind    `json:"kind"`
	Time      float64 `json:"time"`
	TotalTime float64 `json:"total_time"`
	File      string  `json:"file"`
	Title     string  `json:"title"`
	Window    string  `json:"window"`
}

// Cache is Player fed by external transport, safe for concurrent use.
// Time is extrapolated from last feed while playing and not paused.
type Cache struct {
	mu        sync.Mutex
	log       *log2.Log
	state     State
	updated   atomic_clock.Clock
	observers []display.PlaybackObserver
	now       func() int64
}

var _ Player = &Cache{}

func NewCache(log *log2.Log) *Cache {
	return &Cache{log: log, now: atomic_clock.Source}
}

func (self *Cache) Subscribe(o display.PlaybackObserver) {
	self.mu.Lock()
	self.observers = append(self.observers, o)
	self.mu.Unlock()
}

// Feed stores new state and notifies observers about transitions.
// Observers are called without lock held.
func (self *Cache) Feed(s State) {
	self.mu.Lock()
	prev := self.state
	self.state = s
	self.updated.Set(self.now())
	observers := append([]display.PlaybackObserver(nil), self.observers...)
	self.mu.Unlock()

	event := s.Event
	if event == "" {
		switch {
		case s.Playing && (!prev.Playing || s.File != prev.File):
			event = "started"
		case !s.Playing && prev.Playing:
			event = "stopped"
		}
	}
	if event == "" {
		return
	}
	self.log.Debugf("player event=%s file=%s", event, s.File)
	for _, o := range observers {
		switch event {
		case "started":
			o.PlaybackStarted()
		case "stopped":
			o.PlaybackStopped()
		case "ended":
			o.PlaybackEnded()
		default:
			self.log.Errorf("player unknown event=%s", event)
			return
		}
	}
}

func (self *Cache) State() State {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state
}

func (self *Cache) IsPlaying() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state.Playing
}

func (self *Cache) IsPaused() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state.Playing && self.state.Paused
}

func (self *Cache) IsPlayingVideo() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state.Playing && self.state.Kind == KindVideo
}

func (self *Cache) IsPlayingAudio() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state.Playing && self.state.Kind == KindAudio
}

func (self *Cache) Time() float64 {
	self.mu.Lock()
	defer self.mu.Unlock()
	t := self.state.Time
	if self.state.Playing && !self.state.Paused && !self.updated.IsZero() {
		t += self.updated.Seconds(self.now())
		if total := self.state.TotalTime; total > 0 && t > total {
			t = total
		}
	}
	return t
}

func (self *Cache) TotalTime() float64 {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state.TotalTime
}

func (self *Cache) PlayingFile() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state.File
}

func (self *Cache) VideoTitle() (string, error) { return self.title(KindVideo) }
func (self *Cache) MusicTitle() (string, error) { return self.title(KindAudio) }

func (self *Cache) Window() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state.Window
}

func (self *Cache) title(kind Kind) (string, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if !self.state.Playing || self.state.Kind != kind {
		return "", errors.NotFoundf("%s info tag", kind)
	}
	return self.state.Title, nil
}
