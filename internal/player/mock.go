package player

import (
	"sync"

	"github.com/juju/errors"
)

// Mock is Player with fixed state, time does not run.
type Mock struct {
	mu       sync.Mutex
	state    State
	TitleErr error
}

var _ Player = &Mock{}

func NewMock(s State) *Mock { return &Mock{state: s} }

func (self *Mock) Set(s State) {
	self.mu.Lock()
	self.state = s
	self.mu.Unlock()
}

func (self *Mock) get() State {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state
}

func (self *Mock) IsPlaying() bool      { return self.get().Playing }
func (self *Mock) IsPaused() bool       { s := self.get(); return s.Playing && s.Paused }
func (self *Mock) IsPlayingVideo() bool { s := self.get(); return s.Playing && s.Kind == KindVideo }
func (self *Mock) IsPlayingAudio() bool { s := self.get(); return s.Playing && s.Kind == KindAudio }
func (self *Mock) Time() float64        { return self.get().Time }
func (self *Mock) TotalTime() float64   { return self.get().TotalTime }
func (self *Mock) PlayingFile() string  { return self.get().File }
func (self *Mock) Window() string       { return self.get().Window }

func (self *Mock) VideoTitle() (string, error) {
	if self.TitleErr != nil {
		return "", errors.Trace(self.TitleErr)
	}
	return self.get().Title, nil
}

func (self *Mock) MusicTitle() (string, error) { return self.VideoTitle() }
