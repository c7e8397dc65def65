// Package sink writes frames to the openvfd service endpoint.
package sink

import (
	"os"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/vfd/helpers"
	"github.com/temoto/vfd/internal/frame"
	"github.com/temoto/vfd/log2"
	"golang.org/x/sys/unix"
)

// Pipe opens endpoint for every push, fire and forget.
// Endpoint is usually FIFO created by the openvfd daemon; it is never created here.
// Open is non-blocking so absent reader yields ENXIO instead of hanging the scheduler.
type Pipe struct {
	mu   sync.Mutex
	log  *log2.Log
	path string
	last error
}

func NewPipe(path string, log *log2.Log) *Pipe {
	return &Pipe{path: path, log: log}
}

func (self *Pipe) Path() string { return self.path }

// Push writes b or single zero byte (clock) when b is nil. Errors are logged once per streak.
func (self *Pipe) Push(b []byte) {
	if b == nil {
		b = frame.Clock
	}
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.write(b)
	switch {
	case err != nil && self.last == nil:
		self.log.Error(errors.Annotatef(err, "vfd push path=%s", self.path))
	case err != nil:
		self.log.Debugf("vfd push path=%s err=%v", self.path, err)
	case self.last != nil:
		self.log.Infof("vfd push path=%s recovered", self.path)
	}
	self.last = err
}

func (self *Pipe) write(b []byte) error {
	fd, err := unix.Open(self.path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_TRUNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return errors.Trace(&os.PathError{Op: "open", Path: self.path, Err: err})
	}
	f := os.NewFile(uintptr(fd), self.path)
	err = helpers.WriteAll(f, b)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Trace(err)
}

// Mock records pushes.
type Mock struct {
	mu     sync.Mutex
	pushes [][]byte
}

func NewMock() *Mock { return &Mock{} }

func (self *Mock) Push(b []byte) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if b == nil {
		self.pushes = append(self.pushes, nil)
		return
	}
	self.pushes = append(self.pushes, append([]byte(nil), b...))
}

func (self *Mock) Pushes() [][]byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	ps := make([][]byte, len(self.pushes))
	copy(ps, self.pushes)
	return ps
}

func (self *Mock) Len() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return len(self.pushes)
}

// Last returns most recent push and false if there were none.
func (self *Mock) Last() ([]byte, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if len(self.pushes) == 0 {
		return nil, false
	}
	return self.pushes[len(self.pushes)-1], true
}

func (self *Mock) Reset() {
	self.mu.Lock()
	self.pushes = nil
	self.mu.Unlock()
}
