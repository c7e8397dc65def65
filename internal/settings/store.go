// Package settings is read-only settings surface for display modes and the service.
package settings

import (
	"io/ioutil"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/vfd/log2"
)

// Provider returns current snapshot. Callers must not modify it.
type Provider interface {
	Config() *Config
}

// Source is Provider backed by something that may change underneath.
type Source interface {
	Provider
	Reload() error
	Changed() bool
}

// Store reads HCL file, keeps last good snapshot.
type Store struct {
	log   *log2.Log
	path  string
	v     atomic.Value // *Config
	mu    sync.Mutex
	mtime time.Time
	size  int64
}

var _ Source = &Store{}

func NewStore(path string, log *log2.Log) *Store {
	s := &Store{path: path, log: log}
	s.v.Store(Default())
	return s
}

func (self *Store) Path() string { return self.path }

func (self *Store) Config() *Config { return self.v.Load().(*Config) }

// Reload reads file. Missing file means defaults.
// On parse or validation error previous snapshot is kept.
func (self *Store) Reload() error {
	self.mu.Lock()
	defer self.mu.Unlock()

	fi, err := os.Stat(self.path)
	if os.IsNotExist(err) {
		self.log.Noticef("config path=%s not found, using defaults", self.path)
		self.mtime, self.size = time.Time{}, 0
		self.v.Store(Default())
		return nil
	}
	if err != nil {
		return errors.Annotatef(err, "config stat path=%s", self.path)
	}
	b, err := ioutil.ReadFile(self.path)
	if err != nil {
		return errors.Annotatef(err, "config read path=%s", self.path)
	}
	self.mtime, self.size = fi.ModTime(), fi.Size()
	c, err := Parse(b)
	if err != nil {
		return errors.Annotatef(err, "config path=%s", self.path)
	}
	self.v.Store(c)
	self.log.Debugf("config loaded path=%s %s", self.path, c.String())
	return nil
}

// Changed reports whether file was modified since last Reload.
func (self *Store) Changed() bool {
	self.mu.Lock()
	defer self.mu.Unlock()

	fi, err := os.Stat(self.path)
	if err != nil {
		return !self.mtime.IsZero()
	}
	return !fi.ModTime().Equal(self.mtime) || fi.Size() != self.size
}

// Static is in-memory Source for tests and tools, it never changes by itself.
type Static struct{ v atomic.Value }

func NewStatic(c *Config) *Static {
	if c == nil {
		c = Default()
	}
	s := &Static{}
	s.v.Store(c)
	return s
}

func (self *Static) Config() *Config { return self.v.Load().(*Config) }
func (self *Static) Set(c *Config)   { self.v.Store(c) }
func (self *Static) Reload() error   { return nil }
func (self *Static) Changed() bool   { return false }

// Update applies f to a copy of current config and stores it.
func (self *Static) Update(f func(*Config)) {
	c := *self.Config()
	c.Display.CharacterOrder = append([]int(nil), c.Display.CharacterOrder...)
	f(&c)
	self.v.Store(&c)
}
