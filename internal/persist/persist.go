// Package persist keeps small runtime state across restarts in crash-safe storage
// (extremofile writes main copy and backup with checksum).
package persist

import (
	"encoding"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/extremofile"
	"github.com/temoto/vfd/log2"
)

type Stater interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type storage interface {
	Read() ([]byte, error)
	io.Writer
}

// Persist with empty root is disabled: Load and Store do nothing.
type Persist struct {
	mu      sync.Mutex
	log     *log2.Log
	tag     string
	target  Stater
	storage storage
}

func (self *Persist) Init(tag string, target Stater, root string, log *log2.Log) {
	if target == nil || tag == "" {
		panic("code error persist Init tag or target empty")
	}
	self.tag = tag
	self.log = log
	self.target = target
	if root == "" {
		self.log.Debugf("persist %s disabled", tag)
		return
	}
	self.storage = extremofile.New(extremofile.Config{
		Dir:      filepath.Join(root, tag),
		DirPerm:  0755,
		FilePerm: 0644,
	})
}

func (self *Persist) Enabled() bool { return self.storage != nil }

// Load restores target. No saved data is not an error.
// Corrupt storage is logged and target is left as is, next Store overwrites it.
func (self *Persist) Load() error {
	if !self.Enabled() {
		return nil
	}
	self.mu.Lock()
	defer self.mu.Unlock()

	tbegin := time.Now()
	b, err := self.storage.Read()
	self.log.Debugf("persist %s read len=%d duration=%v", self.tag, len(b), time.Since(tbegin))
	switch {
	case extremofile.IsCorrupt(err):
		self.log.Errorf("persist %s corrupt, ignored", self.tag)
		return nil
	case b == nil:
		return errors.Annotatef(err, "persist %s read", self.tag)
	case err != nil:
		// backup copy was used
		self.log.Errorf("persist %s main copy err=%v", self.tag, err)
	}
	return errors.Annotatef(self.target.UnmarshalBinary(b), "persist %s decode", self.tag)
}

func (self *Persist) Store() error {
	if !self.Enabled() {
		return nil
	}
	self.mu.Lock()
	defer self.mu.Unlock()

	b, err := self.target.MarshalBinary()
	if err != nil {
		return errors.Annotatef(err, "persist %s encode", self.tag)
	}
	tbegin := time.Now()
	_, err = self.storage.Write(b)
	self.log.Debugf("persist %s write len=%d duration=%v", self.tag, len(b), time.Since(tbegin))
	return errors.Annotatef(err, "persist %s write", self.tag)
}
