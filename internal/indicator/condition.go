package indicator

import (
	"bufio"
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/temoto/vfd/helpers/cacheval"
	"github.com/temoto/vfd/internal/player"
)

// Icon is fixed value, may be switched by settings.
type Icon struct{ v uint32 }

func NewIcon(on bool) *Icon {
	i := &Icon{}
	i.Set(on)
	return i
}

func (self *Icon) Value() bool { return atomic.LoadUint32(&self.v) == 1 }
func (self *Icon) TurnOn()     { self.Set(true) }
func (self *Icon) TurnOff()    { self.Set(false) }
func (self *Icon) Set(on bool) {
	var v uint32
	if on {
		v = 1
	}
	atomic.StoreUint32(&self.v, v)
}

// Playing is on while media plays and is not paused.
type Playing struct{ Player player.Player }

func (self Playing) Value() bool { return self.Player.IsPlaying() && !self.Player.IsPaused() }

type Paused struct{ Player player.Player }

func (self Paused) Value() bool { return self.Player.IsPaused() }

// FileContains is on when file content (trimmed) equals any of values.
// Missing or unreadable file is off.
type FileContains struct {
	Path     string
	Values   []string
	readFile func(string) ([]byte, error)
}

func NewFileContains(path string, values ...string) *FileContains {
	return &FileContains{Path: path, Values: values, readFile: ioutil.ReadFile}
}

func (self *FileContains) Value() bool {
	b, err := self.readFile(self.Path)
	if err != nil {
		return false
	}
	s := strings.TrimSpace(string(b))
	for _, v := range self.Values {
		if s == v {
			return true
		}
	}
	return false
}

// Window is on when active GUI window is one of names.
type Window struct {
	Player player.Player
	Names  []string
}

func (self Window) Value() bool {
	w := self.Player.Window()
	if w == "" {
		return false
	}
	for _, n := range self.Names {
		if w == n {
			return true
		}
	}
	return false
}

// StoragePresent is on when any device node with Prefix exists.
type StoragePresent struct {
	Prefix string
	glob   func(string) ([]string, error)
}

func NewStoragePresent(prefix string) *StoragePresent {
	return &StoragePresent{Prefix: prefix, glob: filepath.Glob}
}

func (self *StoragePresent) Value() bool {
	ms, err := self.glob(self.Prefix + "*")
	return err == nil && len(ms) > 0
}

// System partitions of the box itself, not counted as external storage.
var systemMounts = []string{"/", "/flash", "/storage"}

// StorageMounted counts external block devices mounted with Mode option (e.g. rw).
// Mount table scan result is cached for `valid` duration.
type StorageMounted struct {
	Mode     string
	Prefixes []string
	path     string
	readFile func(string) ([]byte, error)
	count    cacheval.Int32
}

func NewStorageMounted(mode, mountsPath string, valid time.Duration, prefixes ...string) *StorageMounted {
	self := &StorageMounted{Mode: mode, Prefixes: prefixes, path: mountsPath, readFile: ioutil.ReadFile}
	self.count.Init(valid)
	return self
}

func (self *StorageMounted) Value() bool { return self.Count() > 0 }

func (self *StorageMounted) Count() int {
	return int(self.count.GetOrUpdate(func() { self.count.Set(int32(self.scan())) }))
}

func (self *StorageMounted) scan() int {
	b, err := self.readFile(self.path)
	if err != nil {
		return 0
	}
	n := 0
	s := bufio.NewScanner(bytes.NewReader(b))
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 4 {
			continue
		}
		dev, point, opts := fields[0], fields[1], fields[3]
		if !hasAnyPrefix(dev, self.Prefixes) || isSystemMount(point) {
			continue
		}
		if self.Mode == "" || hasOption(opts, self.Mode) {
			n++
		}
	}
	return n
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func hasOption(opts, opt string) bool {
	for _, o := range strings.Split(opts, ",") {
		if o == opt {
			return true
		}
	}
	return false
}

func isSystemMount(point string) bool {
	for _, m := range systemMounts {
		if point == m {
			return true
		}
	}
	return false
}
