package settings

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/vfd/internal/persist"
	"github.com/temoto/vfd/log2"
)

// Overrides are runtime mode enable toggles which survive restart.
type Overrides struct {
	mu      sync.Mutex
	enabled map[string]bool
	persist persist.Persist
}

var _ persist.Stater = &Overrides{}

// NewOverrides with empty root keeps overrides in memory only.
func NewOverrides(root string, log *log2.Log) *Overrides {
	o := &Overrides{enabled: make(map[string]bool)}
	o.persist.Init("overrides", o, root, log)
	return o
}

func (self *Overrides) Load() error { return self.persist.Load() }

// Set stores toggle for mode name and writes it through.
func (self *Overrides) Set(mode string, on bool) error {
	self.mu.Lock()
	self.enabled[mode] = on
	self.mu.Unlock()
	return errors.Trace(self.persist.Store())
}

func (self *Overrides) Get(mode string) (on bool, ok bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	on, ok = self.enabled[mode]
	return
}

func (self *Overrides) Names() []string {
	self.mu.Lock()
	defer self.mu.Unlock()
	ns := make([]string, 0, len(self.enabled))
	for n := range self.enabled {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

func (self *Overrides) MarshalBinary() ([]byte, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	return json.Marshal(self.enabled)
}

func (self *Overrides) UnmarshalBinary(b []byte) error {
	m := make(map[string]bool)
	if err := json.Unmarshal(b, &m); err != nil {
		return errors.Annotate(err, "overrides decode")
	}
	self.mu.Lock()
	self.enabled = m
	self.mu.Unlock()
	return nil
}
