// Package cacheval is atomic value with validity timeout.
// "modified" timestamp is updated after value, without consistency.
// Used for values costly to refresh on every poll, like mount table scan.
// All methods except `Init` are thread-safe.
package cacheval

import (
	"sync/atomic"
	"time"

	"github.com/temoto/vfd/helpers/atomic_clock"
)

type Int32 struct {
	value   int32
	updated *atomic_clock.Clock
	valid   time.Duration
}

// Not thread-safe. `valid` duration cannot be changed later.
// Zero `valid` makes every GetOrUpdate refresh.
func (c *Int32) Init(valid time.Duration) {
	c.updated = atomic_clock.New(0)
	c.valid = valid
}

func (c *Int32) get(now int64) (int32, bool) {
	v := atomic.LoadInt32(&c.value)
	if c.updated.IsZero() {
		return v, false
	}
	age := atomic_clock.New(now).Sub(c.updated)
	return v, age >= 0 && age < c.valid
}

// Returns current (possibly stale) value.
func (c *Int32) Get() int32 { return atomic.LoadInt32(&c.value) }

// Returns current value and true if it's fresh.
func (c *Int32) GetFresh() (int32, bool) { return c.get(atomic_clock.Source()) }

// GetOrUpdate runs `f()` when value is stale, `f()` must call `Set()`.
// No cache stampede guard.
func (c *Int32) GetOrUpdate(f func()) int32 {
	v, ok := c.get(atomic_clock.Source())
	if !ok {
		f()
		v = atomic.LoadInt32(&c.value)
	}
	return v
}

// Invalidate forces refresh on next GetOrUpdate.
func (c *Int32) Invalidate() { c.updated.Set(0) }

func (c *Int32) Set(new int32) {
	atomic.StoreInt32(&c.value, new)
	c.updated.SetNow()
}
