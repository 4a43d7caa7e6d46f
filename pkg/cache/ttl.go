package cache

import (
	"sync"
	"time"

	timeutils "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/time"
)

// TTL holds a single value for a fixed lifetime. A zero or negative ttl
// disables caching: Get always misses and SetIfCurrent is a no-op.
type TTL[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   timeutils.Clock
	value   T
	expires time.Time
	set     bool
	gen     uint64
}

func NewTTL[T any](ttl time.Duration, clock timeutils.Clock) *TTL[T] {
	if clock == nil {
		clock = timeutils.SystemClock()
	}
	return &TTL[T]{ttl: ttl, clock: clock}
}

func (c *TTL[T]) Enabled() bool {
	return c != nil && c.ttl > 0
}

func (c *TTL[T]) Get() (T, bool) {
	var zero T
	if !c.Enabled() {
		return zero, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set || !c.clock.Now().Before(c.expires) {
		return zero, false
	}
	return c.value, true
}

// Generation changes on every Invalidate. Callers that compute a value slowly
// read it first and hand it to SetIfCurrent.
func (c *TTL[T]) Generation() uint64 {
	if c == nil {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// SetIfCurrent stores v only when no Invalidate happened since gen was read.
func (c *TTL[T]) SetIfCurrent(v T, gen uint64) bool {
	if !c.Enabled() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.value = v
	c.expires = c.clock.Now().Add(c.ttl)
	c.set = true
	return true
}

func (c *TTL[T]) Invalidate() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.set = false
	c.gen++
}
