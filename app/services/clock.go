package services

import (
	"sync"
	"time"
)

// orderClock hands out millisecond timestamps that strictly increase within
// the process, so sequential submissions never share a createdAt.
type orderClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newOrderClock(now func() time.Time) *orderClock {
	if now == nil {
		now = time.Now
	}
	return &orderClock{now: now}
}

func (c *orderClock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}
