package scanner

import (
	"errors"
	"sync"
)

// ErrDrained is returned when a collector is drained a second time.
var ErrDrained = errors.New("collector already drained")

// Collector gathers open ports reported by the workers of one pool.
type Collector struct {
	mu      sync.Mutex
	ports   []uint16
	drained bool
}

// NewCollector returns an empty collector with room for hint ports.
func NewCollector(hint int) *Collector {
	if hint < 0 {
		hint = 0
	}
	return &Collector{ports: make([]uint16, 0, hint)}
}

// Add appends one port. The lock is held only for the append.
func (c *Collector) Add(port uint16) {
	c.mu.Lock()
	c.ports = append(c.ports, port)
	c.mu.Unlock()
}

// Len returns the number of ports collected so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ports)
}

// Drain hands back the collected ports in arrival order. It must be called
// once, after every writer has finished.
func (c *Collector) Drain() ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drained {
		return nil, ErrDrained
	}
	c.drained = true
	out := c.ports
	c.ports = nil
	return out, nil
}
