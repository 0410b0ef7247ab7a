// Package cycle tracks which catalog effect is current.
package cycle

import "fmt"

// Cycle walks the catalog indices 0..size-1 and wraps around.
type Cycle struct {
	index int
	size  int
}

// New returns a cycle over size effects starting at start (taken modulo size).
func New(size, start int) (*Cycle, error) {
	if size < 1 {
		return nil, fmt.Errorf("cycle needs at least one effect, got %d", size)
	}
	return &Cycle{index: mod(start, size), size: size}, nil
}

// Current returns the current index.
func (c *Cycle) Current() int { return c.index }

// Size returns the number of effects in the cycle.
func (c *Cycle) Size() int { return c.size }

// Advance moves to the next effect and returns its index.
func (c *Cycle) Advance() int {
	c.index = (c.index + 1) % c.size
	return c.index
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
