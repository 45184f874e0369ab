package device

import (
	"fmt"
	"sync"
)

// Arena is a memory accountant with a fixed byte budget. It is exclusively
// owned by whoever created it; reservations are charged against the budget
// and given back with Free or, all at once, with Release. An arena never
// hands out more than its budget
type Arena struct {
	mu     sync.Mutex
	budget int64
	used   int64
}

// NewArena returns an arena with the given budget in bytes
func NewArena(budget int64) *Arena {
	return &Arena{budget: budget}
}

// Budget returns the fixed byte budget
func (a *Arena) Budget() int64 {
	return a.budget
}

// Used returns the number of bytes currently reserved
func (a *Arena) Used() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Free returns the number of bytes still available
func (a *Arena) Free() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.budget - a.used
}

// Reserve charges n bytes against the budget. It fails with ErrAllocation
// when the remaining budget is smaller than n, leaving the arena unchanged
func (a *Arena) Reserve(n int64) error {
	if n < 0 {
		return fmt.Errorf("reserve %d bytes: negative size", n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.used+n > a.budget {
		return fmt.Errorf("reserve %d bytes with %d of %d in use: %w",
			n, a.used, a.budget, ErrAllocation)
	}
	a.used += n
	return nil
}

// Release returns every reserved byte to the arena, keeping the budget for
// reuse
func (a *Arena) Release() {
	a.mu.Lock()
	a.used = 0
	a.mu.Unlock()
}
