// Package snapshot owns the buffers the renderer reads from while the producer keeps writing
// to the live framebuffer.
//
// Buffers are charged against a Budget so that allocation failure at start-up can be
// reported instead of crashing. An Arena holds the whole-frame current and previous buffers
// used by comparison-based dirty detection, and a TileSnapshot holds the single-tile copy
// taken right before a tile is rendered.
package snapshot

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfMemory indicates an allocation that would exceed the memory budget.
var ErrOutOfMemory = errors.New("out of memory")

// Budget limits the total number of bytes allocated for frame buffers.
type Budget struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewBudget returns a budget of limit bytes. A limit of zero or less is unlimited.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// Reserve charges n bytes against the budget.
func (b *Budget) Reserve(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative size %d", ErrOutOfMemory, n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit > 0 && b.used+n > b.limit {
		return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrOutOfMemory, n, b.used, b.limit)
	}
	b.used += n
	return nil
}

// Alloc reserves n bytes and returns a zeroed buffer of that size.
func (b *Budget) Alloc(n int) ([]byte, error) {
	if err := b.Reserve(n); err != nil {
		return nil, err
	}
	return make([]byte, n), nil
}

// Release returns n bytes to the budget.
func (b *Budget) Release(n int) {
	b.mu.Lock()
	b.used = max(b.used-n, 0)
	b.mu.Unlock()
}

// Used returns the number of bytes currently reserved.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Limit returns the budget size, or 0 when unlimited.
func (b *Budget) Limit() int {
	return b.limit
}
