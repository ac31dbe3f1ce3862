package snapshot

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Arena is a fixed set of equally sized frame buffers. One slot is "current" and the slot
// before it is "previous"; Swap advances the generation so the roles rotate without copying.
//
// Only the consumer touches an arena.
type Arena struct {
	slots  [][]byte
	size   int
	gen    atomic.Uint32
	budget *Budget
}

// NewArena allocates n slots of size bytes from budget. n must be at least 2.
func NewArena(budget *Budget, n, size int) (*Arena, error) {
	if n < 2 {
		return nil, errors.New("arena needs at least two slots")
	}
	a := &Arena{
		slots:  make([][]byte, 0, n),
		size:   size,
		budget: budget,
	}
	for i := 0; i < n; i++ {
		buf, err := budget.Alloc(size)
		if err != nil {
			a.Release()
			return nil, fmt.Errorf("arena slot %d: %w", i, err)
		}
		a.slots = append(a.slots, buf)
	}
	return a, nil
}

func (a *Arena) index(offset uint32) int {
	n := uint32(len(a.slots)) //nolint:gosec // slot count is small
	return int((a.gen.Load() + n - offset) % n)
}

// Current returns the slot the next capture writes into.
func (a *Arena) Current() []byte {
	return a.slots[a.index(0)]
}

// Previous returns the slot captured before Current.
func (a *Arena) Previous() []byte {
	return a.slots[a.index(1)]
}

// Swap makes the current slot the previous one.
func (a *Arena) Swap() {
	a.gen.Add(1)
}

// Generation returns the number of swaps so far.
func (a *Arena) Generation() uint32 {
	return a.gen.Load()
}

// Capture copies src into the current slot and returns it.
func (a *Arena) Capture(src []byte) []byte {
	cur := a.Current()
	n := copy(cur, src)
	clear(cur[n:])
	return cur
}

// Size returns the size of each slot.
func (a *Arena) Size() int {
	return a.size
}

// Release returns every slot to the budget. The arena must not be used afterwards.
func (a *Arena) Release() {
	for range a.slots {
		a.budget.Release(a.size)
	}
	a.slots = nil
}
