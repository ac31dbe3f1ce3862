package dirty

import "math/bits"

// Set is a bitmap with one bit per tile.
type Set struct {
	words []uint32
	total int
}

// NewSet returns an empty set sized for grid.
func NewSet(grid Grid) *Set {
	return &Set{
		words: make([]uint32, grid.Words()),
		total: grid.Total(),
	}
}

// Add marks tile idx. Out-of-range indices are ignored.
func (s *Set) Add(idx int) {
	if idx < 0 || idx >= s.total {
		return
	}
	s.words[idx/32] |= 1 << (idx % 32)
}

// Has reports whether tile idx is in the set.
func (s *Set) Has(idx int) bool {
	if idx < 0 || idx >= s.total {
		return false
	}
	return s.words[idx/32]&(1<<(idx%32)) != 0
}

// Count returns the number of tiles in the set.
func (s *Set) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount32(w)
	}
	return n
}

// Empty reports whether no tile is set.
func (s *Set) Empty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Clear removes every tile.
func (s *Set) Clear() {
	clear(s.words)
}

// ForEach calls fn for every tile in ascending index order.
func (s *Set) ForEach(fn func(idx int)) {
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros32(w)
			fn(i*32 + b)
			w &= w - 1
		}
	}
}

// Indices returns the tiles in ascending order.
func (s *Set) Indices() []int {
	out := make([]int, 0, s.Count())
	s.ForEach(func(idx int) {
		out = append(out, idx)
	})
	return out
}

// Len returns the number of tiles the set can hold.
func (s *Set) Len() int {
	return s.total
}
