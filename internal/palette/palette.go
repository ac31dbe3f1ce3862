// Package palette implements the 256-entry colour lookup table that maps palette indices to
// display-native colours.
//
// Colours are stored as byte-swapped RGB565 ("swap565"), the order the panel driver expects
// when pixels are streamed as little-endian 16-bit words:
//   - low byte:  RRRRRGGG (red in bits 7-3, green high bits in 2-0)
//   - high byte: GGGBBBBB (green low bits in 7-5, blue in 4-0)
package palette

import (
	"sync"
	"sync/atomic"

	"github.com/richardwooding/tilecomp/internal/pixel"
)

// Size is the number of entries in a palette table.
const Size = 256

// Color is a display-native swap565 colour.
type Color uint16

// FromRGB converts an 8-bit-per-channel colour to swap565.
func FromRGB(r, g, b uint8) Color {
	lo := uint16(r>>3)<<3 | uint16(g>>5)
	hi := uint16(g>>2)<<5 | uint16(b>>3)
	return Color(lo | hi<<8)
}

// Native returns the colour as conventional (unswapped) RGB565.
func (c Color) Native() uint16 {
	return uint16(c)<<8 | uint16(c)>>8
}

// RGB expands the colour back to 8 bits per channel. Low bits are filled by replicating the
// high bits so white stays white.
func (c Color) RGB() (r, g, b uint8) {
	n := c.Native()
	r5 := uint8(n >> 11 & 0x1F) //nolint:gosec // masked to 5 bits
	g6 := uint8(n >> 5 & 0x3F)  //nolint:gosec // masked to 6 bits
	b5 := uint8(n & 0x1F)       //nolint:gosec // masked to 5 bits
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// Table is a palette guarded by a short critical section. Writers hold the lock only while
// entries are updated and readers only while the 256 entries are copied.
type Table struct {
	mu      sync.Mutex
	entries [Size]Color
	version atomic.Uint64
}

// NewTable returns a table initialised with the 8-bit default palette.
func NewTable() *Table {
	t := &Table{}
	t.Load(Defaults(pixel.Depth8))
	return t
}

// Set loads n RGB triplets from rgb (r0 g0 b0 r1 g1 b1 ...). Entries beyond 256 or beyond the
// supplied data are ignored.
func (t *Table) Set(rgb []byte, n int) {
	n = min(n, Size, len(rgb)/3)
	if n <= 0 {
		return
	}

	t.mu.Lock()
	for i := 0; i < n; i++ {
		t.entries[i] = FromRGB(rgb[i*3], rgb[i*3+1], rgb[i*3+2])
	}
	t.mu.Unlock()
	t.version.Add(1)
}

// SetEntry sets a single entry. Out-of-range indices are ignored.
func (t *Table) SetEntry(i int, c Color) {
	if i < 0 || i >= Size {
		return
	}
	t.mu.Lock()
	t.entries[i] = c
	t.mu.Unlock()
	t.version.Add(1)
}

// Load replaces the first len(colors) entries.
func (t *Table) Load(colors []Color) {
	if len(colors) == 0 {
		return
	}
	t.mu.Lock()
	copy(t.entries[:], colors)
	t.mu.Unlock()
	t.version.Add(1)
}

// SetGamma is accepted for interface compatibility. Indexed modes apply gamma through the
// palette itself, so the table is left unchanged.
func (t *Table) SetGamma(_ []byte, _ int) {}

// Copy copies the whole table into dst.
func (t *Table) Copy(dst *[Size]Color) {
	t.mu.Lock()
	*dst = t.entries
	t.mu.Unlock()
}

// Entry returns entry i, or 0 when i is out of range.
func (t *Table) Entry(i int) Color {
	if i < 0 || i >= Size {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[i]
}

// Version increases every time the table is mutated.
func (t *Table) Version() uint64 {
	return t.version.Load()
}
