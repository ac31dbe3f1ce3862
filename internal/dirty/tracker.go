package dirty

import (
	"math/bits"
	"sync/atomic"

	"github.com/richardwooding/tilecomp/internal/pixel"
)

// Tracker accumulates write-time dirty marks.
//
// Mark methods are called from the producer's write path: they never block and never fail,
// and out-of-range input is ignored. Drain may run concurrently with them; each accumulator
// word is read and cleared with a single atomic swap so no mark is lost.
type Tracker struct {
	grid    Grid
	acc     []atomic.Uint32
	layout  atomic.Pointer[pixel.Layout]
	enabled atomic.Bool
}

// NewTracker returns an enabled tracker for grid using layout to map byte offsets to pixels.
func NewTracker(grid Grid, layout pixel.Layout) *Tracker {
	t := &Tracker{
		grid: grid,
		acc:  make([]atomic.Uint32, grid.Words()),
	}
	t.SetLayout(layout)
	t.enabled.Store(true)
	return t
}

// Grid returns the tile grid.
func (t *Tracker) Grid() Grid {
	return t.grid
}

// SetLayout publishes a new source layout. Marks already accumulated are kept.
func (t *Tracker) SetLayout(layout pixel.Layout) {
	l := layout
	t.layout.Store(&l)
}

// Layout returns the layout currently used for marking.
func (t *Tracker) Layout() pixel.Layout {
	return *t.layout.Load()
}

// SetEnabled turns write-time tracking on or off. While off, mark calls are no-ops.
func (t *Tracker) SetEnabled(on bool) {
	t.enabled.Store(on)
}

// Enabled reports whether write-time tracking is on.
func (t *Tracker) Enabled() bool {
	return t.enabled.Load()
}

// MarkTile marks a single tile.
func (t *Tracker) MarkTile(idx int) {
	if idx < 0 || idx >= t.grid.Total() {
		return
	}
	t.acc[idx/32].Or(1 << (idx % 32))
}

// MarkAll marks every tile.
func (t *Tracker) MarkAll() {
	for idx := 0; idx < t.grid.Total(); idx++ {
		t.acc[idx/32].Or(1 << (idx % 32))
	}
}

// markSpan marks tile columns colStart..colEnd in tile rows rowStart..rowEnd.
func (t *Tracker) markSpan(colStart, colEnd, rowStart, rowEnd int) {
	colEnd = min(colEnd, t.grid.Cols-1)
	rowEnd = min(rowEnd, t.grid.Rows-1)
	for row := rowStart; row <= rowEnd; row++ {
		for col := colStart; col <= colEnd; col++ {
			idx := t.grid.Index(col, row)
			t.acc[idx/32].Or(1 << (idx % 32))
		}
	}
}

// MarkOffset marks every tile covered by the pixels stored in the byte at offset.
// In packed modes one byte holds several pixels, which may straddle a tile boundary.
func (t *Tracker) MarkOffset(offset uint32) {
	if !t.enabled.Load() {
		return
	}
	l := t.layout.Load()
	if l.BytesPerRow <= 0 || int64(offset) >= int64(l.FrameSize()) {
		return
	}

	y := int(offset) / l.BytesPerRow
	if y >= l.Height || y >= t.grid.ScreenH {
		return
	}
	first, last := l.PixelSpan(int(offset) % l.BytesPerRow)
	if first >= t.grid.ScreenW {
		return
	}
	last = min(last, t.grid.ScreenW-1)

	row := y / t.grid.TileH
	t.markSpan(first/t.grid.TileW, last/t.grid.TileW, row, row)
}

// MarkRange marks the tiles touched by a write of size bytes starting at offset.
//
// Writes of up to four bytes within one row mark their first and last byte. Longer writes
// within one row mark the exact tile columns they cover. Writes spanning rows mark the full
// width of every tile row between the first and last source row.
func (t *Tracker) MarkRange(offset, size uint32) {
	if !t.enabled.Load() || size == 0 {
		return
	}
	l := t.layout.Load()
	frame := int64(l.FrameSize())
	if l.BytesPerRow <= 0 || int64(offset) >= frame {
		return
	}
	n := min(int64(size), frame-int64(offset))

	start := int(offset)
	end := int(int64(offset) + n - 1)
	startY := start / l.BytesPerRow
	endY := end / l.BytesPerRow

	if startY == endY && n <= 4 {
		t.MarkOffset(uint32(start)) //nolint:gosec // bounded by frame size
		if n > 1 {
			t.MarkOffset(uint32(end)) //nolint:gosec // bounded by frame size
		}
		return
	}

	colStart, colEnd := 0, t.grid.ScreenW-1
	if startY == endY {
		colStart, _ = l.PixelSpan(start % l.BytesPerRow)
		_, colEnd = l.PixelSpan(end % l.BytesPerRow)
		if colStart >= t.grid.ScreenW {
			return
		}
	}
	if startY >= t.grid.ScreenH {
		return
	}

	t.markSpan(colStart/t.grid.TileW, colEnd/t.grid.TileW, startY/t.grid.TileH, endY/t.grid.TileH)
}

// Drain moves the accumulated marks into set, clears the accumulator and returns the number
// of dirty tiles.
func (t *Tracker) Drain(set *Set) int {
	count := 0
	for i := range t.acc {
		w := t.acc[i].Swap(0)
		if i < len(set.words) {
			set.words[i] = w
		}
		count += bits.OnesCount32(w)
	}
	return count
}

// IsDirty reports whether tile idx has been marked since the last drain.
func (t *Tracker) IsDirty(idx int) bool {
	if idx < 0 || idx >= t.grid.Total() {
		return false
	}
	return t.acc[idx/32].Load()&(1<<(idx%32)) != 0
}

// Pending returns the number of tiles marked since the last drain.
func (t *Tracker) Pending() int {
	n := 0
	for i := range t.acc {
		n += bits.OnesCount32(t.acc[i].Load())
	}
	return n
}
