package snapshot

import (
	"sync/atomic"

	"github.com/richardwooding/tilecomp/internal/dirty"
	"github.com/richardwooding/tilecomp/internal/pixel"
)

// TileSnapshot is a scratch copy of one tile, decoded to 8-bit palette indices.
//
// The producer may still be writing the source region while it is copied. The copy is
// followed by an atomic sequence increment so that every byte of it is published before the
// renderer reads the snapshot; the race is bounded to one tile, not prevented.
type TileSnapshot struct {
	buf []byte
	w   int
	h   int
	seq atomic.Uint64
}

// NewTileSnapshot allocates a tileW x tileH scratch buffer from budget.
func NewTileSnapshot(budget *Budget, tileW, tileH int) (*TileSnapshot, error) {
	buf, err := budget.Alloc(tileW * tileH)
	if err != nil {
		return nil, err
	}
	return &TileSnapshot{buf: buf, w: tileW, h: tileH}, nil
}

// Capture copies tile idx of src into the snapshot and returns the decoded indices, row
// major, TileW per row. Rows outside src decode as 0.
func (s *TileSnapshot) Capture(src []byte, layout pixel.Layout, grid dirty.Grid, idx int) []byte {
	x0, y0 := grid.Origin(idx)
	for row := 0; row < s.h; row++ {
		dst := s.buf[row*s.w : (row+1)*s.w]
		line := layout.Row(src, y0+row)
		if line == nil {
			clear(dst)
			continue
		}
		pixel.DecodeSpan(dst, line, x0, layout.Depth)
	}
	s.seq.Add(1)
	return s.buf
}

// Bytes returns the most recent snapshot.
func (s *TileSnapshot) Bytes() []byte {
	s.seq.Load()
	return s.buf
}

// Seq returns the number of captures taken.
func (s *TileSnapshot) Seq() uint64 {
	return s.seq.Load()
}

// Len returns the scratch buffer size in bytes.
func (s *TileSnapshot) Len() int {
	return len(s.buf)
}
