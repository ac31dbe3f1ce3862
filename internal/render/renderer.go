package render

import (
	"github.com/richardwooding/tilecomp/internal/palette"
	"github.com/richardwooding/tilecomp/internal/pixel"
)

// TileRenderer renders one decoded tile into a contiguous scaled block.
type TileRenderer struct {
	TileW int
	TileH int
	Scale int
}

// OutWidth returns the width of a rendered tile in panel pixels.
func (r TileRenderer) OutWidth() int { return r.TileW * r.Scale }

// OutHeight returns the height of a rendered tile in panel pixels.
func (r TileRenderer) OutHeight() int { return r.TileH * r.Scale }

// BufferLen returns the number of pixels in a rendered tile.
func (r TileRenderer) BufferLen() int {
	return r.OutWidth() * r.OutHeight()
}

// Render converts snap, TileW x TileH decoded indices, into out. Every source pixel becomes
// a Scale x Scale block.
func (r TileRenderer) Render(snap []byte, pal *[palette.Size]palette.Color, out []uint16) {
	if len(snap) < r.TileW*r.TileH || len(out) < r.BufferLen() {
		return
	}
	ow := r.OutWidth()
	for y := 0; y < r.TileH; y++ {
		block := out[y*r.Scale*ow : (y+1)*r.Scale*ow]
		ScaleRow(block[:ow], snap[y*r.TileW:(y+1)*r.TileW], pal, r.Scale)
		replicateRows(block, ow, r.Scale)
	}
}

// FrameRenderer renders a whole source frame onto a surface.
type FrameRenderer struct {
	Scale int
	row   []byte
}

// NewFrameRenderer returns a renderer with a row buffer for screens up to width pixels.
func NewFrameRenderer(width, scale int) *FrameRenderer {
	return &FrameRenderer{
		Scale: scale,
		row:   make([]byte, width),
	}
}

// Render decodes every row of src with layout, converts it through pal and writes it to dst
// scaled. Only one source row is read at a time. A nil src is ignored.
func (r *FrameRenderer) Render(src []byte, layout pixel.Layout, pal *[palette.Size]palette.Color, dst *Surface) {
	if src == nil || dst == nil {
		return
	}
	w := min(layout.Width, len(r.row), dst.Width()/r.Scale)
	h := min(layout.Height, dst.Height()/r.Scale)
	ow := w * r.Scale
	stride := dst.Width()

	for y := 0; y < h; y++ {
		line := layout.Row(src, y)
		if line == nil {
			return
		}
		// Each row is copied out of the source before conversion, 8-bit rows included.
		idx := r.row[:w]
		pixel.DecodeRow(idx, line, layout.Depth)

		base := y * r.Scale * stride
		ScaleRow(dst.pix[base:base+ow], idx, pal, r.Scale)
		for k := 1; k < r.Scale; k++ {
			copy(dst.pix[base+k*stride:base+k*stride+ow], dst.pix[base:base+ow])
		}
	}
}
