package render

import (
	"encoding/binary"

	"github.com/richardwooding/tilecomp/internal/palette"
)

// ScaleRow looks up every index in idx through pal and writes it scale times to dst, which
// must hold len(idx)*scale pixels. Indices are consumed four at a time; the result is the
// same as expanding one pixel at a time.
func ScaleRow(dst []uint16, idx []byte, pal *[palette.Size]palette.Color, scale int) {
	if scale == 2 {
		scaleRow2(dst, idx, pal)
		return
	}

	o := 0
	for _, p := range idx {
		c := uint16(pal[p])
		for k := 0; k < scale; k++ {
			dst[o+k] = c
		}
		o += scale
	}
}

func scaleRow2(dst []uint16, idx []byte, pal *[palette.Size]palette.Color) {
	if len(idx) == 0 {
		return
	}
	_ = dst[len(idx)*2-1]

	i := 0
	for ; i+4 <= len(idx); i += 4 {
		quad := binary.LittleEndian.Uint32(idx[i:])
		c0 := uint16(pal[quad&0xFF])
		c1 := uint16(pal[quad>>8&0xFF])
		c2 := uint16(pal[quad>>16&0xFF])
		c3 := uint16(pal[quad>>24])

		o := i * 2
		dst[o], dst[o+1] = c0, c0
		dst[o+2], dst[o+3] = c1, c1
		dst[o+4], dst[o+5] = c2, c2
		dst[o+6], dst[o+7] = c3, c3
	}
	for ; i < len(idx); i++ {
		c := uint16(pal[idx[i]])
		dst[i*2], dst[i*2+1] = c, c
	}
}

// replicateRows copies the first row of a block of rows*width pixels into the rows below it.
func replicateRows(block []uint16, width, rows int) {
	first := block[:width]
	for r := 1; r < rows; r++ {
		copy(block[r*width:(r+1)*width], first)
	}
}
