package dirty

import (
	"encoding/binary"

	"github.com/richardwooding/tilecomp/internal/pixel"
)

// minCompareBytes is the smallest span compared per tile row, one 32-bit word.
const minCompareBytes = 4

// Compare fills set with the tiles whose source bytes differ between cur and prev and
// returns how many there are. Each tile row is compared a 32-bit word at a time and a tile
// stops being scanned at its first difference.
//
// Compare reads every tile of both frames and is the slow path, used only when write-time
// tracking is off.
func Compare(cur, prev []byte, grid Grid, layout pixel.Layout, set *Set) int {
	set.Clear()
	if layout.BytesPerRow <= 0 || layout.PixelsPerByte <= 0 {
		return 0
	}
	limit := min(len(cur), len(prev))
	ppb := layout.PixelsPerByte
	count := 0

	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			x0 := col * grid.TileW
			byteX := x0 / ppb
			span := max((x0+grid.TileW-1)/ppb+1-byteX, minCompareBytes)

			if tileDiffers(cur, prev, limit, layout.BytesPerRow, byteX, span, row*grid.TileH, grid.TileH) {
				set.Add(grid.Index(col, row))
				count++
			}
		}
	}
	return count
}

func tileDiffers(cur, prev []byte, limit, bpr, byteX, span, y0, h int) bool {
	for y := y0; y < y0+h; y++ {
		off := y*bpr + byteX
		if off >= limit {
			return false
		}
		end := min(off+span, limit)
		c, p := cur[off:end], prev[off:end]

		i := 0
		for ; i+4 <= len(c); i += 4 {
			if binary.LittleEndian.Uint32(c[i:]) != binary.LittleEndian.Uint32(p[i:]) {
				return true
			}
		}
		for ; i < len(c); i++ {
			if c[i] != p[i] {
				return true
			}
		}
	}
	return false
}
