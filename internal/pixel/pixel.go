// Package pixel decodes packed indexed-colour framebuffer rows into 8-bit palette indices.
//
// Packed depths store several pixels per byte with the leftmost pixel in the most significant
// bits:
//   - 1-bit: 8 pixels per byte, bit 7 is the leftmost pixel
//   - 2-bit: 4 pixels per byte, bits 7-6 are the leftmost pixel
//   - 4-bit: 2 pixels per byte, the high nibble is the leftmost pixel
//   - 8-bit: 1 pixel per byte, no decoding
//
// DecodePixel, DecodeRow and DecodeSpan share the same bit extraction and always agree.
package pixel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Depth is a colour depth in bits per pixel.
type Depth uint8

const (
	// Depth1 is 1 bit per pixel (2 colours).
	Depth1 Depth = 1
	// Depth2 is 2 bits per pixel (4 colours).
	Depth2 Depth = 2
	// Depth4 is 4 bits per pixel (16 colours).
	Depth4 Depth = 4
	// Depth8 is 8 bits per pixel (256 colours).
	Depth8 Depth = 8
)

// Depths lists every supported depth, lowest first.
var Depths = []Depth{Depth1, Depth2, Depth4, Depth8}

// ErrInvalidDepth indicates a depth other than 1, 2, 4 or 8 bits.
var ErrInvalidDepth = errors.New("invalid colour depth")

// Valid reports whether d is a supported depth.
func (d Depth) Valid() bool {
	switch d {
	case Depth1, Depth2, Depth4, Depth8:
		return true
	}
	return false
}

// PixelsPerByte returns how many pixels share one byte.
func (d Depth) PixelsPerByte() int {
	if !d.Valid() {
		return 1
	}
	return 8 / int(d)
}

// Mask returns the mask for one pixel value.
func (d Depth) Mask() uint8 {
	if !d.Valid() || d == Depth8 {
		return 0xFF
	}
	return uint8(1)<<d - 1
}

// Colors returns the number of meaningful palette entries at this depth.
func (d Depth) Colors() int {
	if !d.Valid() {
		return 256
	}
	return 1 << d
}

// String returns the depth as "<n>-bit".
func (d Depth) String() string {
	return strconv.Itoa(int(d)) + "-bit"
}

// ParseDepth parses "1", "2", "4", "8" with an optional "bit"/"-bit" suffix.
func ParseDepth(s string) (Depth, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "bit"), "-")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDepth, s)
	}
	d := Depth(n) //nolint:gosec // range checked by Valid below
	if n < 0 || n > 8 || !d.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDepth, s)
	}
	return d, nil
}

// shift returns the right shift that brings pixel k of a byte (k=0 is leftmost) to bit 0.
func (d Depth) shift(k int) uint {
	return uint(8 - int(d)*(k+1)) //nolint:gosec // k < PixelsPerByte so the result is 0..7
}

// DecodePixel returns the palette index of pixel column x in a packed row.
// Columns beyond the row read as 0.
func DecodePixel(row []byte, x int, d Depth) uint8 {
	if x < 0 {
		return 0
	}
	if d == Depth8 || !d.Valid() {
		if x >= len(row) {
			return 0
		}
		return row[x]
	}
	ppb := d.PixelsPerByte()
	i := x / ppb
	if i >= len(row) {
		return 0
	}
	return (row[i] >> d.shift(x%ppb)) & d.Mask()
}

// DecodeRow decodes len(dst) pixels starting at column 0.
func DecodeRow(dst, row []byte, d Depth) {
	DecodeSpan(dst, row, 0, d)
}

// DecodeSpan decodes len(dst) pixels starting at column x0. The start does not need to be
// byte aligned; only the bytes holding the requested pixels are read.
func DecodeSpan(dst, row []byte, x0 int, d Depth) {
	if len(dst) == 0 || x0 < 0 {
		return
	}
	if d == Depth8 || !d.Valid() {
		n := 0
		if x0 < len(row) {
			n = copy(dst, row[x0:])
		}
		clear(dst[n:])
		return
	}

	ppb := d.PixelsPerByte()
	mask := d.Mask()
	i, x := 0, x0

	// Leading pixels up to the next byte boundary.
	for i < len(dst) && x%ppb != 0 {
		dst[i] = DecodePixel(row, x, d)
		i++
		x++
	}

	// Whole bytes.
	for i+ppb <= len(dst) {
		bi := x / ppb
		if bi >= len(row) {
			break
		}
		b := row[bi]
		for k := 0; k < ppb; k++ {
			dst[i+k] = (b >> d.shift(k)) & mask
		}
		i += ppb
		x += ppb
	}

	// Trailing pixels.
	for ; i < len(dst); i, x = i+1, x+1 {
		dst[i] = DecodePixel(row, x, d)
	}
}

// Merge returns b with pixel k of the byte (k=0 is leftmost) replaced by v.
func Merge(b byte, k int, v uint8, d Depth) byte {
	if d == Depth8 || !d.Valid() {
		return v
	}
	sh := d.shift(k)
	m := d.Mask() << sh
	return b&^m | (v&d.Mask())<<sh
}

// Replicate returns a byte whose pixels are all v.
func Replicate(v uint8, d Depth) byte {
	if d == Depth8 || !d.Valid() {
		return v
	}
	var b byte
	for k := 0; k < d.PixelsPerByte(); k++ {
		b = Merge(b, k, v, d)
	}
	return b
}

// TrivialBytesPerRow returns the unpadded row length for width pixels at depth d.
func TrivialBytesPerRow(width int, d Depth) int {
	return (width*int(d) + 7) / 8
}

// Layout describes how pixels are laid out in the source framebuffer for one video mode.
type Layout struct {
	Depth         Depth
	Width         int // pixels
	Height        int // rows
	BytesPerRow   int
	PixelsPerByte int
	Shift         int // shift of the leftmost pixel in a byte
	Mask          uint8
}

// NewLayout returns the layout of a width x height screen at depth d with unpadded rows.
func NewLayout(d Depth, width, height int) Layout {
	return NewLayoutWithStride(d, width, height, TrivialBytesPerRow(width, d))
}

// NewLayoutWithStride returns a layout with an explicit bytes-per-row value.
func NewLayoutWithStride(d Depth, width, height, bytesPerRow int) Layout {
	return Layout{
		Depth:         d,
		Width:         width,
		Height:        height,
		BytesPerRow:   bytesPerRow,
		PixelsPerByte: d.PixelsPerByte(),
		Shift:         int(d.shift(0)),
		Mask:          d.Mask(),
	}
}

// FrameSize returns the number of source bytes used by the visible screen.
func (l Layout) FrameSize() int {
	return l.BytesPerRow * l.Height
}

// Row returns the bytes of row y, or nil when y is outside the frame.
func (l Layout) Row(fb []byte, y int) []byte {
	if y < 0 || y >= l.Height {
		return nil
	}
	start := y * l.BytesPerRow
	end := start + l.BytesPerRow
	if end > len(fb) {
		return nil
	}
	return fb[start:end]
}

// PixelSpan returns the first and last pixel column covered by byte b of a row.
func (l Layout) PixelSpan(b int) (first, last int) {
	first = b * l.PixelsPerByte
	return first, first + l.PixelsPerByte - 1
}

// PixelAt returns the palette index at (x, y).
func (l Layout) PixelAt(fb []byte, x, y int) uint8 {
	if x < 0 || x >= l.Width {
		return 0
	}
	return DecodePixel(l.Row(fb, y), x, l.Depth)
}
