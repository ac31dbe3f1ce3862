package workload

import (
	"github.com/richardwooding/tilecomp/internal/framebuffer"
	"github.com/richardwooding/tilecomp/internal/pixel"
)

// Canvas draws palette indices into video RAM through the bus, so every store is reported
// to the compositor exactly as CPU writes would be.
type Canvas struct {
	bus    *framebuffer.Bus
	layout pixel.Layout
}

// NewCanvas returns a canvas drawing on bus in layout.
func NewCanvas(bus *framebuffer.Bus, layout pixel.Layout) Canvas {
	return Canvas{bus: bus, layout: layout}
}

// Layout returns the canvas layout.
func (c Canvas) Layout() pixel.Layout {
	return c.layout
}

// RowAddr returns the bus address of the first byte of row y.
func (c Canvas) RowAddr(y int) uint32 {
	return c.bus.VRAMBase() + uint32(y*c.layout.BytesPerRow) //nolint:gosec // y is on screen
}

// ByteAddr returns the bus address of the byte holding pixel (x, y).
func (c Canvas) ByteAddr(x, y int) uint32 {
	return c.RowAddr(y) + uint32(x/c.layout.PixelsPerByte) //nolint:gosec // x is on screen
}

func (c Canvas) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.layout.Width && y < c.layout.Height
}

// SetPixel stores v at (x, y). Off-screen pixels are ignored.
func (c Canvas) SetPixel(x, y int, v uint8) {
	if !c.inside(x, y) {
		return
	}
	addr := c.ByteAddr(x, y)
	if c.layout.Depth == pixel.Depth8 {
		c.bus.Write8(addr, v)
		return
	}
	old := c.bus.Read8(addr)
	c.bus.Write8(addr, pixel.Merge(old, x%c.layout.PixelsPerByte, v, c.layout.Depth))
}

// Pixel returns the palette index at (x, y).
func (c Canvas) Pixel(x, y int) uint8 {
	if !c.inside(x, y) {
		return 0
	}
	return pixel.DecodePixel([]byte{c.bus.Read8(c.ByteAddr(x, y))}, x%c.layout.PixelsPerByte, c.layout.Depth)
}

// FillRect fills a rectangle clipped to the screen. Whole bytes are written with one fill
// per row; partial bytes at the edges are merged pixel by pixel.
func (c Canvas) FillRect(x, y, w, h int, v uint8) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, c.layout.Width), min(y+h, c.layout.Height)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	ppb := c.layout.PixelsPerByte
	pattern := pixel.Replicate(v, c.layout.Depth)
	// Whole bytes span [bx0, bx1) in pixels.
	bx0 := (x0 + ppb - 1) / ppb * ppb
	bx1 := x1 / ppb * ppb

	for row := y0; row < y1; row++ {
		if bx0 >= bx1 {
			for px := x0; px < x1; px++ {
				c.SetPixel(px, row, v)
			}
			continue
		}
		for px := x0; px < bx0; px++ {
			c.SetPixel(px, row, v)
		}
		c.bus.Fill(c.ByteAddr(bx0, row), (bx1-bx0)/ppb, pattern)
		for px := bx1; px < x1; px++ {
			c.SetPixel(px, row, v)
		}
	}
}

// Clear fills the whole screen with v.
func (c Canvas) Clear(v uint8) {
	c.FillRect(0, 0, c.layout.Width, c.layout.Height, v)
}
