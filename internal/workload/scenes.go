package workload

import (
	"github.com/richardwooding/tilecomp/internal/pixel"
)

// white and black return the palette indices of white and black in the default palette of
// the layout's depth.
func white(l pixel.Layout) uint8 {
	if l.Depth == pixel.Depth8 {
		return 215
	}
	return 0
}

func black(l pixel.Layout) uint8 {
	if l.Depth == pixel.Depth8 {
		return 0
	}
	return uint8(l.Depth.Colors() - 1) //nolint:gosec // at most 15
}

// desktop draws a gray background with a white menu bar.
func desktop(c Canvas) {
	l := c.Layout()
	gray := uint8(l.Depth.Colors() / 2) //nolint:gosec // at most 128
	if l.Depth == pixel.Depth8 {
		gray = 0x80
	}
	c.Clear(gray)
	c.FillRect(0, 0, l.Width, 20, white(l))
	c.FillRect(0, 20, l.Width, 1, black(l))
}

// bands draws one vertical band per palette entry.
func bands(c Canvas) {
	l := c.Layout()
	n := l.Depth.Colors()
	for i := 0; i < n; i++ {
		x0 := l.Width * i / n
		x1 := l.Width * (i + 1) / n
		c.FillRect(x0, 0, x1-x0, l.Height, uint8(i)) //nolint:gosec // i < 256
	}
}

// Idle writes nothing.
type Idle struct{}

// Name implements Scene.
func (Idle) Name() string { return "idle" }

// Step implements Scene.
func (Idle) Step(*Frame) error { return nil }

const (
	cursorSize = 16
	// cursorSave is the main RAM address of the save-under buffer, one 32-byte slot per row.
	cursorSave  = 0x100
	cursorSlot  = 32
	cursorSpeed = 3
)

// Cursor moves a 16x16 arrow around a static desktop, restoring the background under its
// previous position from a save-under buffer in main RAM. Each frame dirties a handful of
// tiles.
type Cursor struct {
	x, y   int
	dx, dy int
	layout pixel.Layout
	saved  bool
	sx, sy int
	sn     int
}

// Name implements Scene.
func (c *Cursor) Name() string { return "cursor" }

func (c *Cursor) span(x int) int {
	ppb := c.layout.PixelsPerByte
	return (x+cursorSize-1)/ppb - x/ppb + 1
}

// Step implements Scene.
func (c *Cursor) Step(f *Frame) error {
	canvas := f.Canvas()
	l := canvas.Layout()
	if f.N == 0 || l != c.layout {
		c.layout = l
		desktop(canvas)
		c.x, c.y = l.Width/2, l.Height/2
		c.dx, c.dy = cursorSpeed, cursorSpeed-1
		c.saved = false
	}

	if c.saved {
		for row := 0; row < cursorSize; row++ {
			f.Bus.Copy(canvas.ByteAddr(c.sx, c.sy+row), cursorSave+uint32(row*cursorSlot), c.sn) //nolint:gosec // small
		}
	}

	c.x += c.dx
	c.y += c.dy
	if c.x < 0 || c.x > l.Width-cursorSize {
		c.dx = -c.dx
		c.x = min(max(c.x, 0), l.Width-cursorSize)
	}
	if c.y < 21 || c.y > l.Height-cursorSize {
		c.dy = -c.dy
		c.y = min(max(c.y, 21), l.Height-cursorSize)
	}

	c.sx, c.sy, c.sn = c.x, c.y, c.span(c.x)
	for row := 0; row < cursorSize; row++ {
		f.Bus.Copy(cursorSave+uint32(row*cursorSlot), canvas.ByteAddr(c.x, c.y+row), c.sn) //nolint:gosec // small
	}
	c.saved = true

	// Arrow: a right triangle with a black outline.
	for row := 0; row < cursorSize; row++ {
		for col := 0; col <= row && col < cursorSize*2/3; col++ {
			v := white(l)
			if col == 0 || col == row || row == cursorSize-1 || col == cursorSize*2/3-1 {
				v = black(l)
			}
			canvas.SetPixel(c.x+col, c.y+row, v)
		}
	}
	return nil
}

// Scroll moves the whole screen up by Lines rows each frame and paints a new stripe at the
// bottom. Every frame dirties every tile.
type Scroll struct {
	Lines int
}

// Name implements Scene.
func (s *Scroll) Name() string { return "scroll" }

// Step implements Scene.
func (s *Scroll) Step(f *Frame) error {
	c := f.Canvas()
	l := c.Layout()
	if f.N == 0 {
		bands(c)
	}
	lines := min(max(s.Lines, 1), l.Height)

	f.Bus.Copy(c.RowAddr(0), c.RowAddr(lines), (l.Height-lines)*l.BytesPerRow)
	v := uint8(f.N % l.Depth.Colors()) //nolint:gosec // < 256
	c.FillRect(0, l.Height-lines, l.Width, lines, v)
	return nil
}

// Fill paints Rects random rectangles per frame.
type Fill struct {
	Rects int
}

// Name implements Scene.
func (s *Fill) Name() string { return "fill" }

// Step implements Scene.
func (s *Fill) Step(f *Frame) error {
	c := f.Canvas()
	l := c.Layout()
	if f.N == 0 {
		desktop(c)
	}
	for i := 0; i < s.Rects; i++ {
		w := 8 + f.Rand.IntN(72)
		h := 8 + f.Rand.IntN(72)
		x := f.Rand.IntN(l.Width - w + 1)
		y := 21 + f.Rand.IntN(l.Height-21-h+1)
		c.FillRect(x, y, w, h, uint8(f.Rand.IntN(l.Depth.Colors()))) //nolint:gosec // < 256
	}
	return nil
}

// PaletteCycle draws one band per colour once and then rotates the palette every frame.
// Nothing is written after the first frame; every update comes from palette changes.
type PaletteCycle struct {
	rgb []byte
}

// Name implements Scene.
func (s *PaletteCycle) Name() string { return "palette" }

// Step implements Scene.
func (s *PaletteCycle) Step(f *Frame) error {
	c := f.Canvas()
	l := c.Layout()
	if f.N == 0 {
		bands(c)
	}
	n := l.Depth.Colors()
	if len(s.rgb) != n*3 {
		s.rgb = make([]byte, n*3)
	}
	for i := 0; i < n; i++ {
		r, g, b := hue(float64((i+f.N)%n) / float64(n))
		s.rgb[i*3], s.rgb[i*3+1], s.rgb[i*3+2] = r, g, b
	}
	f.Host.SetPalette(s.rgb, n)
	return nil
}

// hue returns the fully saturated colour at position h in [0, 1) of the colour wheel.
func hue(h float64) (r, g, b uint8) {
	h6 := h * 6
	sector := int(h6)
	frac := h6 - float64(sector)
	up := uint8(frac * 255)
	down := 255 - up
	switch sector % 6 {
	case 0:
		return 255, up, 0
	case 1:
		return down, 255, 0
	case 2:
		return 0, 255, up
	case 3:
		return 0, down, 255
	case 4:
		return up, 0, 255
	default:
		return 255, 0, down
	}
}

// ModeCycle switches colour depth every Period frames, 8, 4, 2, 1 and round again, and
// redraws a band pattern after each switch. Between switches a small marker moves along the
// bottom of the screen.
type ModeCycle struct {
	Period int
	next   int
}

// Name implements Scene.
func (s *ModeCycle) Name() string { return "modes" }

var modeOrder = []pixel.Depth{pixel.Depth8, pixel.Depth4, pixel.Depth2, pixel.Depth1}

// Step implements Scene.
func (s *ModeCycle) Step(f *Frame) error {
	period := max(s.Period, 1)
	if f.N%period == 0 {
		d := modeOrder[s.next%len(modeOrder)]
		s.next++
		if err := f.Host.SwitchMode(d); err != nil {
			return err
		}
		bands(f.Canvas())
	}

	c := f.Canvas()
	l := c.Layout()
	x := (f.N % period) * (l.Width - 8) / period
	c.FillRect(x, l.Height-8, 8, 8, black(l))
	return nil
}
