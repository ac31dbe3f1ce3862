// Package display defines the boundary to the panel driver and provides panel
// implementations.
//
// A push selects a rectangle with SetAddrWindow and streams already converted swap565
// pixels into it with WritePixels, filling the window row by row.
package display

import (
	"errors"
	"image"

	"github.com/richardwooding/tilecomp/internal/render"
)

// ErrClosed is returned by panels written to after Close.
var ErrClosed = errors.New("display closed")

// Panel is a display driver that accepts rectangular pixel pushes.
type Panel interface {
	Width() int
	Height() int
	SetAddrWindow(x, y, w, h int)
	WritePixels(buf []uint16, count int) error
}

// Batcher is implemented by panels that can group several pushes into one transaction.
type Batcher interface {
	StartWrite()
	EndWrite()
}

// Presenter is implemented by panels that need an explicit flip after a push cycle.
type Presenter interface {
	Present() error
}

// Push writes a w x h block to (x, y). A nil panel is ignored.
func Push(p Panel, x, y, w, h int, buf []uint16) error {
	if p == nil {
		return nil
	}
	p.SetAddrWindow(x, y, w, h)
	return p.WritePixels(buf, min(w*h, len(buf)))
}

// StartWrite opens a batch if p supports it.
func StartWrite(p Panel) {
	if b, ok := p.(Batcher); ok {
		b.StartWrite()
	}
}

// EndWrite closes a batch if p supports it.
func EndWrite(p Panel) {
	if b, ok := p.(Batcher); ok {
		b.EndWrite()
	}
}

// Present flips p if it supports it.
func Present(p Panel) error {
	if pr, ok := p.(Presenter); ok {
		return pr.Present()
	}
	return nil
}

// Window tracks the address window of a panel and the write position inside it, the way a
// panel controller's RAM pointer advances across consecutive writes.
type Window struct {
	rect   image.Rectangle
	cursor int
}

// Set selects a new window and rewinds the write position.
func (w *Window) Set(x, y, width, height int) {
	w.rect = image.Rect(x, y, x+width, y+height)
	w.cursor = 0
}

// Rect returns the current window.
func (w *Window) Rect() image.Rectangle {
	return w.rect
}

// Write stores pixels from buf into s, continuing from the current position and wrapping
// back to the start of the window when it is full. Pixels outside s are dropped. It returns
// the rectangle of rows touched.
func (w *Window) Write(s *render.Surface, buf []uint16) image.Rectangle {
	ww, wh := w.rect.Dx(), w.rect.Dy()
	area := ww * wh
	if area <= 0 || len(buf) == 0 {
		return image.Rectangle{}
	}

	pix := s.Pix()
	sw, sh := s.Width(), s.Height()
	touched := image.Rectangle{}
	for len(buf) > 0 {
		col := w.cursor % ww
		row := w.cursor / ww
		n := min(ww-col, len(buf))

		x, y := w.rect.Min.X+col, w.rect.Min.Y+row
		if y >= 0 && y < sh {
			x0, x1 := max(x, 0), min(x+n, sw)
			if x0 < x1 {
				copy(pix[y*sw+x0:y*sw+x1], buf[x0-x:x1-x])
				touched = touched.Union(image.Rect(x0, y, x1, y+1))
			}
		}

		buf = buf[n:]
		w.cursor = (w.cursor + n) % area
	}
	return touched
}
