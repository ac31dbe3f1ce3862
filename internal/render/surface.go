// Package render converts decoded palette indices into scaled swap565 output.
package render

import (
	"image"
	"image/color"

	"github.com/richardwooding/tilecomp/internal/palette"
)

// Surface is a destination pixel buffer in panel-native swap565.
type Surface struct {
	pix    []uint16
	width  int
	height int
}

// NewSurface returns a width x height surface filled with zero.
func NewSurface(width, height int) *Surface {
	return &Surface{
		pix:    make([]uint16, width*height),
		width:  width,
		height: height,
	}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.height }

// Pix returns the backing pixels, row major.
func (s *Surface) Pix() []uint16 { return s.pix }

// Bytes returns the size of the backing buffer in bytes.
func (s *Surface) Bytes() int { return len(s.pix) * 2 }

// Fill sets every pixel to c.
func (s *Surface) Fill(c palette.Color) {
	if len(s.pix) == 0 {
		return
	}
	s.pix[0] = uint16(c)
	for n := 1; n < len(s.pix); n *= 2 {
		copy(s.pix[n:], s.pix[:n])
	}
}

// clip intersects the rectangle with the surface.
func (s *Surface) clip(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h).Intersect(image.Rect(0, 0, s.width, s.height))
}

// Region copies the w x h rectangle at (x, y) into dst, row major, and returns dst
// resliced to the copied length. Parts outside the surface are skipped.
func (s *Surface) Region(x, y, w, h int, dst []uint16) []uint16 {
	r := s.clip(x, y, w, h)
	rw := r.Dx()
	n := 0
	for row := r.Min.Y; row < r.Max.Y && n+rw <= len(dst); row++ {
		start := row*s.width + r.Min.X
		n += copy(dst[n:n+rw], s.pix[start:start+rw])
	}
	return dst[:n]
}

// Blit copies a w x h block of pixels, row major in src, to (x, y).
func (s *Surface) Blit(x, y, w, h int, src []uint16) {
	r := s.clip(x, y, w, h)
	for row := r.Min.Y; row < r.Max.Y; row++ {
		si := (row-y)*w + (r.Min.X - x)
		if si+r.Dx() > len(src) {
			return
		}
		di := row*s.width + r.Min.X
		copy(s.pix[di:di+r.Dx()], src[si:si+r.Dx()])
	}
}

// ColorModel implements image.Image.
func (s *Surface) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// At implements image.Image.
func (s *Surface) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return color.RGBA{}
	}
	r, g, b := palette.Color(s.pix[y*s.width+x]).RGB()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

// RGBAt returns the pixel at (x, y) as 8-bit channels.
func (s *Surface) RGBAt(x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return 0, 0, 0
	}
	return palette.Color(s.pix[y*s.width+x]).RGB()
}

// CopyToRGBA converts the rectangle r of the surface into dst at the same coordinates.
func (s *Surface) CopyToRGBA(dst *image.RGBA, r image.Rectangle) {
	r = r.Intersect(s.Bounds()).Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := s.pix[y*s.width+r.Min.X : y*s.width+r.Max.X]
		off := dst.PixOffset(r.Min.X, y)
		for _, p := range src {
			cr, cg, cb := palette.Color(p).RGB()
			dst.Pix[off] = cr
			dst.Pix[off+1] = cg
			dst.Pix[off+2] = cb
			dst.Pix[off+3] = 0xFF
			off += 4
		}
	}
}

// RGBA returns the surface converted to a new RGBA image.
func (s *Surface) RGBA() *image.RGBA {
	img := image.NewRGBA(s.Bounds())
	s.CopyToRGBA(img, img.Bounds())
	return img
}
