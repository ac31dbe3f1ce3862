//go:build sdl

package display

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/richardwooding/tilecomp/internal/palette"
)

// SDL is a panel backed by an SDL window with a streaming RGB565 texture. Pushed windows
// are uploaded straight into the texture; Present copies it to the window.
//
// SDL must be driven from the goroutine that created it.
type SDL struct {
	mu       sync.Mutex
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	width    int
	height   int
	win      Window
	quit     bool
}

// NewSDL opens a window of width x height pixels.
func NewSDL(title string, width, height int) (*SDL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}

	window, err := sdl.CreateWindow(title, int32(sdl.WINDOWPOS_CENTERED), int32(sdl.WINDOWPOS_CENTERED),
		int32(width), int32(height), uint32(sdl.WINDOW_SHOWN)) //nolint:gosec // panel sizes fit int32
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, uint32(sdl.RENDERER_ACCELERATED))
	if err != nil {
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl renderer: %w", err)
	}

	texture, err := renderer.CreateTexture(uint32(sdl.PIXELFORMAT_RGB565), int(sdl.TEXTUREACCESS_STREAMING),
		int32(width), int32(height)) //nolint:gosec // panel sizes fit int32
	if err != nil {
		_ = renderer.Destroy()
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl texture: %w", err)
	}

	return &SDL{
		window:   window,
		renderer: renderer,
		texture:  texture,
		width:    width,
		height:   height,
	}, nil
}

// Width implements Panel.
func (s *SDL) Width() int { return s.width }

// Height implements Panel.
func (s *SDL) Height() int { return s.height }

// SetAddrWindow implements Panel.
func (s *SDL) SetAddrWindow(x, y, w, h int) {
	s.mu.Lock()
	s.win.Set(x, y, w, h)
	s.mu.Unlock()
}

// WritePixels implements Panel. Pixels are written into the locked texture region of the
// current window.
func (s *SDL) WritePixels(buf []uint16, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.texture == nil {
		return ErrClosed
	}

	r := s.win.Rect()
	w, h := r.Dx(), r.Dy()
	count = min(count, len(buf), w*h)
	if count <= 0 {
		return nil
	}
	rect := &sdl.Rect{X: int32(r.Min.X), Y: int32(r.Min.Y), W: int32(w), H: int32(h)} //nolint:gosec // panel sizes fit int32

	pixels, pitch, err := s.texture.Lock(rect)
	if err != nil {
		return fmt.Errorf("sdl lock: %w", err)
	}
	for i := 0; i < count; i++ {
		off := (i/w)*pitch + (i%w)*2
		binary.LittleEndian.PutUint16(pixels[off:], palette.Color(buf[i]).Native())
	}
	s.texture.Unlock()
	return nil
}

// Present implements Presenter.
func (s *SDL) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.texture == nil {
		return ErrClosed
	}
	if err := s.renderer.Copy(s.texture, nil, nil); err != nil {
		return fmt.Errorf("sdl copy: %w", err)
	}
	s.renderer.Present()
	return nil
}

// Poll drains pending SDL events and reports whether the window was closed.
func (s *SDL) Poll() bool {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			s.quit = true
		case *sdl.KeyboardEvent:
			if e.Keysym.Sym == sdl.K_ESCAPE {
				s.quit = true
			}
		}
	}
	return s.quit
}

// Close destroys the window and shuts SDL down.
func (s *SDL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.texture == nil {
		return nil
	}
	_ = s.texture.Destroy()
	_ = s.renderer.Destroy()
	_ = s.window.Destroy()
	s.texture = nil
	sdl.Quit()
	return nil
}
