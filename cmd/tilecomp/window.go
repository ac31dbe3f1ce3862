package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/richardwooding/tilecomp/internal/compositor"
	"github.com/richardwooding/tilecomp/internal/display"
	"github.com/richardwooding/tilecomp/internal/render"
)

// Window is the desktop panel. The compositor pushes RGB565 pixels into a shadow surface
// from its own goroutine; Draw converts the rectangles touched since the last frame to RGBA
// and uploads them.
type Window struct {
	mu     sync.Mutex
	shadow *render.Surface
	win    display.Window
	dirty  image.Rectangle
	rgba   *image.RGBA
	screen *ebiten.Image
	bar    *ebiten.Image

	state       *compositor.State
	showOverlay bool
	shotDir     string

	closed atomic.Bool

	clipboardOnce sync.Once
	clipboardOK   bool
}

// NewWindow creates a window panel of width x height pixels.
func NewWindow(width, height int) *Window {
	shadow := render.NewSurface(width, height)
	return &Window{
		shadow:      shadow,
		rgba:        image.NewRGBA(shadow.Bounds()),
		dirty:       shadow.Bounds(),
		showOverlay: true,
		shotDir:     ".",
	}
}

// Attach sets the compositor shown in the overlay.
func (w *Window) Attach(state *compositor.State) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}

// Width implements display.Panel.
func (w *Window) Width() int { return w.shadow.Width() }

// Height implements display.Panel.
func (w *Window) Height() int { return w.shadow.Height() }

// SetAddrWindow implements display.Panel.
func (w *Window) SetAddrWindow(x, y, width, height int) {
	w.mu.Lock()
	w.win.Set(x, y, width, height)
	w.mu.Unlock()
}

// WritePixels implements display.Panel.
func (w *Window) WritePixels(buf []uint16, count int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	count = min(count, len(buf))
	w.dirty = w.dirty.Union(w.win.Write(w.shadow, buf[:count]))
	return nil
}

// Close makes the next Update end the game loop.
func (w *Window) Close() {
	w.closed.Store(true)
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.closed.Load() || ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		w.mu.Lock()
		w.showOverlay = !w.showOverlay
		w.mu.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		w.saveShot()
	}
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyC) {
		w.copyToClipboard()
	}
	return nil
}

// snapshot returns a copy of the shadow surface.
func (w *Window) snapshot() *image.RGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shadow.RGBA()
}

func (w *Window) saveShot() {
	name := fmt.Sprintf("%s/tilecomp-%s.bmp", w.shotDir, time.Now().Format("20060102-150405"))
	if err := saveImage(name, w.snapshot()); err != nil {
		compositor.Logger().Warn("screenshot failed", "err", err)
		return
	}
	compositor.Logger().Info("screenshot saved", "path", name)
}

func (w *Window) copyToClipboard() {
	w.clipboardOnce.Do(func() {
		w.clipboardOK = clipboard.Init() == nil
	})
	if !w.clipboardOK {
		compositor.Logger().Warn("clipboard unavailable")
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, w.snapshot()); err != nil {
		compositor.Logger().Warn("clipboard encode failed", "err", err)
		return
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	if w.screen == nil {
		w.screen = ebiten.NewImage(w.Width(), w.Height())
	}

	w.mu.Lock()
	dirty := w.dirty
	if !dirty.Empty() {
		w.shadow.CopyToRGBA(w.rgba, dirty)
		w.dirty = image.Rectangle{}
	}
	state, overlay := w.state, w.showOverlay
	w.mu.Unlock()

	if !dirty.Empty() {
		w.screen.WritePixels(w.rgba.Pix)
	}
	screen.DrawImage(w.screen, nil)
	if overlay && state != nil {
		w.drawOverlay(screen, state)
	}
}

// Layout implements ebiten.Game.
func (w *Window) Layout(_, _ int) (int, int) {
	return w.Width(), w.Height()
}

var (
	overlayBack = color.RGBA{0, 0, 0, 160}
	overlayText = color.RGBA{0, 220, 90, 255}
)

// drawOverlay draws a one-line status bar with the frame counters.
func (w *Window) drawOverlay(screen *ebiten.Image, state *compositor.State) {
	st := state.Stats()
	l := state.Layout()
	line := fmt.Sprintf("%.0f fps  %s  full %d  partial %d  skip %d  limited %d  tiles %d",
		ebiten.ActualFPS(), l.Depth, st.Full, st.Partial, st.Skip, st.RateLimited, st.Tiles)

	face := basicfont.Face7x13
	bounds := text.BoundString(face, line)
	if w.bar == nil {
		w.bar = ebiten.NewImage(screen.Bounds().Dx(), face.Height+8)
		w.bar.Fill(overlayBack)
	}
	screen.DrawImage(w.bar, nil)
	text.Draw(screen, line, face, 4, 4-bounds.Min.Y, overlayText)
}
