package display

import (
	"image"
	"sync"

	"github.com/richardwooding/tilecomp/internal/render"
)

// MemoryStats counts the traffic a Memory panel has received.
type MemoryStats struct {
	Pushes   int
	Pixels   int
	Batches  int
	Presents int
	Last     image.Rectangle
}

// Memory is a headless panel that keeps everything written to it in a surface.
type Memory struct {
	mu      sync.Mutex
	surface *render.Surface
	win     Window
	stats   MemoryStats
	closed  bool
}

// NewMemory returns a headless panel of width x height pixels.
func NewMemory(width, height int) *Memory {
	return &Memory{surface: render.NewSurface(width, height)}
}

// Width implements Panel.
func (m *Memory) Width() int { return m.surface.Width() }

// Height implements Panel.
func (m *Memory) Height() int { return m.surface.Height() }

// SetAddrWindow implements Panel.
func (m *Memory) SetAddrWindow(x, y, w, h int) {
	m.mu.Lock()
	m.win.Set(x, y, w, h)
	m.stats.Last = m.win.Rect()
	m.mu.Unlock()
}

// WritePixels implements Panel.
func (m *Memory) WritePixels(buf []uint16, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	count = min(count, len(buf))
	m.win.Write(m.surface, buf[:count])
	m.stats.Pushes++
	m.stats.Pixels += count
	return nil
}

// StartWrite implements Batcher.
func (m *Memory) StartWrite() {
	m.mu.Lock()
	m.stats.Batches++
	m.mu.Unlock()
}

// EndWrite implements Batcher.
func (m *Memory) EndWrite() {}

// Present implements Presenter.
func (m *Memory) Present() error {
	m.mu.Lock()
	m.stats.Presents++
	m.mu.Unlock()
	return nil
}

// Stats returns the traffic counters.
func (m *Memory) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// ResetStats zeroes the traffic counters.
func (m *Memory) ResetStats() {
	m.mu.Lock()
	m.stats = MemoryStats{}
	m.mu.Unlock()
}

// Pixel returns the panel pixel at (x, y).
func (m *Memory) Pixel(x, y int) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if x < 0 || y < 0 || x >= m.surface.Width() || y >= m.surface.Height() {
		return 0
	}
	return m.surface.Pix()[y*m.surface.Width()+x]
}

// Image returns a copy of the panel contents.
func (m *Memory) Image() *image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surface.RGBA()
}

// Close makes further writes fail.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
