// Package compositor turns an indexed-colour framebuffer written by an emulated CPU into
// pushes to an RGB panel.
//
// The producer writes pixels into FrameBuffer and reports every write with
// NotifyPixelWritten or NotifyRangeWritten, then calls SignalFrameReady. None of these calls
// block. A scheduler goroutine started with Start wakes on the signal or after a timeout,
// drains the dirty tiles and either renders those tiles, renders the whole frame, or does
// nothing.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/richardwooding/tilecomp/internal/dirty"
	"github.com/richardwooding/tilecomp/internal/display"
	"github.com/richardwooding/tilecomp/internal/palette"
	"github.com/richardwooding/tilecomp/internal/pixel"
	"github.com/richardwooding/tilecomp/internal/render"
	"github.com/richardwooding/tilecomp/internal/snapshot"
)

// ErrInvalidMode indicates a video mode that does not fit the source framebuffer.
var ErrInvalidMode = errors.New("invalid video mode")

// Source framebuffer fill and panel background at start-up.
const (
	initialSourceFill = 0x80
	backgroundGray    = 64
)

// State is a compositor instance: the source framebuffer, the palette, the dirty tracker,
// the snapshot buffers, the renderers and the scheduler state.
type State struct {
	cfg    Config
	grid   dirty.Grid
	budget *snapshot.Budget

	source []byte
	layout atomic.Pointer[pixel.Layout]

	palette *palette.Table
	tracker *dirty.Tracker

	// Consumer-only state.
	arena    *snapshot.Arena // nil when write-time tracking is on
	tile     *snapshot.TileSnapshot
	tileOut  []uint16
	tileR    render.TileRenderer
	frameR   *render.FrameRenderer
	set      *dirty.Set
	localPal [palette.Size]palette.Color
	last     time.Time // last completed render
	reserved int

	surfMu  sync.Mutex
	surface *render.Surface

	panel display.Panel

	// fullReq counts full update requests; fullDone is the count served by the last full
	// update. A request is pending while they differ.
	fullReq  atomic.Uint64
	fullDone atomic.Uint64

	wake    chan struct{}
	running atomic.Bool
	closed  atomic.Bool
	phase   atomic.Int32

	lifeMu sync.Mutex
	done   chan struct{}

	stats statsRecorder
}

// New allocates a compositor for cfg pushing to panel. Allocation failures are returned and
// leave nothing allocated. panel may be nil, in which case pushes are skipped.
func New(cfg Config, panel display.Panel) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := cfg.Grid()
	if err != nil {
		return nil, err
	}

	s := &State{
		cfg:     cfg,
		grid:    grid,
		budget:  snapshot.NewBudget(cfg.MemoryBudget),
		palette: palette.NewTable(),
		tileR:   render.TileRenderer{TileW: cfg.TileWidth, TileH: cfg.TileHeight, Scale: cfg.Scale},
		set:     dirty.NewSet(grid),
		panel:   panel,
		wake:    make(chan struct{}, 1),
	}
	if err := s.allocate(); err != nil {
		s.release()
		Logger().Error("video init failed", "err", err)
		return nil, err
	}

	layout := pixel.NewLayout(cfg.Depth, cfg.Width, cfg.Height)
	s.layout.Store(&layout)
	s.tracker = dirty.NewTracker(grid, layout)
	s.tracker.SetEnabled(cfg.WriteTracking)
	s.palette.Load(palette.Defaults(cfg.Depth))

	if panel != nil && (panel.Width() != cfg.PanelWidth() || panel.Height() != cfg.PanelHeight()) {
		Logger().Warn("panel size mismatch",
			"want", fmt.Sprintf("%dx%d", cfg.PanelWidth(), cfg.PanelHeight()),
			"got", fmt.Sprintf("%dx%d", panel.Width(), panel.Height()))
	}

	// The first push shows the background until the first full update.
	s.pushFull()
	s.RequestFullUpdate()

	Logger().Info("video init complete",
		"source", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"depth", cfg.Depth.String(),
		"tiles", fmt.Sprintf("%dx%d (%d total)", grid.Cols, grid.Rows, grid.Total()),
		"threshold", cfg.ThresholdPercent,
		"write_tracking", cfg.WriteTracking,
		"memory", s.budget.Used())
	return s, nil
}

func (s *State) reserve(n int) error {
	if err := s.budget.Reserve(n); err != nil {
		return err
	}
	s.reserved += n
	return nil
}

func (s *State) allocate() error {
	cfg := s.cfg
	size := cfg.Width * cfg.Height

	if err := s.reserve(size); err != nil {
		return fmt.Errorf("source framebuffer: %w", err)
	}
	s.source = make([]byte, size)
	fill(s.source, initialSourceFill)

	if !cfg.WriteTracking {
		arena, err := snapshot.NewArena(s.budget, 2, size)
		if err != nil {
			return fmt.Errorf("compare buffers: %w", err)
		}
		s.arena = arena
		fill(arena.Current(), initialSourceFill)
		fill(arena.Previous(), initialSourceFill)
	}

	tile, err := snapshot.NewTileSnapshot(s.budget, cfg.TileWidth, cfg.TileHeight)
	if err != nil {
		return fmt.Errorf("tile snapshot: %w", err)
	}
	s.tile = tile
	s.reserved += tile.Len()

	if err := s.reserve(s.tileR.BufferLen() * 2); err != nil {
		return fmt.Errorf("tile buffer: %w", err)
	}
	s.tileOut = make([]uint16, s.tileR.BufferLen())

	if err := s.reserve(cfg.Width); err != nil {
		return fmt.Errorf("row buffer: %w", err)
	}
	s.frameR = render.NewFrameRenderer(cfg.Width, cfg.Scale)

	if err := s.reserve(cfg.PanelWidth() * cfg.PanelHeight() * 2); err != nil {
		return fmt.Errorf("panel framebuffer: %w", err)
	}
	s.surface = render.NewSurface(cfg.PanelWidth(), cfg.PanelHeight())
	s.surface.Fill(palette.FromRGB(backgroundGray, backgroundGray, backgroundGray))
	return nil
}

func (s *State) release() {
	s.budget.Release(s.reserved)
	s.reserved = 0
	if s.arena != nil {
		s.arena.Release()
		s.arena = nil
	}
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

// Config returns the configuration the compositor was built with.
func (s *State) Config() Config {
	return s.cfg
}

// Grid returns the tile grid.
func (s *State) Grid() dirty.Grid {
	return s.grid
}

// FrameBuffer returns the producer-writable source framebuffer. Its size is fixed for the
// lifetime of the compositor; the visible part depends on the current layout.
func (s *State) FrameBuffer() []byte {
	return s.source
}

// FrameSize returns the size of the source framebuffer in bytes.
func (s *State) FrameSize() int {
	return len(s.source)
}

// Layout returns the current source layout.
func (s *State) Layout() pixel.Layout {
	return *s.layout.Load()
}

// MemoryUsed returns the bytes allocated for buffers.
func (s *State) MemoryUsed() int {
	return s.budget.Used()
}

// NotifyPixelWritten marks the tiles covered by the byte at offset.
func (s *State) NotifyPixelWritten(offset uint32) {
	s.tracker.MarkOffset(offset)
}

// NotifyRangeWritten marks the tiles touched by a write of size bytes at offset.
func (s *State) NotifyRangeWritten(offset, size uint32) {
	s.tracker.MarkRange(offset, size)
}

// SignalFrameReady wakes the scheduler. It never blocks; signals sent while one is already
// pending are merged.
func (s *State) SignalFrameReady() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Refresh signals a new frame if the scheduler is running.
func (s *State) Refresh() {
	if s.running.Load() {
		s.SignalFrameReady()
	}
}

// RequestFullUpdate makes the next cycle render the whole frame. The request stays pending
// until a full update that started after it has completed.
func (s *State) RequestFullUpdate() {
	s.fullReq.Add(1)
}

// FullUpdatePending reports whether a full update has been requested and not yet done.
func (s *State) FullUpdatePending() bool {
	return s.fullReq.Load() != s.fullDone.Load()
}

// SetPalette loads n RGB triplets into the palette and forces a full update.
func (s *State) SetPalette(rgb []byte, n int) {
	s.palette.Set(rgb, n)
	s.RequestFullUpdate()
}

// SetPaletteEntry sets one palette entry and forces a full update.
func (s *State) SetPaletteEntry(i int, r, g, b uint8) {
	s.palette.SetEntry(i, palette.FromRGB(r, g, b))
	s.RequestFullUpdate()
}

// SetGamma is accepted and ignored; indexed modes apply gamma through the palette.
func (s *State) SetGamma(gamma []byte, n int) {
	s.palette.SetGamma(gamma, n)
}

// Palette returns the palette table.
func (s *State) Palette() *palette.Table {
	return s.palette
}

// Modes returns the supported video modes: every depth at the source size with unpadded
// rows, lowest depth first.
func (s *State) Modes() []pixel.Layout {
	modes := make([]pixel.Layout, 0, len(pixel.Depths))
	for _, d := range pixel.Depths {
		modes = append(modes, pixel.NewLayout(d, s.cfg.Width, s.cfg.Height))
	}
	return modes
}

// SwitchMode changes the colour depth, keeping unpadded rows.
func (s *State) SwitchMode(d pixel.Depth) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidMode, pixel.ErrInvalidDepth)
	}
	return s.SetMode(pixel.NewLayout(d, s.cfg.Width, s.cfg.Height))
}

// SetMode switches to layout: the layout cache is replaced, the default palette for the
// depth is installed and a full update is forced.
func (s *State) SetMode(layout pixel.Layout) error {
	switch {
	case !layout.Depth.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidMode, pixel.ErrInvalidDepth)
	case layout.Width != s.cfg.Width || layout.Height != s.cfg.Height:
		return fmt.Errorf("%w: %dx%d, want %dx%d", ErrInvalidMode, layout.Width, layout.Height, s.cfg.Width, s.cfg.Height)
	case layout.BytesPerRow < pixel.TrivialBytesPerRow(layout.Width, layout.Depth):
		return fmt.Errorf("%w: %d bytes per row too short for %s", ErrInvalidMode, layout.BytesPerRow, layout.Depth)
	case layout.FrameSize() > len(s.source):
		return fmt.Errorf("%w: needs %d bytes, framebuffer has %d", ErrInvalidMode, layout.FrameSize(), len(s.source))
	}

	l := layout
	s.layout.Store(&l)
	s.tracker.SetLayout(l)
	s.palette.Load(palette.Defaults(l.Depth))
	s.RequestFullUpdate()

	Logger().Info("video mode switched",
		"depth", l.Depth.String(),
		"bytes_per_row", l.BytesPerRow,
		"pixels_per_byte", l.PixelsPerByte)
	return nil
}

// PixelAt returns the palette index of source pixel (x, y) in the current layout.
func (s *State) PixelAt(x, y int) uint8 {
	l := s.layout.Load()
	return l.PixelAt(s.source, x, y)
}

// Image returns a copy of the rendered panel contents.
func (s *State) Image() *image.RGBA {
	s.surfMu.Lock()
	defer s.surfMu.Unlock()
	return s.surface.RGBA()
}

// PanelPixel returns the rendered swap565 pixel at panel position (x, y).
func (s *State) PanelPixel(x, y int) palette.Color {
	s.surfMu.Lock()
	defer s.surfMu.Unlock()
	if x < 0 || y < 0 || x >= s.surface.Width() || y >= s.surface.Height() {
		return 0
	}
	return palette.Color(s.surface.Pix()[y*s.surface.Width()+x])
}

// Close stops the scheduler and returns the buffers to the memory budget. The compositor
// must not be used afterwards.
func (s *State) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	err := s.Stop()
	s.release()
	Logger().Info("video exit")
	return err
}
