package compositor

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/richardwooding/tilecomp/internal/display"
	"github.com/richardwooding/tilecomp/internal/palette"
	"github.com/richardwooding/tilecomp/internal/pixel"
	"github.com/richardwooding/tilecomp/internal/snapshot"
)

func newTestState(t *testing.T, mutate func(*Config)) (*State, *display.Memory) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ReportInterval = 0
	if mutate != nil {
		mutate(&cfg)
	}
	mem := display.NewMemory(cfg.PanelWidth(), cfg.PanelHeight())
	s, err := New(cfg, mem)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mem
}

// clock hands out cycle times far enough apart to never be rate limited.
type clock struct{ now time.Time }

func newClock() *clock { return &clock{now: time.Unix(1000, 0)} }

func (c *clock) next() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

// settle runs the initial full update and resets the panel counters.
func settle(t *testing.T, s *State, mem *display.Memory, c *clock) {
	t.Helper()
	if d := s.Cycle(c.next()); d != DecisionFull {
		t.Fatalf("first Cycle() = %v, want full", d)
	}
	mem.ResetStats()
}

func TestNewDefaults(t *testing.T) {
	s, mem := newTestState(t, nil)

	if s.FrameSize() != 640*360 {
		t.Errorf("FrameSize() = %d, want %d", s.FrameSize(), 640*360)
	}
	if got := s.PixelAt(123, 45); got != 0x80 {
		t.Errorf("PixelAt() = 0x%02X, want 0x80", got)
	}
	if !s.FullUpdatePending() {
		t.Error("first frame should be a full update")
	}
	if l := s.Layout(); l.Depth != pixel.Depth8 || l.BytesPerRow != 640 {
		t.Errorf("Layout() = %+v, want 8-bit with 640 bytes per row", l)
	}

	gray := uint16(palette.FromRGB(64, 64, 64))
	if got := mem.Pixel(1279, 719); got != gray {
		t.Errorf("initial panel pixel = 0x%04X, want 0x%04X", got, gray)
	}
	if st := mem.Stats(); st.Pushes != 1 || st.Pixels != 1280*720 {
		t.Errorf("initial push = %+v, want one full push", st)
	}
}

func TestFirstCycleRendersSource(t *testing.T) {
	s, mem := newTestState(t, nil)
	c := newClock()
	settle(t, s, mem, c)

	want := uint16(palette.Defaults(pixel.Depth8)[0x80])
	for _, p := range []image.Point{{0, 0}, {640, 360}, {1279, 719}} {
		if got := mem.Pixel(p.X, p.Y); got != want {
			t.Errorf("panel pixel %v = 0x%04X, want 0x%04X", p, got, want)
		}
	}
	if s.FullUpdatePending() {
		t.Error("full update should be served")
	}
}

func TestSinglePixelWrite(t *testing.T) {
	s, mem := newTestState(t, nil)
	c := newClock()
	settle(t, s, mem, c)

	off := uint32(45*640 + 50)
	s.FrameBuffer()[off] = 5
	s.NotifyPixelWritten(off)

	if d := s.Cycle(c.next()); d != DecisionPartial {
		t.Fatalf("Cycle() = %v, want partial", d)
	}

	st := mem.Stats()
	if st.Pushes != 1 {
		t.Errorf("pushes = %d, want 1", st.Pushes)
	}
	if st.Last != image.Rect(80, 80, 160, 160) {
		t.Errorf("pushed window = %v, want tile 17 at 2x", st.Last)
	}

	want := palette.Defaults(pixel.Depth8)[5]
	for _, p := range []image.Point{{100, 90}, {101, 91}} {
		if got := mem.Pixel(p.X, p.Y); got != uint16(want) {
			t.Errorf("panel pixel %v = 0x%04X, want 0x%04X", p, got, want)
		}
		if got := s.PanelPixel(p.X, p.Y); got != want {
			t.Errorf("PanelPixel(%v) = 0x%04X, want 0x%04X", p, got, want)
		}
	}
}

func markTiles(s *State, n int) {
	g := s.Grid()
	for idx := 0; idx < n; idx++ {
		x, y := g.Origin(idx)
		s.NotifyPixelWritten(uint32(y*640 + x)) //nolint:gosec // on screen
	}
}

// windowLog is a Memory panel that also records every address window it is given.
type windowLog struct {
	*display.Memory
	windows []image.Rectangle
}

func (w *windowLog) SetAddrWindow(x, y, width, height int) {
	w.windows = append(w.windows, image.Rect(x, y, x+width, y+height))
	w.Memory.SetAddrWindow(x, y, width, height)
}

// scatteredTiles returns n distinct tile indices spread over the whole grid, in ascending
// order.
func scatteredTiles(n int) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, i*37%144) // 37 is coprime with 144
	}
	slices.Sort(out)
	return out
}

func TestDirtyThreshold(t *testing.T) {
	tests := []struct {
		name  string
		dirty int
		want  Decision
	}{
		{"no tiles", 0, DecisionSkip},
		{"one tile", 1, DecisionPartial},
		{"a few tiles", 7, DecisionPartial},
		{"at threshold", 115, DecisionPartial},
		{"over threshold", 116, DecisionFull},
		{"every tile", 144, DecisionFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ReportInterval = 0
			mem := display.NewMemory(cfg.PanelWidth(), cfg.PanelHeight())
			panel := &windowLog{Memory: mem}
			s, err := New(cfg, panel)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			c := newClock()
			settle(t, s, mem, c)
			panel.windows = nil

			tiles := scatteredTiles(tt.dirty)
			g := s.Grid()
			for _, idx := range tiles {
				x, y := g.Origin(idx)
				s.NotifyPixelWritten(uint32(y*640 + x)) //nolint:gosec // on screen
			}
			if d := s.Cycle(c.next()); d != tt.want {
				t.Fatalf("Cycle() = %v, want %v", d, tt.want)
			}

			var want []image.Rectangle
			switch tt.want {
			case DecisionFull:
				want = []image.Rectangle{image.Rect(0, 0, 1280, 720)}
			case DecisionPartial:
				for _, idx := range tiles {
					x, y := g.Origin(idx)
					want = append(want, image.Rect(x*2, y*2, x*2+80, y*2+80))
				}
				if got := s.set.Indices(); !slices.Equal(got, tiles) {
					t.Errorf("processed tiles = %v, want %v", got, tiles)
				}
			}
			if !slices.Equal(panel.windows, want) {
				t.Errorf("pushed windows = %v, want %v", panel.windows, want)
			}
		})
	}
}

func TestFullUpdateDropsMarks(t *testing.T) {
	s, mem := newTestState(t, nil)
	c := newClock()
	settle(t, s, mem, c)

	markTiles(s, 130)
	if d := s.Cycle(c.next()); d != DecisionFull {
		t.Fatalf("Cycle() = %v, want full", d)
	}
	if d := s.Cycle(c.next()); d != DecisionSkip {
		t.Errorf("Cycle() after full update = %v, want skip", d)
	}
}

func TestPaletteChangeForcesFull(t *testing.T) {
	s, mem := newTestState(t, nil)
	c := newClock()
	settle(t, s, mem, c)

	rgb := make([]byte, 256*3)
	rgb[0x80*3] = 255
	s.SetPalette(rgb, 256)

	if !s.FullUpdatePending() {
		t.Fatal("SetPalette should request a full update")
	}
	if d := s.Cycle(c.next()); d != DecisionFull {
		t.Fatalf("Cycle() = %v, want full", d)
	}
	if got, want := mem.Pixel(10, 10), uint16(palette.FromRGB(255, 0, 0)); got != want {
		t.Errorf("panel pixel = 0x%04X, want 0x%04X", got, want)
	}
	if d := s.Cycle(c.next()); d != DecisionSkip {
		t.Errorf("second Cycle() = %v, want skip", d)
	}
}

func TestSetGammaIsIgnored(t *testing.T) {
	s, mem := newTestState(t, nil)
	c := newClock()
	settle(t, s, mem, c)

	s.SetGamma(make([]byte, 256*3), 256)
	if d := s.Cycle(c.next()); d != DecisionSkip {
		t.Errorf("Cycle() after SetGamma = %v, want skip", d)
	}
}

func TestSwitchMode(t *testing.T) {
	s, mem := newTestState(t, nil)
	c := newClock()
	settle(t, s, mem, c)

	if err := s.SwitchMode(pixel.Depth4); err != nil {
		t.Fatalf("SwitchMode() error = %v", err)
	}

	l := s.Layout()
	if l.BytesPerRow != 320 {
		t.Errorf("BytesPerRow = %d, want 320", l.BytesPerRow)
	}
	if l.PixelsPerByte != 2 {
		t.Errorf("PixelsPerByte = %d, want 2", l.PixelsPerByte)
	}
	if !s.FullUpdatePending() {
		t.Error("SwitchMode should request a full update")
	}
	if got, want := s.Palette().Entry(15), palette.FromRGB(0, 0, 0); got != want {
		t.Errorf("palette entry 15 = 0x%04X, want the 4-bit default black", got)
	}

	if d := s.Cycle(c.next()); d != DecisionFull {
		t.Fatalf("Cycle() = %v, want full", d)
	}

	// 0x80 is pixel value 8 on the left, 0 on the right in 4-bit mode.
	mac := palette.Defaults(pixel.Depth4)
	if got := mem.Pixel(0, 0); got != uint16(mac[8]) {
		t.Errorf("left pixel = 0x%04X, want 0x%04X", got, mac[8])
	}
	if got := mem.Pixel(2, 0); got != uint16(mac[0]) {
		t.Errorf("right pixel = 0x%04X, want 0x%04X", got, mac[0])
	}
}

func TestSetModeRejectsBadLayouts(t *testing.T) {
	s, _ := newTestState(t, nil)

	tests := []struct {
		name   string
		layout pixel.Layout
	}{
		{"depth", pixel.NewLayout(3, 640, 360)},
		{"size", pixel.NewLayout(pixel.Depth8, 800, 600)},
		{"short rows", pixel.NewLayoutWithStride(pixel.Depth8, 640, 360, 320)},
		{"too large", pixel.NewLayoutWithStride(pixel.Depth8, 640, 360, 1024)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetMode(tt.layout); !errors.Is(err, ErrInvalidMode) {
				t.Errorf("SetMode() error = %v, want ErrInvalidMode", err)
			}
		})
	}

	if s.Layout().Depth != pixel.Depth8 {
		t.Error("rejected mode changed the layout")
	}
}

func TestModes(t *testing.T) {
	s, _ := newTestState(t, nil)

	want := []int{80, 160, 320, 640}
	modes := s.Modes()
	if len(modes) != len(want) {
		t.Fatalf("len(Modes()) = %d, want %d", len(modes), len(want))
	}
	for i, m := range modes {
		if m.BytesPerRow != want[i] {
			t.Errorf("%s bytes per row = %d, want %d", m.Depth, m.BytesPerRow, want[i])
		}
	}
}

func TestRateLimit(t *testing.T) {
	s, mem := newTestState(t, nil)
	start := time.Unix(1000, 0)

	if d := s.Cycle(start); d != DecisionFull {
		t.Fatalf("Cycle() = %v, want full", d)
	}
	mem.ResetStats()

	s.NotifyPixelWritten(0)
	if d := s.Cycle(start.Add(10 * time.Millisecond)); d != DecisionRateLimited {
		t.Fatalf("Cycle() 10ms later = %v, want rate-limited", d)
	}
	if mem.Stats().Pushes != 0 {
		t.Error("rate-limited cycle pushed pixels")
	}
	if !s.tracker.IsDirty(0) {
		t.Error("rate-limited cycle lost dirty state")
	}

	if d := s.Cycle(start.Add(70 * time.Millisecond)); d != DecisionPartial {
		t.Errorf("Cycle() 70ms later = %v, want partial", d)
	}

	st := s.Stats()
	if st.RateLimited != 1 || st.Full != 1 || st.Partial != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestSkipDoesNotRateLimit(t *testing.T) {
	s, mem := newTestState(t, nil)
	start := time.Unix(1000, 0)
	s.Cycle(start)
	mem.ResetStats()

	if d := s.Cycle(start.Add(100 * time.Millisecond)); d != DecisionSkip {
		t.Fatalf("Cycle() = %v, want skip", d)
	}

	// The skip did not render, so the next write is not held back by it.
	s.NotifyPixelWritten(0)
	if d := s.Cycle(start.Add(110 * time.Millisecond)); d != DecisionPartial {
		t.Errorf("Cycle() = %v, want partial", d)
	}
}

func TestCompareFallback(t *testing.T) {
	s, mem := newTestState(t, func(c *Config) { c.WriteTracking = false })
	c := newClock()
	settle(t, s, mem, c)

	// Marks are ignored; the change is found by comparing frames.
	s.FrameBuffer()[359*640+639] = 1
	s.NotifyPixelWritten(359*640 + 639)

	if d := s.Cycle(c.next()); d != DecisionPartial {
		t.Fatalf("Cycle() = %v, want partial", d)
	}
	if st := mem.Stats(); st.Last != image.Rect(1200, 640, 1280, 720) {
		t.Errorf("pushed window = %v, want tile 143", st.Last)
	}
	if d := s.Cycle(c.next()); d != DecisionSkip {
		t.Errorf("Cycle() with no changes = %v, want skip", d)
	}
}

func TestNilPanel(t *testing.T) {
	cfg := DefaultConfig()
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	c := newClock()
	if d := s.Cycle(c.next()); d != DecisionFull {
		t.Errorf("Cycle() = %v, want full", d)
	}
	s.NotifyPixelWritten(10)
	if d := s.Cycle(c.next()); d != DecisionPartial {
		t.Errorf("Cycle() = %v, want partial", d)
	}
}

func TestNewOutOfMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoryBudget = 1 << 20 // smaller than the 1280x720 panel buffer

	_, err := New(cfg, nil)
	if !errors.Is(err, snapshot.ErrOutOfMemory) {
		t.Errorf("New() error = %v, want ErrOutOfMemory", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"uneven tiles", func(c *Config) { c.TileWidth = 48 }},
		{"zero scale", func(c *Config) { c.Scale = 0 }},
		{"threshold zero", func(c *Config) { c.ThresholdPercent = 0 }},
		{"threshold over 100", func(c *Config) { c.ThresholdPercent = 101 }},
		{"no timeout", func(c *Config) { c.FrameTimeout = 0 }},
		{"negative interval", func(c *Config) { c.MinFrameInterval = -time.Millisecond }},
		{"bad depth", func(c *Config) { c.Depth = 3 }},
		{"no grace", func(c *Config) { c.ShutdownGrace = 0 }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if _, err := New(cfg, nil); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	s, mem := newTestState(t, func(c *Config) {
		c.FrameTimeout = 5 * time.Millisecond
		c.MinFrameInterval = time.Millisecond
	})

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(ctx); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() error = %v, want ErrRunning", err)
	}

	want := uint16(palette.Defaults(pixel.Depth8)[0x80])
	waitFor(t, func() bool { return mem.Pixel(0, 0) == want })
	waitFor(t, func() bool { return s.Stats().Skip > 0 })

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if s.Running() {
		t.Error("Running() = true after Stop")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	s, _ := newTestState(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	waitFor(t, func() bool { return !s.Running() })
}

func TestStopDuringStartupDelay(t *testing.T) {
	s, mem := newTestState(t, func(c *Config) {
		c.StartupDelay = 2 * time.Second
		c.ShutdownGrace = 100 * time.Millisecond
	})
	before := mem.Stats()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v, want the loop to exit within the grace period", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop() took %v", elapsed)
	}
	if s.Running() {
		t.Error("Running() = true after Stop")
	}
	if st := s.Stats(); st.Cycles != 0 {
		t.Errorf("cycles = %d, want none during the startup delay", st.Cycles)
	}
	if st := mem.Stats(); st != before {
		t.Errorf("panel stats = %+v, want %+v: nothing pushed during the startup delay", st, before)
	}
}

func TestFrameReadyDuringStartupDelay(t *testing.T) {
	s, _ := newTestState(t, func(c *Config) {
		c.StartupDelay = 50 * time.Millisecond
		c.FrameTimeout = time.Hour
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.SignalFrameReady()
	if !s.Running() {
		t.Fatal("frame-ready signal during the startup delay stopped the scheduler")
	}
	// The pending first full update runs as soon as the delay ends, without waiting for
	// another signal or the frame timeout.
	waitFor(t, func() bool { return s.Stats().Full == 1 })
}

// recordHandler keeps every log record.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r.Clone())
	h.mu.Unlock()
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

// perfReports returns the attributes of every "video perf" record.
func (h *recordHandler) perfReports() []map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]string
	for _, r := range h.records {
		if r.Message != "video perf" {
			continue
		}
		attrs := map[string]string{}
		r.Attrs(func(a slog.Attr) bool {
			attrs[a.Key] = a.Value.String()
			return true
		})
		out = append(out, attrs)
	}
	return out
}

func TestPerfReport(t *testing.T) {
	s, mem := newTestState(t, func(c *Config) {
		c.ReportInterval = 5 * time.Second
	})
	h := &recordHandler{}
	SetLogger(slog.New(h))
	t.Cleanup(func() { SetLogger(nil) })

	c := newClock() // cycles at 1001s, 1002s, ...
	t0 := c.now
	s.stats.startInterval(t0)

	settle(t, s, mem, c) // full
	markTiles(s, 1)
	if d := s.Cycle(c.next()); d != DecisionPartial {
		t.Fatalf("Cycle() = %v, want partial", d)
	}
	if d := s.Cycle(c.now.Add(time.Millisecond)); d != DecisionRateLimited {
		t.Fatalf("Cycle() = %v, want rate limited", d)
	}
	s.Cycle(c.next()) // skip

	s.maybeReport(t0.Add(4 * time.Second))
	if n := len(h.perfReports()); n != 0 {
		t.Fatalf("reports before the interval = %d, want 0", n)
	}

	s.maybeReport(t0.Add(5 * time.Second))
	reports := h.perfReports()
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	want := map[string]string{"frames": "3", "full": "1", "partial": "1", "skip": "1", "ratelimited": "1"}
	for k, v := range want {
		if reports[0][k] != v {
			t.Errorf("report %s = %q, want %q", k, reports[0][k], v)
		}
	}
	for _, k := range []string{"avg_snapshot", "avg_detect", "avg_render", "avg_push"} {
		if _, ok := reports[0][k]; !ok {
			t.Errorf("report has no %s", k)
		}
	}

	// The interval restarted: nothing happened since, so nothing is reported.
	s.maybeReport(t0.Add(11 * time.Second))
	if n := len(h.perfReports()); n != 1 {
		t.Errorf("reports after an empty interval = %d, want 1", n)
	}

	s.Cycle(t0.Add(20 * time.Second))
	s.maybeReport(t0.Add(20 * time.Second))
	reports = h.perfReports()
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	if reports[1]["frames"] != "1" || reports[1]["full"] != "0" {
		t.Errorf("second report = %v, want counters from the new interval only", reports[1])
	}
	if st := s.Stats(); st.Cycles != 4 || st.RateLimited != 1 {
		t.Errorf("cumulative stats = %+v, want 4 cycles and 1 rate limited", st)
	}
}

func TestCloseReleasesMemory(t *testing.T) {
	cfg := DefaultConfig()
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.MemoryUsed() == 0 {
		t.Fatal("MemoryUsed() = 0 after New")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if s.MemoryUsed() != 0 {
		t.Errorf("MemoryUsed() = %d after Close, want 0", s.MemoryUsed())
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v, want ErrClosed", err)
	}
	if d := s.Cycle(time.Now()); d != DecisionSkip {
		t.Errorf("Cycle() after Close = %v, want skip", d)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func BenchmarkCyclePartial(b *testing.B) {
	cfg := DefaultConfig()
	cfg.ReportInterval = 0
	s, err := New(cfg, display.NewMemory(cfg.PanelWidth(), cfg.PanelHeight()))
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	now := time.Unix(1000, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.NotifyRangeWritten(uint32(i%360)*640, 16) //nolint:gosec // benchmark counter
		now = now.Add(time.Second)
		s.Cycle(now)
	}
}

func BenchmarkCycleFull(b *testing.B) {
	cfg := DefaultConfig()
	s, err := New(cfg, display.NewMemory(cfg.PanelWidth(), cfg.PanelHeight()))
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	now := time.Unix(1000, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.RequestFullUpdate()
		now = now.Add(time.Second)
		s.Cycle(now)
	}
}
