// Package bench runs a scene against a headless compositor for a fixed number of frames and
// checks that the panel ends up identical to a full render of the framebuffer.
package bench

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/richardwooding/tilecomp/internal/compositor"
	"github.com/richardwooding/tilecomp/internal/display"
	"github.com/richardwooding/tilecomp/internal/palette"
	"github.com/richardwooding/tilecomp/internal/render"
	"github.com/richardwooding/tilecomp/internal/workload"
)

// ErrNoFrames indicates a run of zero frames.
var ErrNoFrames = errors.New("frame count must be positive")

// Options select what to run.
type Options struct {
	Scene  string // built-in scene name, ignored when Script is set
	Script string // path to a Lua scene
	Frames int
	Seed   uint64
	Config compositor.Config // the initial depth is Config.Depth
}

// Result represents the outcome of a run.
type Result struct {
	Scene      string
	Frames     int
	Elapsed    time.Duration
	Stats      compositor.Stats
	Panel      display.MemoryStats
	Mismatches int // panel pixels differing from a full render after the last frame
	Image      *image.RGBA
	Error      error
}

// Run executes a benchmark and returns the result.
func Run(opts Options) *Result {
	result := &Result{Scene: opts.Scene}
	if opts.Frames <= 0 {
		result.Error = ErrNoFrames
		return result
	}

	scene, err := newScene(opts)
	if err != nil {
		result.Error = err
		return result
	}
	result.Scene = scene.Name()
	if s, ok := scene.(*workload.Script); ok {
		defer s.Close()
	}

	cfg := opts.Config
	panel := display.NewMemory(cfg.PanelWidth(), cfg.PanelHeight())
	state, err := compositor.New(cfg, panel)
	if err != nil {
		result.Error = fmt.Errorf("failed to create compositor: %w", err)
		return result
	}
	defer func() { _ = state.Close() }()

	runner, err := workload.NewRunner(scene, state, state.FrameBuffer(), opts.Seed)
	if err != nil {
		result.Error = err
		return result
	}

	// Cycles run on a synthetic clock so no frame is rate limited.
	now := time.Now()
	start := time.Now()
	for range opts.Frames {
		if err := runner.Step(); err != nil {
			result.Error = err
			break
		}
		now = now.Add(cfg.MinFrameInterval)
		state.Cycle(now)
	}
	result.Elapsed = time.Since(start)
	result.Frames = runner.Frames()
	result.Stats = state.Stats()
	result.Panel = panel.Stats()
	result.Mismatches = Verify(state, panel)
	result.Image = panel.Image()
	return result
}

func newScene(opts Options) (workload.Scene, error) {
	if opts.Script != "" {
		return workload.LoadScript(opts.Script, time.Second)
	}
	return workload.New(opts.Scene)
}

// Verify renders the whole framebuffer from scratch and returns the number of panel pixels
// that differ from it.
func Verify(state *compositor.State, panel *display.Memory) int {
	cfg := state.Config()
	want := render.NewSurface(cfg.PanelWidth(), cfg.PanelHeight())
	var pal [palette.Size]palette.Color
	state.Palette().Copy(&pal)
	render.NewFrameRenderer(cfg.Width, cfg.Scale).Render(state.FrameBuffer(), state.Layout(), &pal, want)

	mismatches := 0
	pix := want.Pix()
	for y := 0; y < want.Height(); y++ {
		for x := 0; x < want.Width(); x++ {
			if panel.Pixel(x, y) != pix[y*want.Width()+x] {
				mismatches++
			}
		}
	}
	return mismatches
}

// String returns a human-readable representation of the result.
func (r *Result) String() string {
	var b strings.Builder
	status := "OK"
	switch {
	case r.Error != nil:
		status = "ERROR: " + r.Error.Error()
	case r.Mismatches > 0:
		status = fmt.Sprintf("MISMATCH: %d pixels", r.Mismatches)
	}
	fmt.Fprintf(&b, "%s: %s\n", r.Scene, status)
	fmt.Fprintf(&b, "  frames:   %d in %v\n", r.Frames, r.Elapsed.Round(time.Microsecond))
	fmt.Fprintf(&b, "  cycles:   %s\n", r.Stats)
	fmt.Fprintf(&b, "  tiles:    %d\n", r.Stats.Tiles)
	fmt.Fprintf(&b, "  panel:    %d pushes, %d pixels, %d presents\n", r.Panel.Pushes, r.Panel.Pixels, r.Panel.Presents)
	return b.String()
}

// IsSuccess returns true if the run completed and the panel matched.
func (r *Result) IsSuccess() bool {
	return r.Error == nil && r.Mismatches == 0
}
