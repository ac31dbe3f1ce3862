// Package main provides the tilecomp CLI application.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/richardwooding/tilecomp/internal/compositor"
	"github.com/richardwooding/tilecomp/internal/pixel"
)

var (
	// ErrBenchFailed indicates a benchmark run that errored or left the panel out of sync.
	ErrBenchFailed = errors.New("benchmark failed")

	// ErrInvalidScale indicates the scale factor is out of valid range.
	ErrInvalidScale = errors.New("scale must be between 1 and 4")

	// ErrUnknownPanel indicates a --panel value with no backend.
	ErrUnknownPanel = errors.New("unknown panel")
)

// CLI represents the command-line interface structure.
type CLI struct {
	Config   kong.ConfigFlag `help:"Load flag defaults from a JSON file."`
	LogLevel string          `help:"Log level (debug, info, warn, error)." default:"info" enum:"debug,info,warn,error"`

	Run   RunCmd   `cmd:"" help:"Run a scene on a panel."`
	Bench BenchCmd `cmd:"" help:"Run a scene headless and report compositor statistics."`
	Info  InfoCmd  `cmd:"" help:"Display geometry and mode information."`
	Shot  ShotCmd  `cmd:"" help:"Run a scene headless and save the panel as BMP or PNG."`
}

// CompositorFlags are the compositor tunables shared by every command.
type CompositorFlags struct {
	Width       int           `help:"Source width in pixels." default:"640"`
	Height      int           `help:"Source height in pixels." default:"360"`
	Scale       int           `help:"Integer scale to the panel (1-4)." default:"2"`
	Tile        int           `help:"Tile edge in source pixels." default:"40"`
	Threshold   int           `help:"Dirty tile percentage above which a full update is used." default:"80"`
	MinInterval time.Duration `help:"Minimum time between rendered frames." default:"67ms"`
	Timeout     time.Duration `help:"Longest wait for a frame-ready signal." default:"67ms"`
	Compare     bool          `help:"Detect changes by frame comparison instead of write tracking."`
	Depth       string        `help:"Initial colour depth (1, 2, 4 or 8)." default:"8"`
	Budget      int           `help:"Memory budget for compositor buffers, in MiB." default:"8"`
	Report      time.Duration `help:"Performance report interval, 0 to disable." default:"5s"`
	Startup     time.Duration `help:"Delay before the first render cycle." default:"0s"`
	Grace       time.Duration `help:"Longest wait for the render loop to exit on shutdown." default:"100ms"`
}

// Compositor returns the compositor configuration selected by the flags.
func (f *CompositorFlags) Compositor() (compositor.Config, error) {
	if f.Scale < 1 || f.Scale > 4 {
		return compositor.Config{}, fmt.Errorf("%w: got %d", ErrInvalidScale, f.Scale)
	}
	depth, err := pixel.ParseDepth(f.Depth)
	if err != nil {
		return compositor.Config{}, err
	}

	cfg := compositor.DefaultConfig()
	cfg.Width, cfg.Height = f.Width, f.Height
	cfg.Scale = f.Scale
	cfg.TileWidth, cfg.TileHeight = f.Tile, f.Tile
	cfg.ThresholdPercent = f.Threshold
	cfg.MinFrameInterval = f.MinInterval
	cfg.FrameTimeout = f.Timeout
	cfg.WriteTracking = !f.Compare
	cfg.Depth = depth
	cfg.MemoryBudget = f.Budget << 20
	cfg.ReportInterval = f.Report
	cfg.StartupDelay = f.Startup
	cfg.ShutdownGrace = f.Grace
	if err := cfg.Validate(); err != nil {
		return compositor.Config{}, err
	}
	return cfg, nil
}

// SceneFlags select the workload.
type SceneFlags struct {
	Scene  string `help:"Built-in scene (cursor, scroll, fill, palette, modes, idle)." default:"cursor"`
	Script string `help:"Lua scene file; overrides --scene." type:"existingfile"`
	Seed   uint64 `help:"Random seed for scenes." default:"1"`
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("tilecomp"),
		kong.Description("A tile-based dirty-region display compositor for emulated framebuffers."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON),
	)
	setupLogging(cli.LogLevel)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
