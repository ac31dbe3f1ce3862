package compositor

import (
	"errors"
	"fmt"
	"time"

	"github.com/richardwooding/tilecomp/internal/dirty"
	"github.com/richardwooding/tilecomp/internal/pixel"
)

// ErrInvalidConfig indicates a configuration the compositor cannot run with.
var ErrInvalidConfig = errors.New("invalid compositor config")

// Default configuration values.
const (
	DefaultWidth            = 640
	DefaultHeight           = 360
	DefaultScale            = 2
	DefaultTileSize         = 40
	DefaultThresholdPercent = 80
	DefaultFrameTimeout     = 67 * time.Millisecond
	DefaultMinFrameInterval = 67 * time.Millisecond
	DefaultReportInterval   = 5 * time.Second
	DefaultShutdownGrace    = 100 * time.Millisecond
	DefaultMemoryBudget     = 8 << 20
)

// Config holds the init-time settings of a compositor. Nothing in it can change while the
// scheduler runs.
type Config struct {
	// Source screen size in pixels.
	Width  int
	Height int

	// Scale is the integer upscale factor from source to panel.
	Scale int

	TileWidth  int
	TileHeight int

	// ThresholdPercent is the share of dirty tiles above which a full update is used.
	ThresholdPercent int

	// FrameTimeout bounds how long the scheduler sleeps without a frame-ready signal.
	FrameTimeout time.Duration

	// MinFrameInterval is the minimum time between two renders.
	MinFrameInterval time.Duration

	// WriteTracking selects write-time dirty marking. When false, changed tiles are found by
	// comparing whole frames.
	WriteTracking bool

	// Depth is the colour depth at start-up.
	Depth pixel.Depth

	// ReportInterval is the period of the performance log. Zero disables it.
	ReportInterval time.Duration

	// MemoryBudget caps the bytes allocated for frame buffers. Zero is unlimited.
	MemoryBudget int

	// StartupDelay is waited once before the first cycle.
	StartupDelay time.Duration

	// ShutdownGrace bounds how long Stop waits for the scheduler to exit.
	ShutdownGrace time.Duration
}

// DefaultConfig returns the configuration for a 640x360 source on a 1280x720 panel.
func DefaultConfig() Config {
	return Config{
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		Scale:            DefaultScale,
		TileWidth:        DefaultTileSize,
		TileHeight:       DefaultTileSize,
		ThresholdPercent: DefaultThresholdPercent,
		FrameTimeout:     DefaultFrameTimeout,
		MinFrameInterval: DefaultMinFrameInterval,
		WriteTracking:    true,
		Depth:            pixel.Depth8,
		ReportInterval:   DefaultReportInterval,
		MemoryBudget:     DefaultMemoryBudget,
		ShutdownGrace:    DefaultShutdownGrace,
	}
}

// PanelWidth returns the panel width the configuration expects.
func (c Config) PanelWidth() int { return c.Width * c.Scale }

// PanelHeight returns the panel height the configuration expects.
func (c Config) PanelHeight() int { return c.Height * c.Scale }

// Grid returns the tile grid of the configuration.
func (c Config) Grid() (dirty.Grid, error) {
	return dirty.NewGrid(c.Width, c.Height, c.TileWidth, c.TileHeight)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := c.Grid(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Scale < 1 {
		return fmt.Errorf("%w: scale %d", ErrInvalidConfig, c.Scale)
	}
	if c.ThresholdPercent < 1 || c.ThresholdPercent > 100 {
		return fmt.Errorf("%w: threshold %d%% outside 1..100", ErrInvalidConfig, c.ThresholdPercent)
	}
	if c.FrameTimeout <= 0 {
		return fmt.Errorf("%w: frame timeout %v", ErrInvalidConfig, c.FrameTimeout)
	}
	if c.MinFrameInterval < 0 {
		return fmt.Errorf("%w: minimum frame interval %v", ErrInvalidConfig, c.MinFrameInterval)
	}
	if !c.Depth.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, pixel.ErrInvalidDepth)
	}
	if c.ReportInterval < 0 || c.StartupDelay < 0 {
		return fmt.Errorf("%w: negative interval", ErrInvalidConfig)
	}
	if c.ShutdownGrace <= 0 {
		return fmt.Errorf("%w: shutdown grace %v", ErrInvalidConfig, c.ShutdownGrace)
	}
	return nil
}
