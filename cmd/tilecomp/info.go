package main

import (
	"fmt"

	"github.com/richardwooding/tilecomp/internal/pixel"
)

// InfoCmd displays the compositor geometry.
type InfoCmd struct {
	CompositorFlags
}

// Run executes the info command.
func (c *InfoCmd) Run() error {
	cfg, err := c.Compositor()
	if err != nil {
		return err
	}
	grid, err := cfg.Grid()
	if err != nil {
		return err
	}

	fmt.Printf("Geometry:\n")
	fmt.Printf("  Source:         %dx%d\n", cfg.Width, cfg.Height)
	fmt.Printf("  Panel:          %dx%d (scale %d)\n", cfg.PanelWidth(), cfg.PanelHeight(), cfg.Scale)
	fmt.Printf("  Tiles:          %dx%d px, %dx%d grid, %d tiles\n",
		grid.TileW, grid.TileH, grid.Cols, grid.Rows, grid.Total())
	fmt.Printf("  Full update:    above %d dirty tiles (%d%%)\n", grid.Threshold(cfg.ThresholdPercent), cfg.ThresholdPercent)
	fmt.Printf("  Frame pacing:   timeout %v, minimum interval %v\n", cfg.FrameTimeout, cfg.MinFrameInterval)
	fmt.Printf("  Lifecycle:      startup delay %v, shutdown grace %v\n", cfg.StartupDelay, cfg.ShutdownGrace)
	fmt.Printf("  Tracking:       %s\n", trackingName(cfg.WriteTracking))
	fmt.Printf("Modes:\n")
	for _, d := range pixel.Depths {
		l := pixel.NewLayout(d, cfg.Width, cfg.Height)
		fmt.Printf("  %-5s %3d colours, %2d px/byte, %4d bytes/row, %7d bytes\n",
			d, d.Colors(), l.PixelsPerByte, l.BytesPerRow, l.FrameSize())
	}
	return nil
}

func trackingName(writeTracking bool) string {
	if writeTracking {
		return "write-time"
	}
	return "frame comparison"
}
