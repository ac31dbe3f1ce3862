package main

import (
	"fmt"

	"github.com/richardwooding/tilecomp/internal/bench"
)

// BenchCmd runs a scene headless and reports statistics.
type BenchCmd struct {
	CompositorFlags
	SceneFlags

	Frames  int  `help:"Number of frames to run." default:"300"`
	Both    bool `help:"Run with write tracking and with frame comparison, back to back."`
	Verbose bool `short:"v" help:"Show compositor logs while running."`
}

// Run executes the bench command.
func (c *BenchCmd) Run() error {
	cfg, err := c.Compositor()
	if err != nil {
		return err
	}
	if !c.Verbose {
		cfg.ReportInterval = 0
	}

	modes := []bool{cfg.WriteTracking}
	if c.Both {
		modes = []bool{true, false}
	}

	failed := false
	for _, tracking := range modes {
		cfg.WriteTracking = tracking
		fmt.Printf("Running %d frames (%s)\n", c.Frames, trackingName(tracking))
		result := bench.Run(bench.Options{
			Scene:  c.Scene,
			Script: c.Script,
			Frames: c.Frames,
			Seed:   c.Seed,
			Config: cfg,
		})
		fmt.Print(result.String())
		if !result.IsSuccess() {
			failed = true
		}
	}

	if failed {
		return ErrBenchFailed
	}
	return nil
}
