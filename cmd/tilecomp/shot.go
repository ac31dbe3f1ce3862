package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/richardwooding/tilecomp/internal/bench"
)

// ErrUnknownFormat indicates an output file extension other than .bmp or .png.
var ErrUnknownFormat = errors.New("output must end in .bmp or .png")

// ShotCmd runs a scene headless and saves the panel.
type ShotCmd struct {
	CompositorFlags
	SceneFlags

	Output string `arg:"" help:"Output file (.bmp or .png)."`
	Frames int    `help:"Number of frames to run before the capture." default:"60"`
}

// Run executes the shot command.
func (c *ShotCmd) Run() error {
	cfg, err := c.Compositor()
	if err != nil {
		return err
	}
	cfg.ReportInterval = 0
	if _, err := encoderFor(c.Output); err != nil {
		return err
	}

	result := bench.Run(bench.Options{
		Scene:  c.Scene,
		Script: c.Script,
		Frames: c.Frames,
		Seed:   c.Seed,
		Config: cfg,
	})
	if result.Error != nil {
		return result.Error
	}
	if err := saveImage(c.Output, result.Image); err != nil {
		return err
	}
	fmt.Printf("Saved %s after %d frames of %s\n", c.Output, result.Frames, result.Scene)
	return nil
}

func encoderFor(path string) (func(io.Writer, image.Image) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		return bmp.Encode, nil
	case ".png":
		return png.Encode, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// saveImage writes img to path in the format named by its extension.
func saveImage(path string, img image.Image) error {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // path from command line
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return f.Close()
}
