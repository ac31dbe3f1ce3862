//go:build !sdl

package main

import (
	"errors"

	"github.com/richardwooding/tilecomp/internal/display"
)

// ErrNoSDL indicates a binary built without the sdl tag.
var ErrNoSDL = errors.New("SDL panel not available, rebuild with -tags sdl")

type closingPanel interface {
	display.Panel
	Close() error
}

func newSDLPanel(string, int, int) (closingPanel, func() bool, error) {
	return nil, nil, ErrNoSDL
}
