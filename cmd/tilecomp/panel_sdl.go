//go:build sdl

package main

import (
	"github.com/richardwooding/tilecomp/internal/display"
)

type closingPanel interface {
	display.Panel
	Close() error
}

func newSDLPanel(title string, width, height int) (closingPanel, func() bool, error) {
	p, err := display.NewSDL(title, width, height)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Poll, nil
}
