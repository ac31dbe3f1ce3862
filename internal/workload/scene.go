// Package workload drives the compositor the way an emulated machine would: scenes write
// to video RAM through the memory bus, change palettes and switch modes, one frame at a
// time, from their own goroutine.
package workload

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/richardwooding/tilecomp/internal/framebuffer"
	"github.com/richardwooding/tilecomp/internal/pixel"
)

// ErrUnknownScene indicates a scene name that is not built in.
var ErrUnknownScene = errors.New("unknown scene")

// Host is the video side of the emulated machine.
type Host interface {
	Layout() pixel.Layout
	SwitchMode(d pixel.Depth) error
	SetPalette(rgb []byte, n int)
	SetPaletteEntry(i int, r, g, b uint8)
	SignalFrameReady()
}

// Frame is the state handed to a scene for one step.
type Frame struct {
	N    int
	Bus  *framebuffer.Bus
	Host Host
	Rand *rand.Rand
}

// Canvas returns a canvas in the host's current layout.
func (f *Frame) Canvas() Canvas {
	return NewCanvas(f.Bus, f.Host.Layout())
}

// Scene produces video memory traffic, one frame per Step.
type Scene interface {
	Name() string
	Step(f *Frame) error
}

var builtins = map[string]func() Scene{
	"cursor":  func() Scene { return &Cursor{} },
	"scroll":  func() Scene { return &Scroll{Lines: 4} },
	"fill":    func() Scene { return &Fill{Rects: 8} },
	"palette": func() Scene { return &PaletteCycle{} },
	"modes":   func() Scene { return &ModeCycle{Period: 30} },
	"idle":    func() Scene { return Idle{} },
}

// Names returns the built-in scene names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New returns a fresh instance of the built-in scene name.
func New(name string) (Scene, error) {
	mk, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
	}
	return mk(), nil
}
