// Package dirty tracks which tiles of the source screen changed since the last render.
//
// The screen is split into a fixed grid of equal tiles. Producers mark tiles at write time
// through a Tracker; the consumer drains the accumulated marks once per cycle into a Set.
// When write-time tracking is disabled, Compare detects changed tiles by comparing two
// full frames instead.
package dirty

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid indicates tile dimensions that do not evenly divide the screen.
var ErrInvalidGrid = errors.New("invalid tile grid")

// Grid is a fixed partition of the screen into Cols x Rows tiles.
type Grid struct {
	ScreenW int
	ScreenH int
	TileW   int
	TileH   int
	Cols    int
	Rows    int
}

// NewGrid returns the grid for a screenW x screenH screen split into tileW x tileH tiles.
func NewGrid(screenW, screenH, tileW, tileH int) (Grid, error) {
	if screenW <= 0 || screenH <= 0 || tileW <= 0 || tileH <= 0 {
		return Grid{}, fmt.Errorf("%w: screen %dx%d, tile %dx%d", ErrInvalidGrid, screenW, screenH, tileW, tileH)
	}
	if screenW%tileW != 0 || screenH%tileH != 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d tiles do not divide %dx%d", ErrInvalidGrid, tileW, tileH, screenW, screenH)
	}
	return Grid{
		ScreenW: screenW,
		ScreenH: screenH,
		TileW:   tileW,
		TileH:   tileH,
		Cols:    screenW / tileW,
		Rows:    screenH / tileH,
	}, nil
}

// Total returns the number of tiles.
func (g Grid) Total() int {
	return g.Cols * g.Rows
}

// Words returns the number of 32-bit words needed for one bit per tile.
func (g Grid) Words() int {
	return (g.Total() + 31) / 32
}

// Index returns the tile index of (col, row).
func (g Grid) Index(col, row int) int {
	return row*g.Cols + col
}

// Coords returns the column and row of tile idx.
func (g Grid) Coords(idx int) (col, row int) {
	return idx % g.Cols, idx / g.Cols
}

// Origin returns the top-left pixel of tile idx.
func (g Grid) Origin(idx int) (x, y int) {
	col, row := g.Coords(idx)
	return col * g.TileW, row * g.TileH
}

// TileAt returns the index of the tile containing pixel (x, y), or -1 when the pixel is
// off screen.
func (g Grid) TileAt(x, y int) int {
	if x < 0 || y < 0 || x >= g.ScreenW || y >= g.ScreenH {
		return -1
	}
	return g.Index(x/g.TileW, y/g.TileH)
}

// Threshold returns the dirty tile count for percent of the grid, rounded down.
// A cycle switches to a full update when its dirty count is greater than the threshold.
func (g Grid) Threshold(percent int) int {
	return g.Total() * percent / 100
}

// ExceedsThreshold reports whether count dirty tiles should be rendered as a full update.
func (g Grid) ExceedsThreshold(count, percent int) bool {
	return count > g.Threshold(percent)
}
