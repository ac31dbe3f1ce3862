package display

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"golang.org/x/term"

	"github.com/richardwooding/tilecomp/internal/render"
)

// Default terminal size used when the output is not a terminal.
const (
	defaultTermCols = 80
	defaultTermRows = 24
)

// Term is a panel that draws a downsampled view of its surface on a 24-bit colour terminal.
// Each character cell shows two vertically stacked samples using an upper half block with
// the top sample as foreground and the bottom one as background.
type Term struct {
	mu      sync.Mutex
	out     *bufio.Writer
	fd      int
	surface *render.Surface
	win     Window
	cols    int
	rows    int
	changed bool
	started bool
	closed  bool
}

// NewTerm returns a terminal panel of width x height pixels drawing to out. fd is the file
// descriptor used to query the terminal size; when it is not a terminal an 80x24 grid is
// used.
func NewTerm(out io.Writer, fd, width, height int) *Term {
	t := &Term{
		out:     bufio.NewWriterSize(out, 64*1024),
		fd:      fd,
		surface: render.NewSurface(width, height),
		cols:    defaultTermCols,
		rows:    defaultTermRows,
	}
	t.refreshSize()
	return t
}

func (t *Term) refreshSize() {
	if !term.IsTerminal(t.fd) {
		return
	}
	cols, rows, err := term.GetSize(t.fd)
	if err != nil || cols <= 0 || rows <= 1 {
		return
	}
	// Leave the last row free so the terminal does not scroll.
	t.cols, t.rows = cols, rows-1
}

// SetSize overrides the character grid.
func (t *Term) SetSize(cols, rows int) {
	t.mu.Lock()
	t.cols, t.rows = max(cols, 1), max(rows, 1)
	t.changed = true
	t.mu.Unlock()
}

// Width implements Panel.
func (t *Term) Width() int { return t.surface.Width() }

// Height implements Panel.
func (t *Term) Height() int { return t.surface.Height() }

// SetAddrWindow implements Panel.
func (t *Term) SetAddrWindow(x, y, w, h int) {
	t.mu.Lock()
	t.win.Set(x, y, w, h)
	t.mu.Unlock()
}

// WritePixels implements Panel.
func (t *Term) WritePixels(buf []uint16, count int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.win.Write(t.surface, buf[:min(count, len(buf))])
	t.changed = true
	return nil
}

// Present implements Presenter. The terminal is redrawn only when pixels changed since the
// previous call.
func (t *Term) Present() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if !t.changed {
		return nil
	}
	t.changed = false

	if !t.started {
		// Hide the cursor and clear the screen once.
		fmt.Fprint(t.out, "\x1b[?25l\x1b[2J")
		t.started = true
	}
	fmt.Fprint(t.out, "\x1b[H")

	sw, sh := t.surface.Width(), t.surface.Height()
	for row := 0; row < t.rows; row++ {
		yTop := (row * 2) * sh / (t.rows * 2)
		yBot := (row*2 + 1) * sh / (t.rows * 2)
		for col := 0; col < t.cols; col++ {
			x := col * sw / t.cols
			tr, tg, tb := t.surface.RGBAt(x, yTop)
			br, bg, bb := t.surface.RGBAt(x, yBot)
			fmt.Fprintf(t.out, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀", tr, tg, tb, br, bg, bb)
		}
		fmt.Fprint(t.out, "\x1b[0m\r\n")
	}
	return t.out.Flush()
}

// Close restores the cursor and makes further writes fail.
func (t *Term) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.started {
		fmt.Fprint(t.out, "\x1b[0m\x1b[?25h\r\n")
	}
	return t.out.Flush()
}
