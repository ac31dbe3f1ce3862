package workload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/richardwooding/tilecomp/internal/pixel"
)

// ErrNoFrameFunc indicates a script that does not define a global frame function.
var ErrNoFrameFunc = errors.New("script does not define frame(n)")

// Script is a scene written in Lua. The script defines a global function frame(n) that is
// called once per frame with the frame number and draws through the functions below.
//
//	poke(addr, v)  pokew(addr, v)  pokel(addr, v)   bus stores, 8/16/32 bits
//	peek(addr)     peekw(addr)     peekl(addr)      bus loads
//	fill(addr, n, v)  copy(dst, src, n)             bus block fill and move
//	pixel(x, y [, v])                               read or write one pixel
//	rect(x, y, w, h, v)   clear(v)
//	palette(i, r, g, b)   mode(bits)
//	width()  height()  bpr()  depth()  vram()  random(n)
type Script struct {
	name    string
	L       *lua.LState
	frameFn lua.LValue
	timeout time.Duration

	// cur is the frame being stepped; the bound functions read it.
	cur *Frame
}

// LoadScript reads and compiles the script at path.
func LoadScript(path string, timeout time.Duration) (*Script, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path from command line
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return NewScript(filepath.Base(path), string(src), timeout)
}

// NewScript compiles src. A positive timeout bounds each call to frame.
func NewScript(name, src string, timeout time.Duration) (*Script, error) {
	s := &Script{
		name:    name,
		L:       lua.NewState(),
		timeout: timeout,
	}
	s.bind()

	if err := s.L.DoString(src); err != nil {
		s.L.Close()
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	s.frameFn = s.L.GetGlobal("frame")
	if s.frameFn.Type() != lua.LTFunction {
		s.L.Close()
		return nil, fmt.Errorf("script %s: %w", name, ErrNoFrameFunc)
	}
	return s, nil
}

// Name implements Scene.
func (s *Script) Name() string { return "script:" + s.name }

// Step implements Scene.
func (s *Script) Step(f *Frame) error {
	s.cur = f
	defer func() { s.cur = nil }()

	if s.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
	}

	err := s.L.CallByParam(lua.P{Fn: s.frameFn, NRet: 0, Protect: true}, lua.LNumber(f.N))
	if err != nil {
		return fmt.Errorf("script %s frame %d: %w", s.name, f.N, err)
	}
	return nil
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.L.Close()
}

func (s *Script) bind() {
	fns := map[string]lua.LGFunction{
		"poke": func(L *lua.LState) int {
			s.cur.Bus.Write8(addrArg(L, 1), uint8(L.CheckInt(2))) //nolint:gosec // truncation intended
			return 0
		},
		"pokew": func(L *lua.LState) int {
			s.cur.Bus.Write16(addrArg(L, 1), uint16(L.CheckInt(2))) //nolint:gosec // truncation intended
			return 0
		},
		"pokel": func(L *lua.LState) int {
			s.cur.Bus.Write32(addrArg(L, 1), uint32(L.CheckInt64(2))) //nolint:gosec // truncation intended
			return 0
		},
		"peek": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.cur.Bus.Read8(addrArg(L, 1))))
			return 1
		},
		"peekw": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.cur.Bus.Read16(addrArg(L, 1))))
			return 1
		},
		"peekl": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.cur.Bus.Read32(addrArg(L, 1))))
			return 1
		},
		"fill": func(L *lua.LState) int {
			s.cur.Bus.Fill(addrArg(L, 1), L.CheckInt(2), uint8(L.CheckInt(3))) //nolint:gosec // truncation intended
			return 0
		},
		"copy": func(L *lua.LState) int {
			s.cur.Bus.Copy(addrArg(L, 1), addrArg(L, 2), L.CheckInt(3))
			return 0
		},
		"pixel": func(L *lua.LState) int {
			c := s.cur.Canvas()
			x, y := L.CheckInt(1), L.CheckInt(2)
			if L.GetTop() >= 3 {
				c.SetPixel(x, y, uint8(L.CheckInt(3))) //nolint:gosec // truncation intended
				return 0
			}
			L.Push(lua.LNumber(c.Pixel(x, y)))
			return 1
		},
		"rect": func(L *lua.LState) int {
			s.cur.Canvas().FillRect(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4),
				uint8(L.CheckInt(5))) //nolint:gosec // truncation intended
			return 0
		},
		"clear": func(L *lua.LState) int {
			s.cur.Canvas().Clear(uint8(L.CheckInt(1))) //nolint:gosec // truncation intended
			return 0
		},
		"palette": func(L *lua.LState) int {
			s.cur.Host.SetPaletteEntry(L.CheckInt(1),
				uint8(L.CheckInt(2)), uint8(L.CheckInt(3)), uint8(L.CheckInt(4))) //nolint:gosec // truncation intended
			return 0
		},
		"mode": func(L *lua.LState) int {
			d, err := pixel.ParseDepth(L.CheckString(1))
			if err == nil {
				err = s.cur.Host.SwitchMode(d)
			}
			if err != nil {
				L.RaiseError("mode: %v", err)
			}
			return 0
		},
		"width": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.cur.Host.Layout().Width))
			return 1
		},
		"height": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.cur.Host.Layout().Height))
			return 1
		},
		"bpr": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.cur.Host.Layout().BytesPerRow))
			return 1
		},
		"depth": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.cur.Host.Layout().Depth))
			return 1
		},
		"vram": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.cur.Bus.VRAMBase()))
			return 1
		},
		"random": func(L *lua.LState) int {
			n := L.CheckInt(1)
			if n <= 0 {
				L.ArgError(1, "must be positive")
			}
			L.Push(lua.LNumber(s.cur.Rand.IntN(n)))
			return 1
		},
	}
	for name, fn := range fns {
		s.L.SetGlobal(name, s.L.NewFunction(fn))
	}
}

func addrArg(L *lua.LState, n int) uint32 {
	v := L.CheckInt64(n)
	if v < 0 || v > 0xFFFF_FFFF {
		L.ArgError(n, "address out of range")
	}
	return uint32(v)
}
