// Package framebuffer implements the emulated CPU's memory bus over main RAM and the video
// framebuffer.
//
// Accesses are big-endian like the 68k. Every write that lands in video RAM is reported to a
// Notifier with its byte offset into the framebuffer, which is how the compositor learns
// which tiles changed.
package framebuffer

import (
	"encoding/binary"
	"errors"
)

// DefaultVRAMBase is the bus address of the first framebuffer byte.
const DefaultVRAMBase uint32 = 0x00A0_0000

// ErrOverlap indicates main RAM that would overlap the framebuffer window.
var ErrOverlap = errors.New("main RAM overlaps video RAM")

// Notifier receives framebuffer write notifications.
type Notifier interface {
	NotifyPixelWritten(offset uint32)
	NotifyRangeWritten(offset, size uint32)
}

// Bus represents the CPU memory bus.
type Bus struct {
	// Main RAM at address 0.
	ram []byte

	// Video RAM at vramBase.
	vram     []byte
	vramBase uint32

	notifier Notifier
}

// NewBus creates a bus with ramSize bytes of main RAM at address 0 and vram mapped at base.
func NewBus(ramSize int, vram []byte, base uint32) (*Bus, error) {
	if uint64(ramSize) > uint64(base) {
		return nil, ErrOverlap
	}
	return &Bus{
		ram:      make([]byte, ramSize),
		vram:     vram,
		vramBase: base,
	}, nil
}

// SetNotifier sets the receiver of video RAM write notifications.
func (b *Bus) SetNotifier(n Notifier) {
	b.notifier = n
}

// VRAMBase returns the bus address of the framebuffer.
func (b *Bus) VRAMBase() uint32 {
	return b.vramBase
}

// VRAM returns the framebuffer.
func (b *Bus) VRAM() []byte {
	return b.vram
}

// RAMSize returns the size of main RAM.
func (b *Bus) RAMSize() int {
	return len(b.ram)
}

// region returns the n bytes at addr if they lie in one region, and whether that region is
// video RAM along with the offset into it.
func (b *Bus) region(addr uint32, n int) (mem []byte, video bool, off int) {
	end := uint64(addr) + uint64(n)
	switch {
	case end <= uint64(len(b.ram)):
		return b.ram[addr:end], false, int(addr)

	case addr >= b.vramBase && end <= uint64(b.vramBase)+uint64(len(b.vram)):
		off = int(addr - b.vramBase)
		return b.vram[off : off+n], true, off
	}
	return nil, false, 0
}

// Read8 reads a byte. Unmapped addresses read as 0.
func (b *Bus) Read8(addr uint32) uint8 {
	mem, _, _ := b.region(addr, 1)
	if mem == nil {
		return 0
	}
	return mem[0]
}

// Read16 reads a big-endian word.
func (b *Bus) Read16(addr uint32) uint16 {
	mem, _, _ := b.region(addr, 2)
	if mem == nil {
		return 0
	}
	return binary.BigEndian.Uint16(mem)
}

// Read32 reads a big-endian long.
func (b *Bus) Read32(addr uint32) uint32 {
	mem, _, _ := b.region(addr, 4)
	if mem == nil {
		return 0
	}
	return binary.BigEndian.Uint32(mem)
}

// Write8 writes a byte. Writes to unmapped addresses are ignored.
func (b *Bus) Write8(addr uint32, v uint8) {
	mem, video, off := b.region(addr, 1)
	if mem == nil {
		return
	}
	mem[0] = v
	if video && b.notifier != nil {
		b.notifier.NotifyPixelWritten(uint32(off)) //nolint:gosec // offset within vram
	}
}

// Write16 writes a big-endian word.
func (b *Bus) Write16(addr uint32, v uint16) {
	mem, video, off := b.region(addr, 2)
	if mem == nil {
		return
	}
	binary.BigEndian.PutUint16(mem, v)
	b.notifyRange(video, off, 2)
}

// Write32 writes a big-endian long.
func (b *Bus) Write32(addr uint32, v uint32) {
	mem, video, off := b.region(addr, 4)
	if mem == nil {
		return
	}
	binary.BigEndian.PutUint32(mem, v)
	b.notifyRange(video, off, 4)
}

// Fill sets n bytes starting at addr to v.
func (b *Bus) Fill(addr uint32, n int, v uint8) {
	if n <= 0 {
		return
	}
	mem, video, off := b.region(addr, n)
	if mem == nil {
		return
	}
	for i := range mem {
		mem[i] = v
	}
	b.notifyRange(video, off, n)
}

// Copy moves n bytes from src to dst. The ranges may overlap and may be in different
// regions.
func (b *Bus) Copy(dst, src uint32, n int) {
	if n <= 0 {
		return
	}
	from, _, _ := b.region(src, n)
	to, video, off := b.region(dst, n)
	if from == nil || to == nil {
		return
	}
	copy(to, from)
	b.notifyRange(video, off, n)
}

// WriteBytes copies p to addr.
func (b *Bus) WriteBytes(addr uint32, p []byte) {
	if len(p) == 0 {
		return
	}
	mem, video, off := b.region(addr, len(p))
	if mem == nil {
		return
	}
	copy(mem, p)
	b.notifyRange(video, off, len(p))
}

func (b *Bus) notifyRange(video bool, off, n int) {
	if !video || b.notifier == nil {
		return
	}
	b.notifier.NotifyRangeWritten(uint32(off), uint32(n)) //nolint:gosec // bounded by vram size
}

// Reset clears main RAM. Video RAM is left to its owner.
func (b *Bus) Reset() {
	clear(b.ram)
}
