package framebuffer

import (
	"errors"
	"testing"
)

type write struct {
	offset, size uint32
	pixel        bool
}

// recorder records notifications.
type recorder struct {
	writes []write
}

func (r *recorder) NotifyPixelWritten(offset uint32) {
	r.writes = append(r.writes, write{offset: offset, size: 1, pixel: true})
}

func (r *recorder) NotifyRangeWritten(offset, size uint32) {
	r.writes = append(r.writes, write{offset: offset, size: size})
}

func newTestBus(t *testing.T) (*Bus, *recorder) {
	t.Helper()
	bus, err := NewBus(0x1000, make([]byte, 640*360), DefaultVRAMBase)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	rec := &recorder{}
	bus.SetNotifier(rec)
	return bus, rec
}

func TestNewBusOverlap(t *testing.T) {
	if _, err := NewBus(0x2000, make([]byte, 16), 0x1000); !errors.Is(err, ErrOverlap) {
		t.Errorf("NewBus() error = %v, want ErrOverlap", err)
	}
}

func TestVRAMWrites(t *testing.T) {
	base := DefaultVRAMBase

	tests := []struct {
		name  string
		write func(b *Bus)
		want  write
	}{
		{"byte", func(b *Bus) { b.Write8(base+100, 1) }, write{100, 1, true}},
		{"word", func(b *Bus) { b.Write16(base+200, 0x1234) }, write{200, 2, false}},
		{"long", func(b *Bus) { b.Write32(base+300, 0xDEADBEEF) }, write{300, 4, false}},
		{"fill", func(b *Bus) { b.Fill(base+640, 640, 7) }, write{640, 640, false}},
		{"bytes", func(b *Bus) { b.WriteBytes(base+10, []byte{1, 2, 3}) }, write{10, 3, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, rec := newTestBus(t)
			tt.write(bus)
			if len(rec.writes) != 1 {
				t.Fatalf("notifications = %v, want 1", rec.writes)
			}
			if rec.writes[0] != tt.want {
				t.Errorf("notification = %+v, want %+v", rec.writes[0], tt.want)
			}
		})
	}
}

func TestBigEndian(t *testing.T) {
	bus, _ := newTestBus(t)
	base := DefaultVRAMBase

	bus.Write32(base, 0x11223344)
	if bus.VRAM()[0] != 0x11 || bus.VRAM()[3] != 0x44 {
		t.Errorf("VRAM = % X, want 11 22 33 44", bus.VRAM()[:4])
	}
	if got := bus.Read16(base + 2); got != 0x3344 {
		t.Errorf("Read16() = 0x%04X, want 0x3344", got)
	}
	if got := bus.Read32(base); got != 0x11223344 {
		t.Errorf("Read32() = 0x%08X, want 0x11223344", got)
	}
}

func TestRAMWritesDoNotNotify(t *testing.T) {
	bus, rec := newTestBus(t)

	bus.Write8(0x10, 0xAB)
	bus.Write32(0x20, 1)

	if len(rec.writes) != 0 {
		t.Errorf("RAM writes produced notifications: %v", rec.writes)
	}
	if got := bus.Read8(0x10); got != 0xAB {
		t.Errorf("Read8(0x10) = 0x%02X, want 0xAB", got)
	}
}

func TestUnmappedAccess(t *testing.T) {
	bus, rec := newTestBus(t)
	end := DefaultVRAMBase + 640*360

	bus.Write8(0x5000, 1)
	bus.Write32(end-2, 1) // straddles the end of VRAM
	bus.Fill(end-10, 20, 1)

	if len(rec.writes) != 0 {
		t.Errorf("unmapped writes produced notifications: %v", rec.writes)
	}
	if got := bus.Read32(end - 2); got != 0 {
		t.Errorf("Read32() across the end = 0x%08X, want 0", got)
	}
}

func TestCopyRAMToVRAM(t *testing.T) {
	bus, rec := newTestBus(t)
	bus.WriteBytes(0x100, []byte{9, 8, 7, 6})

	bus.Copy(DefaultVRAMBase+1000, 0x100, 4)

	if got := bus.Read32(DefaultVRAMBase + 1000); got != 0x09080706 {
		t.Errorf("copied long = 0x%08X, want 0x09080706", got)
	}
	if len(rec.writes) != 1 || rec.writes[0] != (write{1000, 4, false}) {
		t.Errorf("notifications = %v, want one range at 1000", rec.writes)
	}

	// VRAM to RAM does not notify.
	rec.writes = nil
	bus.Copy(0x200, DefaultVRAMBase+1000, 4)
	if len(rec.writes) != 0 {
		t.Errorf("VRAM to RAM copy notified: %v", rec.writes)
	}
}

func TestCopyOverlapping(t *testing.T) {
	bus, _ := newTestBus(t)
	base := DefaultVRAMBase
	bus.WriteBytes(base, []byte{1, 2, 3, 4, 5})

	bus.Copy(base+1, base, 4)

	want := []byte{1, 1, 2, 3, 4}
	for i, v := range want {
		if bus.VRAM()[i] != v {
			t.Fatalf("VRAM = %v, want %v", bus.VRAM()[:5], want)
		}
	}
}
