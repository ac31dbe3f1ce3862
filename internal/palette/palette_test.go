package palette

import (
	"sync"
	"testing"

	"github.com/richardwooding/tilecomp/internal/pixel"
)

func TestFromRGB(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    Color
		native  uint16
	}{
		{"black", 0, 0, 0, 0x0000, 0x0000},
		{"white", 255, 255, 255, 0xFFFF, 0xFFFF},
		{"red", 255, 0, 0, 0x00F8, 0xF800},
		{"green", 0, 255, 0, 0xE007, 0x07E0},
		{"blue", 0, 0, 255, 0x1F00, 0x001F},
		{"dark gray", 64, 64, 64, 0x0842, 0x4208},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromRGB(tt.r, tt.g, tt.b)
			if got != tt.want {
				t.Errorf("FromRGB(%d, %d, %d) = 0x%04X, want 0x%04X", tt.r, tt.g, tt.b, got, tt.want)
			}
			if got.Native() != tt.native {
				t.Errorf("Native() = 0x%04X, want 0x%04X", got.Native(), tt.native)
			}
		})
	}
}

func TestColorRGBRoundTrip(t *testing.T) {
	r, g, b := FromRGB(255, 255, 255).RGB()
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("white RGB() = (%d, %d, %d), want (255, 255, 255)", r, g, b)
	}

	r, g, b = FromRGB(0, 0, 0).RGB()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("black RGB() = (%d, %d, %d), want (0, 0, 0)", r, g, b)
	}
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		depth pixel.Depth
		count int
		first Color
		last  Color
	}{
		{pixel.Depth1, 2, FromRGB(255, 255, 255), FromRGB(0, 0, 0)},
		{pixel.Depth2, 4, FromRGB(255, 255, 255), FromRGB(0, 0, 0)},
		{pixel.Depth4, 16, FromRGB(255, 255, 255), FromRGB(0, 0, 0)},
		{pixel.Depth8, 256, FromRGB(0, 0, 0), FromRGB(255, 255, 255)},
	}

	for _, tt := range tests {
		t.Run(tt.depth.String(), func(t *testing.T) {
			colors := Defaults(tt.depth)
			if len(colors) != tt.count {
				t.Fatalf("len(Defaults) = %d, want %d", len(colors), tt.count)
			}
			if colors[0] != tt.first {
				t.Errorf("Defaults[0] = 0x%04X, want 0x%04X", colors[0], tt.first)
			}
			if colors[len(colors)-1] != tt.last {
				t.Errorf("Defaults[last] = 0x%04X, want 0x%04X", colors[len(colors)-1], tt.last)
			}
		})
	}

	// The colour cube ends at index 215 with white.
	if got := Defaults(pixel.Depth8)[215]; got != FromRGB(255, 255, 255) {
		t.Errorf("cube end = 0x%04X, want white", got)
	}
}

func TestTableSet(t *testing.T) {
	table := NewTable()
	before := table.Version()

	table.Set([]byte{255, 0, 0, 0, 255, 0}, 2)

	if table.Entry(0) != FromRGB(255, 0, 0) {
		t.Errorf("Entry(0) = 0x%04X, want red", table.Entry(0))
	}
	if table.Entry(1) != FromRGB(0, 255, 0) {
		t.Errorf("Entry(1) = 0x%04X, want green", table.Entry(1))
	}
	if table.Version() == before {
		t.Error("Version() did not change after Set")
	}
}

func TestTableSetClampsToData(t *testing.T) {
	table := NewTable()
	want := table.Entry(1)

	// n claims two entries but only one triplet is supplied.
	table.Set([]byte{1, 2, 3}, 2)

	if table.Entry(1) != want {
		t.Errorf("Entry(1) changed to 0x%04X with no data for it", table.Entry(1))
	}

	// Nothing to do: version must not move.
	v := table.Version()
	table.Set(nil, 10)
	if table.Version() != v {
		t.Error("Set with no data changed Version()")
	}
}

func TestTableOutOfRange(t *testing.T) {
	table := NewTable()
	table.SetEntry(-1, 0x1234)
	table.SetEntry(Size, 0x1234)

	if table.Entry(-1) != 0 || table.Entry(Size) != 0 {
		t.Error("Entry out of range should return 0")
	}
}

// TestTableConcurrentCopy exercises the writer and reader critical sections together.
// Run with -race.
func TestTableConcurrentCopy(t *testing.T) {
	table := NewTable()
	rgb := make([]byte, Size*3)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			for j := range rgb {
				rgb[j] = byte(i)
			}
			table.Set(rgb, Size)
		}
	}()
	go func() {
		defer wg.Done()
		var local [Size]Color
		for i := 0; i < 500; i++ {
			table.Copy(&local)
		}
	}()
	wg.Wait()
}
