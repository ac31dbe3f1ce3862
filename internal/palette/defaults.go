package palette

import "github.com/richardwooding/tilecomp/internal/pixel"

// mac16 is the classic 16-colour CLUT. Index 0 is white and index 15 is black.
var mac16 = [16][3]uint8{
	{255, 255, 255}, // White
	{255, 255, 0},   // Yellow
	{255, 102, 0},   // Orange
	{221, 0, 0},     // Red
	{255, 0, 153},   // Magenta
	{51, 0, 153},    // Purple
	{0, 0, 204},     // Blue
	{0, 153, 255},   // Cyan
	{0, 170, 0},     // Green
	{0, 102, 0},     // Dark green
	{102, 51, 0},    // Brown
	{153, 102, 51},  // Tan
	{187, 187, 187}, // Light gray
	{136, 136, 136}, // Medium gray
	{68, 68, 68},    // Dark gray
	{0, 0, 0},       // Black
}

// Defaults returns the palette installed when the screen switches to depth d. Only the first
// d.Colors() entries are returned.
func Defaults(d pixel.Depth) []Color {
	switch d {
	case pixel.Depth1:
		return []Color{
			FromRGB(255, 255, 255),
			FromRGB(0, 0, 0),
		}

	case pixel.Depth2:
		return []Color{
			FromRGB(255, 255, 255),
			FromRGB(170, 170, 170),
			FromRGB(85, 85, 85),
			FromRGB(0, 0, 0),
		}

	case pixel.Depth4:
		colors := make([]Color, len(mac16))
		for i, c := range mac16 {
			colors[i] = FromRGB(c[0], c[1], c[2])
		}
		return colors

	default:
		// 6x6x6 colour cube followed by a 40-step gray ramp.
		colors := make([]Color, 0, Size)
		for r := 0; r < 6; r++ {
			for g := 0; g < 6; g++ {
				for b := 0; b < 6; b++ {
					colors = append(colors, FromRGB(uint8(r*51), uint8(g*51), uint8(b*51))) //nolint:gosec // at most 255
				}
			}
		}
		for i := 0; i < 40; i++ {
			gray := uint8(i * 255 / 39) //nolint:gosec // at most 255
			colors = append(colors, FromRGB(gray, gray, gray))
		}
		return colors
	}
}
