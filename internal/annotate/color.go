package annotate

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// HighlightAlpha is 0.3 expressed on the 0-255 scale.
const HighlightAlpha = 77

// PaletteColor pairs a display name with its colour.
type PaletteColor struct {
	Name  string
	Color color.NRGBA
}

var palette = []PaletteColor{
	{"Red", color.NRGBA{0xff, 0x00, 0x00, 0xff}},
	{"Green", color.NRGBA{0x00, 0xff, 0x00, 0xff}},
	{"Blue", color.NRGBA{0x00, 0x00, 0xff, 0xff}},
	{"Yellow", color.NRGBA{0xff, 0xff, 0x00, 0xff}},
	{"Purple", color.NRGBA{0xff, 0x00, 0xff, 0xff}},
	{"Black", color.NRGBA{0x00, 0x00, 0x00, 0xff}},
	{"White", color.NRGBA{0xff, 0xff, 0xff, 0xff}},
}

// Palette returns the editor colour choices. The first entry is the default.
func Palette() []PaletteColor {
	out := make([]PaletteColor, len(palette))
	copy(out, palette)
	return out
}

// DefaultColor is the initial drawing colour.
func DefaultColor() color.NRGBA { return palette[0].Color }

// ParseColor accepts "#rrggbb", "rrggbb", "#rrggbbaa", a palette name or an
// SVG colour name.
func ParseColor(s string) (color.NRGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return color.NRGBA{}, fmt.Errorf("color cannot be empty")
	}
	for _, p := range palette {
		if strings.EqualFold(p.Name, name) {
			return p.Color, nil
		}
	}
	if c, ok := colornames.Map[name]; ok {
		return color.NRGBA{c.R, c.G, c.B, c.A}, nil
	}
	hex := strings.TrimPrefix(name, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		return color.NRGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}, nil
	}
	return color.NRGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// Hex formats c as #RRGGBB, appending alpha when not opaque.
func Hex(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// Opaque drops any alpha from c.
func Opaque(c color.NRGBA) color.NRGBA {
	c.A = 0xff
	return c
}

// HighlightColor returns c at the fixed highlight alpha.
func HighlightColor(c color.NRGBA) color.NRGBA {
	c.A = HighlightAlpha
	return c
}
