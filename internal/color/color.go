package color

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/icza/gox/imagex/colorx"
)

// Packed is an RGB color packed big-endian into the low 24 bits.
type Packed int

const (
	None       Packed = 0x000000
	Blue       Packed = 0x0000FF
	Cyan       Packed = 0x00FFFF
	DarkOrange Packed = 0xFF5F00
	DarkYellow Packed = 0xAFAF00
	Green      Packed = 0x00FF00
	LightGreen Packed = 0x7FFF00
	Orange     Packed = 0xFF7F00
	Mint       Packed = 0x3FFF3F
	Pink       Packed = 0xFF3F7F
	Purple     Packed = 0x7F00FF
	Red        Packed = 0xFF0000
	Sky        Packed = 0x007FFF
	White      Packed = 0xFFFFFF
	Yellow     Packed = 0xFFFF00
)

var names = map[string]Packed{
	"none":        None,
	"black":       None,
	"off":         None,
	"blue":        Blue,
	"cyan":        Cyan,
	"dark_orange": DarkOrange,
	"dark_yellow": DarkYellow,
	"green":       Green,
	"light_green": LightGreen,
	"orange":      Orange,
	"mint":        Mint,
	"pink":        Pink,
	"purple":      Purple,
	"red":         Red,
	"sky":         Sky,
	"white":       White,
	"yellow":      Yellow,
}

type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Decode splits the low 24 bits of c into its channels. Higher bits are
// ignored, so negative values decode too.
func Decode(c int) RGB {
	return RGB{
		R: uint8(0xFF & (c >> 16)),
		G: uint8(0xFF & (c >> 8)),
		B: uint8(0xFF & c),
	}
}

func (p Packed) RGB() RGB {
	return Decode(int(p))
}

func (p Packed) String() string {
	return fmt.Sprintf("#%06X", int(p)&0xFFFFFF)
}

func (c RGB) Packed() Packed {
	return Packed(int(c.R)<<16 | int(c.G)<<8 | int(c.B))
}

// Slice returns the channels in the [r, g, b] form WLED expects.
func (c RGB) Slice() []int {
	return []int{int(c.R), int(c.G), int(c.B)}
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// Parse accepts "#RRGGBB", "#RGB", "0xRRGGBB", decimal integers and palette
// names such as "yellow" or "dark_orange".
func Parse(s string) (Packed, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty color")
	}

	if p, ok := names[strings.ToLower(strings.ReplaceAll(s, "-", "_"))]; ok {
		return p, nil
	}

	if strings.HasPrefix(s, "#") {
		c, err := colorx.ParseHexColor(s)
		if err != nil {
			return 0, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return RGB{R: c.R, G: c.G, B: c.B}.Packed(), nil
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return Packed(v & 0xFFFFFF), nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	return Packed(v & 0xFFFFFF), nil
}
