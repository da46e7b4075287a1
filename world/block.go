package world

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type BlockType uint8

const (
	Debug BlockType = iota
	Stone
	Dirt
	Grass
	Sand
	Water
	Wood
	Leaves
)

var blockTypeNames = [...]string{
	Debug:  "debug",
	Stone:  "stone",
	Dirt:   "dirt",
	Grass:  "grass",
	Sand:   "sand",
	Water:  "water",
	Wood:   "wood",
	Leaves: "leaves",
}

var blockColors = [...]uint32{
	Debug:  RGBA(255, 0, 255, 255),
	Stone:  RGBA(125, 125, 125, 255),
	Dirt:   RGBA(134, 96, 67, 255),
	Grass:  RGBA(89, 155, 58, 255),
	Sand:   RGBA(219, 207, 163, 255),
	Water:  RGBA(47, 94, 214, 200),
	Wood:   RGBA(102, 81, 50, 255),
	Leaves: RGBA(55, 120, 35, 230),
}

// BlockTypes lists every block type in declaration order.
func BlockTypes() []BlockType {
	types := make([]BlockType, len(blockTypeNames))
	for i := range blockTypeNames {
		types[i] = BlockType(i)
	}
	return types
}

func (t BlockType) String() string {
	if int(t) < len(blockTypeNames) {
		return blockTypeNames[t]
	}
	return "blocktype(" + strconv.Itoa(int(t)) + ")"
}

func ParseBlockType(s string) (BlockType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range blockTypeNames {
		if n == name {
			return BlockType(i), nil
		}
	}
	return Debug, errors.Errorf("unknown block type %q", s)
}

func (t BlockType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *BlockType) UnmarshalText(b []byte) error {
	v, err := ParseBlockType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t BlockType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *BlockType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return t.UnmarshalText([]byte(s))
}

// RGBA packs a color so its bytes are laid out R, G, B, A in memory.
func RGBA(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// UnpackRGBA is the inverse of RGBA.
func UnpackRGBA(c uint32) (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

// ColorForBlockType returns the packed color of a block type. Unknown types
// get the debug color.
func ColorForBlockType(t BlockType) uint32 {
	if int(t) < len(blockColors) {
		return blockColors[t]
	}
	return blockColors[Debug]
}

// ParseColor reads "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return 0, errors.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "bad color %q", s)
	}
	return RGBA(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Palette overrides the built-in block colors.
type Palette map[BlockType]uint32

// ParsePalette converts a name -> "#rrggbb[aa]" table, as found in config
// files, into a Palette.
func ParsePalette(raw map[string]string) (Palette, error) {
	p := make(Palette, len(raw))
	for name, hex := range raw {
		t, err := ParseBlockType(name)
		if err != nil {
			return nil, err
		}
		c, err := ParseColor(hex)
		if err != nil {
			return nil, errors.Wrapf(err, "palette entry %s", name)
		}
		p[t] = c
	}
	return p, nil
}

func (p Palette) Color(t BlockType) uint32 {
	if c, ok := p[t]; ok {
		return c
	}
	return ColorForBlockType(t)
}
