package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
	"github.com/pkg/errors"
)

// BaseLayer describes the ground fixture: Width x Depth columns of
// Size x h x Size cells, h following a noise height map.
type BaseLayer struct {
	Seed      int64     `yaml:"seed"`
	Width     int       `yaml:"width"`
	Depth     int       `yaml:"depth"`
	Size      int       `yaml:"size"`
	MaxHeight int       `yaml:"max_height"`
	Frequency float64   `yaml:"frequency"`
	Module    string    `yaml:"module"`
	BlockType BlockType `yaml:"block_type"`
}

// Descriptors lays out the base layer columns, row by row.
func (b BaseLayer) Descriptors() ([]Descriptor, error) {
	if b.Width < 1 || b.Depth < 1 || b.Size < 1 || b.MaxHeight < 1 {
		return nil, errors.Errorf("bad base layer %dx%d size %d height %d", b.Width, b.Depth, b.Size, b.MaxHeight)
	}
	if err := ValidateDimensions(Vec3{b.Size, b.MaxHeight, b.Size}); err != nil {
		return nil, err
	}
	freq := b.Frequency
	if freq == 0 {
		freq = 0.15
	}
	module := b.Module
	if module == "" {
		module = DefaultModule
	}
	noise := opensimplex.NewNormalized(b.Seed)
	out := make([]Descriptor, 0, b.Width*b.Depth)
	for i := 0; i < b.Width; i++ {
		for j := 0; j < b.Depth; j++ {
			h := 1 + int(noise.Eval2(float64(i)*freq, float64(j)*freq)*float64(b.MaxHeight))
			if h > b.MaxHeight {
				h = b.MaxHeight
			}
			out = append(out, Descriptor{
				Identifier:  fmt.Sprintf("base-%d-%d", i, j),
				Module:      module,
				BlockType:   b.BlockType,
				Dimensions:  Vec3{b.Size, h, b.Size},
				Translation: mgl32.Vec3{float32(i * b.Size), 0, float32(j * b.Size)},
				Fixture:     true,
			})
		}
	}
	return out, nil
}
