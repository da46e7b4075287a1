package world

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const previewShadeHeight = 16

// Preview draws the chunk's footprint seen from above on a size x size
// transparent square. Taller chunks are drawn brighter.
func Preview(c *Chunk, size int) *image.NRGBA {
	r, g, b, a := UnpackRGBA(ColorForBlockType(c.BlockType))
	if len(c.Geometry) > 0 {
		r, g, b, a = UnpackRGBA(c.Geometry[0].Color)
	}
	footprint := imaging.New(c.Dimensions.X, c.Dimensions.Z, color.NRGBA{r, g, b, a})

	h := c.Dimensions.Y
	if h > previewShadeHeight {
		h = previewShadeHeight
	}
	shaded := imaging.AdjustBrightness(footprint, -30+60*float64(h)/previewShadeHeight)

	var scaled *image.NRGBA
	if c.Dimensions.X >= c.Dimensions.Z {
		scaled = imaging.Resize(shaded, size, 0, imaging.NearestNeighbor)
	} else {
		scaled = imaging.Resize(shaded, 0, size, imaging.NearestNeighbor)
	}
	canvas := imaging.New(size, size, color.NRGBA{})
	return imaging.PasteCenter(canvas, scaled)
}

func SavePreview(c *Chunk, size int, path string) error {
	return imaging.Save(Preview(c, size), path)
}
