package world

import (
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Verbose turns on chunk generation timing logs.
var Verbose bool

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

func (b AABB) Translate(t mgl32.Vec3) AABB {
	return AABB{Min: b.Min.Add(t), Max: b.Max.Add(t)}
}

func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func boundsOf(geometry []Vertex) AABB {
	if len(geometry) == 0 {
		return AABB{}
	}
	b := AABB{Min: geometry[0].Position, Max: geometry[0].Position}
	for _, v := range geometry[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < b.Min[i] {
				b.Min[i] = v.Position[i]
			}
			if v.Position[i] > b.Max[i] {
				b.Max[i] = v.Position[i]
			}
		}
	}
	return b
}

// Chunk is a box of identical cubes placed in the level. Geometry, Indices
// and Bounds are derived from the descriptor fields and are rebuilt by
// SetGeometry and Translate; edit chunks through those methods only.
type Chunk struct {
	Identifier  string
	Module      string
	BlockType   BlockType
	Dimensions  Vec3
	Translation mgl32.Vec3
	Fixture     bool

	Indices  []uint16
	Geometry []Vertex
	Bounds   AABB

	grid    *Grid
	builder GridBuilder
}

// NewChunk builds a chunk with the default naive mesher.
func NewChunk(d Descriptor) (*Chunk, error) {
	return NewChunkWith(nil, d)
}

// NewChunkWith builds a chunk using b to generate the cube grid.
func NewChunkWith(b GridBuilder, d Descriptor) (*Chunk, error) {
	if b == nil {
		b = NaiveGrid{}
	}
	d = d.withDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	c := &Chunk{
		Identifier: d.Identifier,
		Module:     d.Module,
		Fixture:    d.Fixture,
		builder:    b,
	}
	if err := c.SetGeometry(d.Dimensions, d.Translation, d.BlockType); err != nil {
		return nil, err
	}
	return c, nil
}

// SetGeometry regenerates the chunk in place. Nothing changes when the new
// dimensions are rejected.
func (c *Chunk) SetGeometry(dims Vec3, translation mgl32.Vec3, t BlockType) error {
	start := time.Now()
	builder := c.builder
	if builder == nil {
		builder = NaiveGrid{}
	}
	grid, err := builder.Build(dims, t)
	if err != nil {
		return err
	}
	c.grid = grid
	c.Dimensions = dims
	c.BlockType = t
	c.Indices = grid.Indices
	c.place(translation)
	if Verbose {
		log.Printf("chunk %s generated %d vertices in %fs", c.Identifier, len(c.Geometry), time.Since(start).Seconds())
	}
	return nil
}

// Translate moves the chunk by t. Translation is summed in float32, so
// undoing a move is exact only when the sums are representable; the
// geometry always matches a fresh build at Translation.
func (c *Chunk) Translate(t mgl32.Vec3) {
	c.place(c.Translation.Add(t))
}

// place rebuilds world-space geometry from the untranslated grid so repeated
// moves never accumulate error in the vertices.
func (c *Chunk) place(translation mgl32.Vec3) {
	c.Translation = translation
	c.Geometry = c.grid.translated(translation)
	c.Bounds = boundsOf(c.Geometry)
}

func (c *Chunk) MinX() float32 { return c.Bounds.Min.X() }
func (c *Chunk) MaxX() float32 { return c.Bounds.Max.X() }
func (c *Chunk) MinY() float32 { return c.Bounds.Min.Y() }
func (c *Chunk) MaxY() float32 { return c.Bounds.Max.Y() }
func (c *Chunk) MinZ() float32 { return c.Bounds.Min.Z() }
func (c *Chunk) MaxZ() float32 { return c.Bounds.Max.Z() }

// Cells is the number of cubes in the chunk.
func (c *Chunk) Cells() int {
	return c.Dimensions.Volume()
}

func (c *Chunk) Descriptor() Descriptor {
	return Descriptor{
		Identifier:  c.Identifier,
		Module:      c.Module,
		BlockType:   c.BlockType,
		Dimensions:  c.Dimensions,
		Translation: c.Translation,
		Fixture:     c.Fixture,
	}
}

// Clone returns a copy that shares no mutable state with c.
func (c *Chunk) Clone() *Chunk {
	n := *c
	n.Geometry = append([]Vertex(nil), c.Geometry...)
	// indices come from the shared grid and are never written
	n.Indices = c.Indices
	return &n
}

// Write stores the chunk's descriptor as <dir>/<identifier>.chunk.
func (c *Chunk) Write(dir string) (string, error) {
	return WriteDescriptor(dir, c.Descriptor())
}
