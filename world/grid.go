package world

import (
	"github.com/go-gl/mathgl/mgl32"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

var ErrInvalidDimensions = errors.New("invalid chunk dimensions")

// ValidateDimensions checks that every axis is at least one cell and that
// the grid's vertices stay addressable by a 16-bit index.
func ValidateDimensions(dims Vec3) error {
	if dims.X < 1 || dims.Y < 1 || dims.Z < 1 {
		return errors.Wrapf(ErrInvalidDimensions, "%v has an empty axis", dims)
	}
	// checked axis by axis so huge inputs cannot overflow the product
	limit := MaxVertices / VerticesPerCube
	if dims.X > limit || dims.Y > limit || dims.Z > limit || dims.X*dims.Y > limit || dims.Volume() > limit {
		return errors.Wrapf(ErrInvalidDimensions, "%v needs more than %d vertices", dims, MaxVertices)
	}
	return nil
}

// CellOrdinal is the position of cell in generation order: x outer, y
// middle, z inner. Index offsets in a chunk's buffers depend on it.
func CellOrdinal(dims, cell Vec3) int {
	return (cell.X*dims.Y+cell.Y)*dims.Z + cell.Z
}

// CellAt is the inverse of CellOrdinal.
func CellAt(dims Vec3, ordinal int) Vec3 {
	z := ordinal % dims.Z
	y := ordinal / dims.Z % dims.Y
	x := ordinal / (dims.Y * dims.Z)
	return Vec3{x, y, z}
}

// Grid is the untranslated geometry of a chunk. Grids handed out by a
// GridBuilder are shared and must not be modified.
type Grid struct {
	Dimensions Vec3
	Geometry   []Vertex
	Indices    []uint16
}

type GridBuilder interface {
	Build(dims Vec3, t BlockType) (*Grid, error)
}

// NaiveGrid emits a full cube for every cell, with no culling between
// neighbours.
type NaiveGrid struct {
	Palette Palette
}

func (g NaiveGrid) Build(dims Vec3, t BlockType) (*Grid, error) {
	if err := ValidateDimensions(dims); err != nil {
		return nil, err
	}
	n := dims.Volume()
	grid := &Grid{
		Dimensions: dims,
		Geometry:   make([]Vertex, 0, n*VerticesPerCube),
		Indices:    make([]uint16, 0, n*IndicesPerCube),
	}
	color := g.Palette.Color(t)
	for ordinal := 0; ordinal < n; ordinal++ {
		cell := CellAt(dims, ordinal)
		indices := CubeIndices(ordinal)
		grid.Indices = append(grid.Indices, indices[:]...)
		for _, pos := range CubeVertices(cell) {
			grid.Geometry = append(grid.Geometry, Vertex{Position: pos, Color: color})
		}
	}
	return grid, nil
}

type gridKey struct {
	dims Vec3
	t    BlockType
}

// GridCache remembers recently built grids so repeated shapes are only
// generated once.
type GridCache struct {
	next  GridBuilder
	cache *lru.Cache
}

func NewGridCache(next GridBuilder, size int) (*GridCache, error) {
	if next == nil {
		next = NaiveGrid{}
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "grid cache")
	}
	return &GridCache{next: next, cache: cache}, nil
}

func (c *GridCache) Build(dims Vec3, t BlockType) (*Grid, error) {
	key := gridKey{dims: dims, t: t}
	if v, ok := c.cache.Get(key); ok {
		return v.(*Grid), nil
	}
	grid, err := c.next.Build(dims, t)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, grid)
	return grid, nil
}

func (c *GridCache) Len() int {
	return c.cache.Len()
}

// translated copies the grid's geometry moved by t.
func (g *Grid) translated(t mgl32.Vec3) []Vertex {
	out := make([]Vertex, len(g.Geometry))
	for i, v := range g.Geometry {
		out[i] = Vertex{Position: v.Position.Add(t), Color: v.Color}
	}
	return out
}
