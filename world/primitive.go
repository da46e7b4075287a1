package world

import "github.com/go-gl/mathgl/mgl32"

const (
	VerticesPerCube = 8
	IndicesPerCube  = 36

	// MaxVertices is the number of vertices a 16-bit index can address.
	MaxVertices = 1 << 16
)

// Vertex is laid out as the GPU reads it: 3 floats then 4 normalized bytes.
type Vertex struct {
	Position mgl32.Vec3
	Color    uint32
}

// VertexSize is the stride of Vertex in bytes.
const VertexSize = 16

// unit cube with its origin corner at (0, 0, 0)
var cubeVertices = [VerticesPerCube]mgl32.Vec3{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 1},
	{0, 1, 1},
}

// counter-clockwise seen from outside
var cubeIndices = [IndicesPerCube]uint16{
	// back
	0, 3, 2, 2, 1, 0,
	// front
	4, 5, 6, 6, 7, 4,
	// left
	0, 4, 7, 7, 3, 0,
	// right
	5, 1, 2, 2, 6, 5,
	// bottom
	0, 1, 5, 5, 4, 0,
	// top
	7, 6, 2, 2, 3, 7,
}

// CubeVertices returns the cube template moved to the given grid cell.
func CubeVertices(cell Vec3) [VerticesPerCube]mgl32.Vec3 {
	offset := mgl32.Vec3{float32(cell.X), float32(cell.Y), float32(cell.Z)}
	var out [VerticesPerCube]mgl32.Vec3
	for i, v := range cubeVertices {
		out[i] = v.Add(offset)
	}
	return out
}

// CubeIndices returns the cube index pattern offset for the cell at ordinal.
func CubeIndices(ordinal int) [IndicesPerCube]uint16 {
	base := uint16(ordinal * VerticesPerCube)
	var out [IndicesPerCube]uint16
	for i, idx := range cubeIndices {
		out[i] = idx + base
	}
	return out
}
