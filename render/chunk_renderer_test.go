package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/voxedit/world"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunk(t *testing.T, id, module string, dims world.Vec3, at mgl32.Vec3) *world.Chunk {
	t.Helper()
	c, err := world.NewChunk(world.Descriptor{
		Identifier:  id,
		Module:      module,
		Dimensions:  dims,
		Translation: at,
	})
	require.NoError(t, err)
	return c
}

// assertSegment checks that drawing c's segment from the device buffers
// yields exactly c's triangles.
func assertSegment(t *testing.T, dev *RecordingDevice, r *ChunkRenderer, c *world.Chunk) {
	t.Helper()
	s, ok := r.Segment(c.Identifier)
	require.True(t, ok, "segment %s", c.Identifier)
	require.Equal(t, len(c.Geometry), s.VertexCount)
	require.Equal(t, len(c.Indices), s.IndexCount)

	buf, ok := r.Buffers()
	require.True(t, ok)
	verts := dev.Vertices(buf, r.VertexCount())
	indices := dev.Indices(buf, r.IndexCount())
	for k := 0; k < s.IndexCount; k++ {
		pooled := indices[s.IndexOffset+k]
		require.True(t, int(pooled) >= s.VertexOffset && int(pooled) < s.VertexOffset+s.VertexCount,
			"%s index %d = %d outside its segment", c.Identifier, k, pooled)
		require.Equal(t, c.Geometry[c.Indices[k]], verts[pooled])
	}
}

func TestRendererAppend(t *testing.T) {
	dev := NewRecordingDevice()
	r := NewChunkRenderer(dev)
	a := testChunk(t, "a", "core", world.Vec3{2, 1, 1}, mgl32.Vec3{})
	b := testChunk(t, "b", "core", world.Vec3{1, 1, 1}, mgl32.Vec3{10, 0, 0})

	require.NoError(t, r.AddChunk(a))
	require.NoError(t, r.AddChunk(b))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 24, r.VertexCount())
	assert.Equal(t, 3*world.IndicesPerCube, r.IndexCount())
	// the second append fits and reuses the buffers
	assert.Equal(t, 1, dev.Creates)
	assertSegment(t, dev, r, a)
	assertSegment(t, dev, r, b)

	s, _ := r.Segment("b")
	assert.Equal(t, 16, s.VertexOffset)
	assert.Equal(t, 72, s.IndexOffset)
}

func TestRendererGrows(t *testing.T) {
	dev := NewRecordingDevice()
	r := NewChunkRenderer(dev)
	a := testChunk(t, "a", "core", world.Vec3{8, 4, 4}, mgl32.Vec3{})
	b := testChunk(t, "b", "core", world.Vec3{8, 4, 4}, mgl32.Vec3{0, 0, 8})

	require.NoError(t, r.AddChunk(a))
	require.NoError(t, r.AddChunk(b))

	assert.Equal(t, 2048, r.VertexCount())
	assert.Equal(t, 2, dev.Creates)
	assert.Equal(t, 1, dev.LiveBuffers())
	assertSegment(t, dev, r, a)
	assertSegment(t, dev, r, b)
	assert.Empty(t, dev.Misuse)
}

func TestRendererReplace(t *testing.T) {
	dev := NewRecordingDevice()
	r := NewChunkRenderer(dev)
	a := testChunk(t, "a", "core", world.Vec3{1, 1, 1}, mgl32.Vec3{})
	b := testChunk(t, "b", "core", world.Vec3{1, 2, 1}, mgl32.Vec3{5, 0, 0})
	require.NoError(t, r.AddChunk(a))
	require.NoError(t, r.AddChunk(b))

	bigger := testChunk(t, "a", "core", world.Vec3{3, 1, 1}, mgl32.Vec3{0, 4, 0})
	require.NoError(t, r.AddChunk(bigger))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, (3+2)*world.VerticesPerCube, r.VertexCount())
	assertSegment(t, dev, r, bigger)
	assertSegment(t, dev, r, b)
}

func TestRendererRemove(t *testing.T) {
	dev := NewRecordingDevice()
	r := NewChunkRenderer(dev)
	a := testChunk(t, "a", "core", world.Vec3{1, 1, 1}, mgl32.Vec3{})
	b := testChunk(t, "b", "core", world.Vec3{2, 1, 1}, mgl32.Vec3{3, 0, 0})
	c := testChunk(t, "c", "core", world.Vec3{1, 1, 2}, mgl32.Vec3{6, 0, 0})
	for _, ch := range []*world.Chunk{a, b, c} {
		require.NoError(t, r.AddChunk(ch))
	}

	require.NoError(t, r.RemoveChunk("b"))
	assert.Equal(t, 2, r.Len())
	assert.False(t, r.Has("b"))
	assert.Equal(t, 4*world.VerticesPerCube, r.VertexCount())
	assert.Equal(t, 4*world.IndicesPerCube, r.IndexCount())
	assertSegment(t, dev, r, a)
	assertSegment(t, dev, r, c)

	err := r.RemoveChunk("b")
	assert.True(t, errors.Is(err, ErrUnknownChunk))

	require.NoError(t, r.RemoveChunk("a"))
	require.NoError(t, r.RemoveChunk("c"))
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.IndexCount())
}

func TestRendererRender(t *testing.T) {
	dev := NewRecordingDevice()
	p, err := dev.LoadProgram("core")
	require.NoError(t, err)
	r := NewChunkRenderer(dev)

	r.Render(p)
	assert.Empty(t, dev.Draws)

	require.NoError(t, r.AddChunk(testChunk(t, "a", "core", world.Vec3{1, 1, 1}, mgl32.Vec3{})))
	require.NoError(t, r.AddChunk(testChunk(t, "b", "core", world.Vec3{1, 1, 1}, mgl32.Vec3{2, 0, 0})))
	r.Render(p)
	require.Len(t, dev.Draws, 1)
	assert.Equal(t, p, dev.Draws[0].Program)
	assert.Equal(t, 2*world.IndicesPerCube, dev.Draws[0].Count)

	require.NoError(t, r.RemoveChunk("a"))
	require.NoError(t, r.RemoveChunk("b"))
	dev.ResetDraws()
	r.Render(p)
	assert.Empty(t, dev.Draws)
}

func TestRendererDestroyOnce(t *testing.T) {
	dev := NewRecordingDevice()
	r := NewChunkRenderer(dev)
	require.NoError(t, r.AddChunk(testChunk(t, "a", "core", world.Vec3{1, 1, 1}, mgl32.Vec3{})))
	require.Equal(t, 1, dev.LiveBuffers())

	r.Destroy()
	r.Destroy()
	assert.Equal(t, 0, dev.LiveBuffers())
	assert.Empty(t, dev.Misuse)
	assert.Error(t, r.AddChunk(testChunk(t, "b", "core", world.Vec3{1, 1, 1}, mgl32.Vec3{})))

	// never uploaded, nothing to release
	NewChunkRenderer(dev).Destroy()
	assert.Empty(t, dev.Misuse)
}

func TestRendererCreateFailure(t *testing.T) {
	dev := NewRecordingDevice()
	dev.FailCreate = true
	r := NewChunkRenderer(dev)

	err := r.AddChunk(testChunk(t, "a", "core", world.Vec3{1, 1, 1}, mgl32.Vec3{}))
	assert.True(t, errors.Is(err, ErrBufferCreate), "got %v", err)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.VertexCount())
	assert.Equal(t, 0, dev.LiveBuffers())
}

func TestRendererGrowFailureKeepsPool(t *testing.T) {
	dev := NewRecordingDevice()
	r := NewChunkRenderer(dev)
	a := testChunk(t, "a", "core", world.Vec3{2, 2, 2}, mgl32.Vec3{})
	require.NoError(t, r.AddChunk(a))
	buf, _ := r.Buffers()

	dev.FailCreate = true
	err := r.AddChunk(testChunk(t, "big", "core", world.Vec3{16, 16, 32}, mgl32.Vec3{}))
	require.True(t, errors.Is(err, ErrBufferCreate))

	after, ok := r.Buffers()
	require.True(t, ok)
	assert.Equal(t, buf, after)
	assert.Equal(t, 1, r.Len())
	assert.False(t, r.Has("big"))
	assert.Equal(t, len(a.Geometry), r.VertexCount())
	assertSegment(t, dev, r, a)

	// a later append that fits still works
	dev.FailCreate = false
	b := testChunk(t, "b", "core", world.Vec3{1, 1, 1}, mgl32.Vec3{9, 9, 9})
	require.NoError(t, r.AddChunk(b))
	assertSegment(t, dev, r, a)
	assertSegment(t, dev, r, b)
}

func TestRendererPoolExceedsChunkCeiling(t *testing.T) {
	dev := NewRecordingDevice()
	r := NewChunkRenderer(dev)
	// each chunk is at the 16-bit ceiling, the pool is not
	dims := world.Vec3{16, 16, 32}
	a := testChunk(t, "a", "core", dims, mgl32.Vec3{})
	b := testChunk(t, "b", "core", dims, mgl32.Vec3{0, 0, 32})
	require.NoError(t, r.AddChunk(a))
	require.NoError(t, r.AddChunk(b))

	assert.Equal(t, 2*world.MaxVertices, r.VertexCount())
	s, _ := r.Segment("b")
	assert.Equal(t, world.MaxVertices, s.VertexOffset)
	assertSegment(t, dev, r, b)
}
