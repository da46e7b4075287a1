package render

import (
	"log"

	"github.com/humboldt-xie/voxedit/world"
	"github.com/pkg/errors"
)

const (
	minVertexCapacity = 1024
	minIndexCapacity  = 4096
)

var errRendererDestroyed = errors.New("chunk renderer destroyed")

// Segment is the range of the pooled buffers holding one chunk.
type Segment struct {
	Identifier   string
	VertexOffset int
	VertexCount  int
	IndexOffset  int
	IndexCount   int
}

// ChunkRenderer draws every chunk of one shader module with a single pair of
// pooled buffers. A CPU copy of the pool is kept so a chunk can be replaced
// or removed without touching the others.
type ChunkRenderer struct {
	dev Device

	buffers   BufferHandle
	allocated bool
	destroyed bool
	vertexCap int
	indexCap  int

	vertices []world.Vertex
	indices  []uint32
	segments []Segment
}

func NewChunkRenderer(dev Device) *ChunkRenderer {
	return &ChunkRenderer{dev: dev}
}

// AddChunk appends the chunk's geometry. A chunk whose identifier is already
// present replaces the old segment.
func (r *ChunkRenderer) AddChunk(c *world.Chunk) error {
	if r.destroyed {
		return errRendererDestroyed
	}
	if _, ok := r.Segment(c.Identifier); ok {
		return r.replace(c)
	}

	s := Segment{
		Identifier:   c.Identifier,
		VertexOffset: len(r.vertices),
		VertexCount:  len(c.Geometry),
		IndexOffset:  len(r.indices),
		IndexCount:   len(c.Indices),
	}
	verts := append(r.vertices, c.Geometry...)
	idx := appendRebased(r.indices, c.Indices, uint32(s.VertexOffset))

	if r.fits(len(verts), len(idx)) {
		if err := r.dev.UpdateVertices(r.buffers, s.VertexOffset, c.Geometry); err != nil {
			return errors.Wrapf(err, "upload chunk %s", c.Identifier)
		}
		if err := r.dev.UpdateIndices(r.buffers, s.IndexOffset, idx[s.IndexOffset:]); err != nil {
			return errors.Wrapf(err, "upload chunk %s", c.Identifier)
		}
	} else if err := r.realloc(verts, idx); err != nil {
		return errors.WithMessagef(err, "add chunk %s", c.Identifier)
	}

	r.vertices, r.indices = verts, idx
	r.segments = append(r.segments, s)
	return nil
}

func (r *ChunkRenderer) replace(c *world.Chunk) error {
	verts, idx, segs := r.compact(c.Identifier)
	s := Segment{
		Identifier:   c.Identifier,
		VertexOffset: len(verts),
		VertexCount:  len(c.Geometry),
		IndexOffset:  len(idx),
		IndexCount:   len(c.Indices),
	}
	verts = append(verts, c.Geometry...)
	idx = appendRebased(idx, c.Indices, uint32(s.VertexOffset))
	segs = append(segs, s)
	return errors.WithMessagef(r.commit(verts, idx, segs), "replace chunk %s", c.Identifier)
}

// RemoveChunk drops the chunk's segment and compacts the pool.
func (r *ChunkRenderer) RemoveChunk(identifier string) error {
	if r.destroyed {
		return errRendererDestroyed
	}
	if _, ok := r.Segment(identifier); !ok {
		return errors.Wrapf(ErrUnknownChunk, "%s", identifier)
	}
	verts, idx, segs := r.compact(identifier)
	return errors.WithMessagef(r.commit(verts, idx, segs), "remove chunk %s", identifier)
}

// Render issues one indexed draw covering every chunk.
func (r *ChunkRenderer) Render(p ProgramHandle) {
	if r.destroyed || !r.allocated || len(r.indices) == 0 {
		return
	}
	r.dev.DrawIndexed(r.buffers, p, len(r.indices))
}

// Destroy releases the GPU buffers. Calling it again does nothing.
func (r *ChunkRenderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	if r.allocated {
		r.dev.DestroyBuffers(r.buffers)
		r.allocated = false
	}
	r.vertices, r.indices, r.segments = nil, nil, nil
}

func (r *ChunkRenderer) Len() int {
	return len(r.segments)
}

func (r *ChunkRenderer) Has(identifier string) bool {
	_, ok := r.Segment(identifier)
	return ok
}

func (r *ChunkRenderer) Segment(identifier string) (Segment, bool) {
	for _, s := range r.segments {
		if s.Identifier == identifier {
			return s, true
		}
	}
	return Segment{}, false
}

func (r *ChunkRenderer) VertexCount() int {
	return len(r.vertices)
}

func (r *ChunkRenderer) IndexCount() int {
	return len(r.indices)
}

// Buffers returns the pooled buffer pair, or false before the first upload.
func (r *ChunkRenderer) Buffers() (BufferHandle, bool) {
	return r.buffers, r.allocated
}

func (r *ChunkRenderer) fits(vertices, indices int) bool {
	return r.allocated && vertices <= r.vertexCap && indices <= r.indexCap
}

// compact copies every segment except skip into fresh arrays, rebasing the
// indices to the new vertex offsets.
func (r *ChunkRenderer) compact(skip string) ([]world.Vertex, []uint32, []Segment) {
	verts := make([]world.Vertex, 0, len(r.vertices))
	idx := make([]uint32, 0, len(r.indices))
	segs := make([]Segment, 0, len(r.segments))
	for _, s := range r.segments {
		if s.Identifier == skip {
			continue
		}
		n := Segment{
			Identifier:   s.Identifier,
			VertexOffset: len(verts),
			VertexCount:  s.VertexCount,
			IndexOffset:  len(idx),
			IndexCount:   s.IndexCount,
		}
		verts = append(verts, r.vertices[s.VertexOffset:s.VertexOffset+s.VertexCount]...)
		for _, i := range r.indices[s.IndexOffset : s.IndexOffset+s.IndexCount] {
			idx = append(idx, i-uint32(s.VertexOffset)+uint32(n.VertexOffset))
		}
		segs = append(segs, n)
	}
	return verts, idx, segs
}

// commit uploads a whole new pool and adopts it. On failure the previous
// pool stays current.
func (r *ChunkRenderer) commit(verts []world.Vertex, idx []uint32, segs []Segment) error {
	if r.fits(len(verts), len(idx)) {
		if err := r.upload(r.buffers, verts, idx); err != nil {
			if rerr := r.upload(r.buffers, r.vertices, r.indices); rerr != nil {
				log.Printf("restore chunk buffers: %v", rerr)
			}
			return err
		}
	} else if err := r.realloc(verts, idx); err != nil {
		return err
	}
	r.vertices, r.indices, r.segments = verts, idx, segs
	return nil
}

// realloc creates buffers large enough for verts and idx, uploads them and
// swaps them in. The old buffers are kept if anything fails.
func (r *ChunkRenderer) realloc(verts []world.Vertex, idx []uint32) error {
	vc, ic := r.vertexCap, r.indexCap
	if vc < minVertexCapacity {
		vc = minVertexCapacity
	}
	if ic < minIndexCapacity {
		ic = minIndexCapacity
	}
	for vc < len(verts) {
		vc *= 2
	}
	for ic < len(idx) {
		ic *= 2
	}
	buf, err := r.dev.CreateBuffers(vc, ic)
	if err != nil {
		return errors.Wrapf(ErrBufferCreate, "%d vertices, %d indices: %v", vc, ic, err)
	}
	if err := r.upload(buf, verts, idx); err != nil {
		r.dev.DestroyBuffers(buf)
		return err
	}
	if r.allocated {
		r.dev.DestroyBuffers(r.buffers)
	}
	if world.Verbose {
		log.Printf("chunk buffers grown to %d vertices, %d indices", vc, ic)
	}
	r.buffers, r.allocated = buf, true
	r.vertexCap, r.indexCap = vc, ic
	return nil
}

func (r *ChunkRenderer) upload(buf BufferHandle, verts []world.Vertex, idx []uint32) error {
	if len(verts) > 0 {
		if err := r.dev.UpdateVertices(buf, 0, verts); err != nil {
			return errors.Wrap(err, "upload vertices")
		}
	}
	if len(idx) > 0 {
		if err := r.dev.UpdateIndices(buf, 0, idx); err != nil {
			return errors.Wrap(err, "upload indices")
		}
	}
	return nil
}

func appendRebased(dst []uint32, indices []uint16, base uint32) []uint32 {
	for _, i := range indices {
		dst = append(dst, uint32(i)+base)
	}
	return dst
}
