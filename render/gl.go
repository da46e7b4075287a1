package render

import (
	"github.com/faiface/glhf"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/voxedit/world"
	"github.com/pkg/errors"
)

type glBuffers struct {
	vao, vbo, ibo uint32
}

// GLDevice is the OpenGL 3.3 core Device. All calls must be made on the
// thread owning the GL context.
type GLDevice struct {
	next     BufferHandle
	buffers  map[BufferHandle]*glBuffers
	programs map[ProgramHandle]*glhf.Shader
	viewProj mgl32.Mat4
}

func NewGLDevice() *GLDevice {
	return &GLDevice{
		buffers:  make(map[BufferHandle]*glBuffers),
		programs: make(map[ProgramHandle]*glhf.Shader),
		viewProj: mgl32.Ident4(),
	}
}

// SetViewProjection sets the matrix handed to every program drawn after it.
func (d *GLDevice) SetViewProjection(m mgl32.Mat4) {
	d.viewProj = m
}

func (d *GLDevice) CreateBuffers(vertices, indices int) (BufferHandle, error) {
	b := new(glBuffers)
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.GenBuffers(1, &b.ibo)
	if b.vao == 0 || b.vbo == 0 || b.ibo == 0 {
		d.release(b)
		return 0, errors.Errorf("gl error 0x%x", gl.GetError())
	}

	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, vertices*world.VertexSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ibo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, indices*4, nil, gl.DYNAMIC_DRAW)

	// location 0: position, location 1: packed color
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, world.VertexSize, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 4, gl.UNSIGNED_BYTE, true, world.VertexSize, gl.PtrOffset(12))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	if code := gl.GetError(); code == gl.OUT_OF_MEMORY {
		d.release(b)
		return 0, errors.New("gl out of memory")
	}
	d.next++
	d.buffers[d.next] = b
	return d.next, nil
}

func (d *GLDevice) UpdateVertices(h BufferHandle, offset int, data []world.Vertex) error {
	b, ok := d.buffers[h]
	if !ok {
		return errors.Errorf("unknown buffer %d", h)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.vbo)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, offset*world.VertexSize, len(data)*world.VertexSize, gl.Ptr(data))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	return nil
}

func (d *GLDevice) UpdateIndices(h BufferHandle, offset int, data []uint32) error {
	b, ok := d.buffers[h]
	if !ok {
		return errors.Errorf("unknown buffer %d", h)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.ibo)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, offset*4, len(data)*4, gl.Ptr(data))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	return nil
}

func (d *GLDevice) DrawIndexed(h BufferHandle, p ProgramHandle, count int) {
	b, ok := d.buffers[h]
	shader, sok := d.programs[p]
	if !ok || !sok || count == 0 {
		return
	}
	shader.Begin()
	shader.SetUniformAttr(0, d.viewProj)
	gl.BindVertexArray(b.vao)
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	shader.End()
}

func (d *GLDevice) DestroyBuffers(h BufferHandle) {
	b, ok := d.buffers[h]
	if !ok {
		return
	}
	d.release(b)
	delete(d.buffers, h)
}

func (d *GLDevice) release(b *glBuffers) {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
		b.vbo = 0
	}
	if b.ibo != 0 {
		gl.DeleteBuffers(1, &b.ibo)
		b.ibo = 0
	}
}
