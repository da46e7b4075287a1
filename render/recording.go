package render

import (
	"fmt"

	"github.com/humboldt-xie/voxedit/world"
	"github.com/pkg/errors"
)

type Draw struct {
	Buffer  BufferHandle
	Program ProgramHandle
	Count   int
}

type recordedBuffers struct {
	vertices []world.Vertex
	indices  []uint32
}

// RecordingDevice is an in-memory Device and ProgramLoader. It keeps every
// upload and draw so code that renders can run and be checked without a GPU.
// It is not safe for concurrent use.
type RecordingDevice struct {
	Draws []Draw
	// Loads counts LoadProgram calls per module.
	Loads map[string]int
	// Creates counts successful CreateBuffers calls.
	Creates int
	// Misuse collects calls on handles that are not live.
	Misuse []string

	// FailCreate makes CreateBuffers fail.
	FailCreate bool
	// FailLoad makes LoadProgram fail for the listed modules.
	FailLoad map[string]bool
	// InvalidLoad makes LoadProgram return InvalidProgram without an error.
	InvalidLoad map[string]bool

	nextBuffer  BufferHandle
	nextProgram ProgramHandle
	buffers     map[BufferHandle]*recordedBuffers
	programs    map[ProgramHandle]string
}

func NewRecordingDevice() *RecordingDevice {
	return &RecordingDevice{
		Loads:       make(map[string]int),
		FailLoad:    make(map[string]bool),
		InvalidLoad: make(map[string]bool),
		buffers:     make(map[BufferHandle]*recordedBuffers),
		programs:    make(map[ProgramHandle]string),
	}
}

func (d *RecordingDevice) misuse(format string, args ...interface{}) {
	d.Misuse = append(d.Misuse, fmt.Sprintf(format, args...))
}

func (d *RecordingDevice) CreateBuffers(vertices, indices int) (BufferHandle, error) {
	if d.FailCreate {
		return 0, errors.New("recording device: create disabled")
	}
	d.nextBuffer++
	d.buffers[d.nextBuffer] = &recordedBuffers{
		vertices: make([]world.Vertex, vertices),
		indices:  make([]uint32, indices),
	}
	d.Creates++
	return d.nextBuffer, nil
}

func (d *RecordingDevice) UpdateVertices(b BufferHandle, offset int, data []world.Vertex) error {
	buf, ok := d.buffers[b]
	if !ok {
		d.misuse("update vertices of dead buffer %d", b)
		return errors.Errorf("buffer %d is not live", b)
	}
	if offset < 0 || offset+len(data) > len(buf.vertices) {
		return errors.Errorf("vertex range %d+%d exceeds capacity %d", offset, len(data), len(buf.vertices))
	}
	copy(buf.vertices[offset:], data)
	return nil
}

func (d *RecordingDevice) UpdateIndices(b BufferHandle, offset int, data []uint32) error {
	buf, ok := d.buffers[b]
	if !ok {
		d.misuse("update indices of dead buffer %d", b)
		return errors.Errorf("buffer %d is not live", b)
	}
	if offset < 0 || offset+len(data) > len(buf.indices) {
		return errors.Errorf("index range %d+%d exceeds capacity %d", offset, len(data), len(buf.indices))
	}
	copy(buf.indices[offset:], data)
	return nil
}

func (d *RecordingDevice) DrawIndexed(b BufferHandle, p ProgramHandle, count int) {
	if _, ok := d.buffers[b]; !ok {
		d.misuse("draw dead buffer %d", b)
	}
	if _, ok := d.programs[p]; !ok {
		d.misuse("draw with dead program %d", p)
	}
	d.Draws = append(d.Draws, Draw{Buffer: b, Program: p, Count: count})
}

func (d *RecordingDevice) DestroyBuffers(b BufferHandle) {
	if _, ok := d.buffers[b]; !ok {
		d.misuse("destroy dead buffer %d", b)
		return
	}
	delete(d.buffers, b)
}

func (d *RecordingDevice) LoadProgram(module string) (ProgramHandle, error) {
	d.Loads[module]++
	if d.FailLoad[module] {
		return InvalidProgram, errors.Errorf("recording device: module %s disabled", module)
	}
	if d.InvalidLoad[module] {
		return InvalidProgram, nil
	}
	d.nextProgram++
	d.programs[d.nextProgram] = module
	return d.nextProgram, nil
}

func (d *RecordingDevice) DestroyProgram(p ProgramHandle) {
	if _, ok := d.programs[p]; !ok {
		d.misuse("destroy dead program %d", p)
		return
	}
	delete(d.programs, p)
}

// LiveBuffers is the number of buffer pairs created and not yet destroyed.
func (d *RecordingDevice) LiveBuffers() int {
	return len(d.buffers)
}

func (d *RecordingDevice) LivePrograms() int {
	return len(d.programs)
}

// ProgramModule returns the module a live program was loaded for.
func (d *RecordingDevice) ProgramModule(p ProgramHandle) (string, bool) {
	m, ok := d.programs[p]
	return m, ok
}

// Vertices returns the first n vertices uploaded to b.
func (d *RecordingDevice) Vertices(b BufferHandle, n int) []world.Vertex {
	buf, ok := d.buffers[b]
	if !ok {
		return nil
	}
	if n > len(buf.vertices) {
		n = len(buf.vertices)
	}
	return append([]world.Vertex(nil), buf.vertices[:n]...)
}

// Indices returns the first n indices uploaded to b.
func (d *RecordingDevice) Indices(b BufferHandle, n int) []uint32 {
	buf, ok := d.buffers[b]
	if !ok {
		return nil
	}
	if n > len(buf.indices) {
		n = len(buf.indices)
	}
	return append([]uint32(nil), buf.indices[:n]...)
}

// ResetDraws forgets the recorded draw calls.
func (d *RecordingDevice) ResetDraws() {
	d.Draws = d.Draws[:0]
}
